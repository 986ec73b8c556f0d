package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/arb-scout/internal/config"
	"github.com/yourusername/arb-scout/internal/models"
	"github.com/yourusername/arb-scout/internal/oddsapi"
)

type fakeFetcher struct {
	games     []oddsapi.RawEvent
	gamesErr  error
	gameCalls int

	props     map[string]*oddsapi.RawEventOdds
	propErrs  map[string]int
	propCalls int
}

func (f *fakeFetcher) FetchUpcomingGames(ctx context.Context, sportKey string) ([]oddsapi.RawEvent, error) {
	f.gameCalls++
	if f.gamesErr != nil {
		return nil, f.gamesErr
	}
	return f.games, nil
}

func (f *fakeFetcher) FetchEventProps(ctx context.Context, sportKey, eventID string, markets []string) (*oddsapi.RawEventOdds, int) {
	f.propCalls++
	if n := f.propErrs[eventID]; n > 0 {
		return nil, n
	}
	return f.props[eventID], 0
}

type fakeStore struct {
	moneyline []models.Opportunity
	props     []models.Opportunity
	err       error
}

func (s *fakeStore) UpsertMoneylineOpportunities(ctx context.Context, opps []models.Opportunity) ([]models.OpportunityRow, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.moneyline = append(s.moneyline, opps...)
	return asRows(opps), nil
}

func (s *fakeStore) UpsertPropOpportunities(ctx context.Context, opps []models.Opportunity) ([]models.OpportunityRow, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.props = append(s.props, opps...)
	return asRows(opps), nil
}

func asRows(opps []models.Opportunity) []models.OpportunityRow {
	rows := make([]models.OpportunityRow, 0, len(opps))
	for _, opp := range opps {
		rows = append(rows, models.OpportunityRow{Opportunity: opp})
	}
	return rows
}

func testSports() *config.SportsConfig {
	sports := config.DefaultSportsConfig()
	return &sports
}

func newTestPipeline(fetcher *fakeFetcher, store *fakeStore, sports *config.SportsConfig) *Pipeline {
	logger := testLogger()
	return NewPipeline(fetcher, NewNormalizer(logger), NewDetector(logger), store, sports, logger)
}

func arbEvent(id string) oddsapi.RawEvent {
	return oddsapi.RawEvent{
		ID:       id,
		HomeTeam: "Lakers",
		AwayTeam: "Celtics",
		Bookmakers: []oddsapi.RawBookmaker{
			h2hBookmaker("BookA",
				oddsapi.RawOutcome{Name: strPtr("Lakers"), Price: floatPtr(120)},
				oddsapi.RawOutcome{Name: strPtr("Celtics"), Price: floatPtr(150)},
			),
		},
	}
}

func propPayload(id string) *oddsapi.RawEventOdds {
	return &oddsapi.RawEventOdds{
		ID: id,
		Bookmakers: []oddsapi.RawBookmaker{
			{
				Title: strPtr("BookA"),
				Markets: []oddsapi.RawMarket{
					{
						Key: strPtr("player_points"),
						Outcomes: []oddsapi.RawOutcome{
							{Name: strPtr("Over"), Description: strPtr("LeBron James"), Point: floatPtr(27.5), Price: floatPtr(120)},
							{Name: strPtr("Under"), Description: strPtr("LeBron James"), Point: floatPtr(27.5), Price: floatPtr(150)},
						},
					},
				},
			},
		},
	}
}

func TestFetchMoneylineOpportunities(t *testing.T) {
	fetcher := &fakeFetcher{games: []oddsapi.RawEvent{arbEvent("evt-1")}}
	pipeline := newTestPipeline(fetcher, &fakeStore{}, testSports())

	result, err := pipeline.FetchMoneylineOpportunities(context.Background(), "basketball_nba")
	require.NoError(t, err)
	require.Len(t, result.Games, 1)
	require.Len(t, result.Opportunities, 1)
	assert.Equal(t, 14.545, result.Opportunities[0].ProfitPercent)
}

func TestFetchMoneylineOpportunitiesFetchFailureIsFatal(t *testing.T) {
	fetcher := &fakeFetcher{gamesErr: errors.New("upstream down")}
	pipeline := newTestPipeline(fetcher, &fakeStore{}, testSports())

	result, err := pipeline.FetchMoneylineOpportunities(context.Background(), "basketball_nba")
	require.Error(t, err)
	assert.Nil(t, result)
}

func TestFetchPropOpportunitiesEmptyMarketListShortCircuits(t *testing.T) {
	fetcher := &fakeFetcher{games: []oddsapi.RawEvent{arbEvent("evt-1")}}
	// No prop markets configured for any sport.
	pipeline := newTestPipeline(fetcher, &fakeStore{}, &config.SportsConfig{})

	result, err := pipeline.FetchPropOpportunities(context.Background(), "basketball_nba", nil)
	require.NoError(t, err)
	assert.Empty(t, result.Opportunities)
	assert.Zero(t, result.RequestErrors)
	assert.Zero(t, fetcher.propCalls)
}

func TestFetchPropOpportunitiesToleratesPerEventFailures(t *testing.T) {
	fetcher := &fakeFetcher{
		games: []oddsapi.RawEvent{arbEvent("evt-1"), arbEvent("evt-2"), arbEvent("evt-3")},
		props: map[string]*oddsapi.RawEventOdds{
			"evt-1": propPayload("evt-1"),
			"evt-3": propPayload("evt-3"),
		},
		propErrs: map[string]int{"evt-2": 1},
	}
	pipeline := newTestPipeline(fetcher, &fakeStore{}, testSports())

	result, err := pipeline.FetchPropOpportunities(context.Background(), "basketball_nba", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.RequestErrors)
	assert.Equal(t, 3, fetcher.propCalls)
	require.Len(t, result.Opportunities, 2)

	// Team names are backfilled from the owning game record.
	for _, opp := range result.Opportunities {
		require.NotNil(t, opp.HomeTeam)
		assert.Equal(t, "Lakers", *opp.HomeTeam)
		require.NotNil(t, opp.AwayTeam)
		assert.Equal(t, "Celtics", *opp.AwayTeam)
	}
}

func TestFetchPropOpportunitiesReusesProvidedGames(t *testing.T) {
	fetcher := &fakeFetcher{
		props: map[string]*oddsapi.RawEventOdds{"evt-1": propPayload("evt-1")},
	}
	pipeline := newTestPipeline(fetcher, &fakeStore{}, testSports())

	games := []*models.Game{{GameID: "evt-1", HomeTeam: "Lakers", AwayTeam: "Celtics"}}
	result, err := pipeline.FetchPropOpportunities(context.Background(), "basketball_nba", games)
	require.NoError(t, err)
	assert.Zero(t, fetcher.gameCalls)
	require.Len(t, result.Opportunities, 1)
}

func TestRunCombinedPipelineFetchesGamesOnce(t *testing.T) {
	fetcher := &fakeFetcher{
		games: []oddsapi.RawEvent{arbEvent("evt-1")},
		props: map[string]*oddsapi.RawEventOdds{"evt-1": propPayload("evt-1")},
	}
	store := &fakeStore{}
	pipeline := newTestPipeline(fetcher, store, testSports())

	summary, err := pipeline.RunCombinedPipeline(context.Background(), "basketball_nba")
	require.NoError(t, err)

	assert.Equal(t, 1, fetcher.gameCalls)
	assert.Equal(t, ModeAll, summary.Mode)
	assert.Equal(t, 1, summary.GamesProcessed)
	assert.Equal(t, 1, summary.MoneylineOpportunities)
	assert.Equal(t, 1, summary.PropOpportunities)
	assert.Zero(t, summary.PropRequestErrors)
	assert.Equal(t, 1, summary.StoredMoneyline)
	assert.Equal(t, 1, summary.StoredProps)
	assert.Len(t, store.moneyline, 1)
	assert.Len(t, store.props, 1)
}

func TestRunDispatchesByMode(t *testing.T) {
	tests := []struct {
		name string
		mode string
	}{
		{name: "moneyline", mode: ModeMoneyline},
		{name: "props", mode: ModeProps},
		{name: "all", mode: ModeAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &fakeFetcher{games: []oddsapi.RawEvent{arbEvent("evt-1")}}
			pipeline := newTestPipeline(fetcher, &fakeStore{}, testSports())

			summary, err := pipeline.Run(context.Background(), "basketball_nba", tt.mode)
			require.NoError(t, err)
			assert.Equal(t, tt.mode, summary.Mode)
			assert.Equal(t, "basketball_nba", summary.SportKey)
			assert.NotEmpty(t, summary.RunID)
		})
	}
}

func TestRunRejectsUnknownMode(t *testing.T) {
	pipeline := newTestPipeline(&fakeFetcher{}, &fakeStore{}, testSports())

	summary, err := pipeline.Run(context.Background(), "basketball_nba", "spreads")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrUnknownMarket)
	assert.Nil(t, summary)
}

func TestRunPropsPipelineStoreFailure(t *testing.T) {
	fetcher := &fakeFetcher{
		games: []oddsapi.RawEvent{arbEvent("evt-1")},
		props: map[string]*oddsapi.RawEventOdds{"evt-1": propPayload("evt-1")},
	}
	pipeline := newTestPipeline(fetcher, &fakeStore{err: errors.New("db down")}, testSports())

	summary, err := pipeline.RunPropsPipeline(context.Background(), "basketball_nba")
	require.Error(t, err)
	assert.Nil(t, summary)
}
