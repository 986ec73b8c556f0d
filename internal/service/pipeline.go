package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/arb-scout/internal/config"
	"github.com/yourusername/arb-scout/internal/metrics"
	"github.com/yourusername/arb-scout/internal/models"
	"github.com/yourusername/arb-scout/internal/oddsapi"
)

// OddsFetcher is the slice of the odds API client the pipelines depend on.
type OddsFetcher interface {
	FetchUpcomingGames(ctx context.Context, sportKey string) ([]oddsapi.RawEvent, error)
	FetchEventProps(ctx context.Context, sportKey, eventID string, markets []string) (*oddsapi.RawEventOdds, int)
}

// OpportunityStore persists detected opportunities. Implementations filter by
// their minimum-profit threshold, stamp a detection timestamp, upsert by the
// natural composite key and return exactly the rows they attempted to store.
type OpportunityStore interface {
	UpsertMoneylineOpportunities(ctx context.Context, opps []models.Opportunity) ([]models.OpportunityRow, error)
	UpsertPropOpportunities(ctx context.Context, opps []models.Opportunity) ([]models.OpportunityRow, error)
}

// Pipeline sequences fetch, normalize, detect and store for the moneyline and
// prop markets of one sport. It is the only component aware of both market
// pipelines; combined runs reuse the games fetched for the moneyline pass.
type Pipeline struct {
	fetcher    OddsFetcher
	normalizer *Normalizer
	detector   *Detector
	store      OpportunityStore
	sports     *config.SportsConfig
	logger     *logrus.Logger
}

// NewPipeline creates a new pipeline orchestrator
func NewPipeline(
	fetcher OddsFetcher,
	normalizer *Normalizer,
	detector *Detector,
	store OpportunityStore,
	sports *config.SportsConfig,
	logger *logrus.Logger,
) *Pipeline {
	return &Pipeline{
		fetcher:    fetcher,
		normalizer: normalizer,
		detector:   detector,
		store:      store,
		sports:     sports,
		logger:     logger,
	}
}

// MoneylineResult carries detected moneyline opportunities together with the
// normalized games so a subsequent prop pass can reuse them.
type MoneylineResult struct {
	Opportunities []models.Opportunity
	Games         []*models.Game
}

// PropResult carries detected prop opportunities and the per-event fetch
// failures tolerated along the way.
type PropResult struct {
	Opportunities []models.Opportunity
	Games         []*models.Game
	RequestErrors int
}

// RunSummary reports the counts of one pipeline run.
type RunSummary struct {
	RunID                  uuid.UUID     `json:"run_id"`
	SportKey               string        `json:"sport_key"`
	Mode                   string        `json:"mode"`
	GamesProcessed         int           `json:"games_processed"`
	MoneylineOpportunities int           `json:"moneyline_opportunities"`
	PropOpportunities      int           `json:"prop_opportunities"`
	PropRequestErrors      int           `json:"prop_request_errors"`
	StoredMoneyline        int           `json:"stored_moneyline"`
	StoredProps            int           `json:"stored_props"`
	Duration               time.Duration `json:"duration"`
}

// Pipeline modes accepted by the trigger endpoint and the CLI.
const (
	ModeAll       = "all"
	ModeMoneyline = "moneyline"
	ModeProps     = "props"
)

// FetchMoneylineOpportunities fetches and normalizes upcoming games, then
// detects moneyline arbitrage. A games fetch failure is fatal to the run and
// propagates; there is no fallback for missing game data.
func (p *Pipeline) FetchMoneylineOpportunities(ctx context.Context, sportKey string) (*MoneylineResult, error) {
	rawGames, err := p.fetcher.FetchUpcomingGames(ctx, sportKey)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch upcoming games for %s: %w", sportKey, err)
	}

	games := p.normalizer.NormalizeMoneylineOdds(rawGames)
	opps := p.detector.DetectMoneyline(games)

	return &MoneylineResult{Opportunities: opps, Games: games}, nil
}

// FetchPropOpportunities fetches and processes event-level prop odds for each
// normalized game. When games is nil it fetches and normalizes them first.
// An empty configured prop-market list short-circuits to zero requests, zero
// opportunities and zero errors. Per-event fetch failures are counted and the
// event skipped; the run continues.
func (p *Pipeline) FetchPropOpportunities(ctx context.Context, sportKey string, games []*models.Game) (*PropResult, error) {
	if games == nil {
		rawGames, err := p.fetcher.FetchUpcomingGames(ctx, sportKey)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch upcoming games for %s: %w", sportKey, err)
		}
		games = p.normalizer.NormalizeMoneylineOdds(rawGames)
	}

	result := &PropResult{Games: games}

	propMarkets := p.sports.PropMarketsFor(sportKey)
	if len(propMarkets) == 0 {
		return result, nil
	}

	for _, game := range games {
		payload, requestErrors := p.fetcher.FetchEventProps(ctx, sportKey, game.GameID, propMarkets)
		result.RequestErrors += requestErrors
		if payload == nil {
			continue
		}

		props := p.normalizer.NormalizePropOdds(game.GameID, payload)
		opps := p.detector.DetectProps(props)

		homeTeam, awayTeam := game.HomeTeam, game.AwayTeam
		for i := range opps {
			opps[i].HomeTeam = &homeTeam
			opps[i].AwayTeam = &awayTeam
		}
		result.Opportunities = append(result.Opportunities, opps...)
	}

	return result, nil
}

// RunMoneylinePipeline runs the moneyline pipeline end to end for one sport
// and upserts qualifying rows.
func (p *Pipeline) RunMoneylinePipeline(ctx context.Context, sportKey string) (*RunSummary, error) {
	summary := p.newSummary(sportKey, ModeMoneyline)
	start := time.Now()

	result, err := p.FetchMoneylineOpportunities(ctx, sportKey)
	if err != nil {
		return nil, err
	}

	stored, err := p.store.UpsertMoneylineOpportunities(ctx, result.Opportunities)
	if err != nil {
		return nil, fmt.Errorf("failed to store moneyline opportunities: %w", err)
	}

	summary.GamesProcessed = len(result.Games)
	summary.MoneylineOpportunities = len(result.Opportunities)
	summary.StoredMoneyline = len(stored)
	summary.Duration = time.Since(start)
	p.record(summary)

	p.logger.WithFields(logrus.Fields{
		"run_id":        summary.RunID,
		"sport":         sportKey,
		"games":         summary.GamesProcessed,
		"opportunities": summary.MoneylineOpportunities,
		"upserted":      summary.StoredMoneyline,
	}).Info("Moneyline run complete")

	return summary, nil
}

// RunPropsPipeline runs the props pipeline end to end for one sport and
// upserts qualifying rows.
func (p *Pipeline) RunPropsPipeline(ctx context.Context, sportKey string) (*RunSummary, error) {
	summary := p.newSummary(sportKey, ModeProps)
	start := time.Now()

	result, err := p.FetchPropOpportunities(ctx, sportKey, nil)
	if err != nil {
		return nil, err
	}

	stored, err := p.store.UpsertPropOpportunities(ctx, result.Opportunities)
	if err != nil {
		return nil, fmt.Errorf("failed to store prop opportunities: %w", err)
	}

	summary.GamesProcessed = len(result.Games)
	summary.PropOpportunities = len(result.Opportunities)
	summary.PropRequestErrors = result.RequestErrors
	summary.StoredProps = len(stored)
	summary.Duration = time.Since(start)
	p.record(summary)

	p.logger.WithFields(logrus.Fields{
		"run_id":         summary.RunID,
		"sport":          sportKey,
		"games":          summary.GamesProcessed,
		"opportunities":  summary.PropOpportunities,
		"request_errors": summary.PropRequestErrors,
		"upserted":       summary.StoredProps,
	}).Info("Props run complete")

	return summary, nil
}

// RunCombinedPipeline runs the moneyline pipeline, reuses its normalized
// games for the prop pipeline, and stores both opportunity lists. Games are
// fetched exactly once per combined run.
func (p *Pipeline) RunCombinedPipeline(ctx context.Context, sportKey string) (*RunSummary, error) {
	summary := p.newSummary(sportKey, ModeAll)
	start := time.Now()

	moneyline, err := p.FetchMoneylineOpportunities(ctx, sportKey)
	if err != nil {
		return nil, err
	}

	props, err := p.FetchPropOpportunities(ctx, sportKey, moneyline.Games)
	if err != nil {
		return nil, err
	}

	storedMoneyline, err := p.store.UpsertMoneylineOpportunities(ctx, moneyline.Opportunities)
	if err != nil {
		return nil, fmt.Errorf("failed to store moneyline opportunities: %w", err)
	}
	storedProps, err := p.store.UpsertPropOpportunities(ctx, props.Opportunities)
	if err != nil {
		return nil, fmt.Errorf("failed to store prop opportunities: %w", err)
	}

	summary.GamesProcessed = len(moneyline.Games)
	summary.MoneylineOpportunities = len(moneyline.Opportunities)
	summary.PropOpportunities = len(props.Opportunities)
	summary.PropRequestErrors = props.RequestErrors
	summary.StoredMoneyline = len(storedMoneyline)
	summary.StoredProps = len(storedProps)
	summary.Duration = time.Since(start)
	p.record(summary)

	p.logger.WithFields(logrus.Fields{
		"run_id":              summary.RunID,
		"sport":               sportKey,
		"games":               summary.GamesProcessed,
		"moneyline_arbs":      summary.MoneylineOpportunities,
		"prop_arbs":           summary.PropOpportunities,
		"prop_request_errors": summary.PropRequestErrors,
		"upserted_moneyline":  summary.StoredMoneyline,
		"upserted_props":      summary.StoredProps,
	}).Info("Combined run complete")

	return summary, nil
}

// Run dispatches to the pipeline selected by mode.
func (p *Pipeline) Run(ctx context.Context, sportKey, mode string) (*RunSummary, error) {
	switch mode {
	case ModeMoneyline:
		return p.RunMoneylinePipeline(ctx, sportKey)
	case ModeProps:
		return p.RunPropsPipeline(ctx, sportKey)
	case ModeAll:
		return p.RunCombinedPipeline(ctx, sportKey)
	default:
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownMarket, mode)
	}
}

func (p *Pipeline) newSummary(sportKey, mode string) *RunSummary {
	return &RunSummary{RunID: uuid.New(), SportKey: sportKey, Mode: mode}
}

func (p *Pipeline) record(summary *RunSummary) {
	metrics.PipelineRunsTotal.WithLabelValues(summary.Mode).Inc()
	metrics.OpportunitiesDetectedTotal.WithLabelValues(ModeMoneyline).Add(float64(summary.MoneylineOpportunities))
	metrics.OpportunitiesDetectedTotal.WithLabelValues(ModeProps).Add(float64(summary.PropOpportunities))
	metrics.OpportunitiesStoredTotal.WithLabelValues(ModeMoneyline).Add(float64(summary.StoredMoneyline))
	metrics.OpportunitiesStoredTotal.WithLabelValues(ModeProps).Add(float64(summary.StoredProps))
	metrics.GamesProcessed.Set(float64(summary.GamesProcessed))
	metrics.PipelineRunDuration.Observe(summary.Duration.Seconds())
}
