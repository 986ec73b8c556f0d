package service

import (
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/arb-scout/internal/models"
	"github.com/yourusername/arb-scout/internal/oddsapi"
	"github.com/yourusername/arb-scout/internal/oddsmath"
)

// Normalizer converts raw odds API payloads into the canonical per-game and
// per-prop-line structures consumed by the detector. Malformed pieces are
// skipped at the smallest granularity; siblings are always kept.
type Normalizer struct {
	logger *logrus.Logger
}

// NewNormalizer creates a new normalizer
func NewNormalizer(logger *logrus.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// NormalizeMoneylineOdds builds one Game per raw event. Bookmakers without a
// usable display name or without a moneyline market are excluded; outcomes
// missing a team name or price are excluded. Book order follows the arrival
// order of the payload.
func (n *Normalizer) NormalizeMoneylineOdds(rawGames []oddsapi.RawEvent) []*models.Game {
	games := make([]*models.Game, 0, len(rawGames))

	for _, raw := range rawGames {
		game := &models.Game{
			GameID:       raw.ID,
			HomeTeam:     raw.HomeTeam,
			AwayTeam:     raw.AwayTeam,
			CommenceTime: parseCommenceTime(raw.CommenceTime),
		}

		for _, bookmaker := range raw.Bookmakers {
			book := bookmaker.DisplayName()
			if book == "" {
				continue
			}

			market := findMarket(bookmaker.Markets, models.MarketMoneyline)
			if market == nil {
				continue
			}

			teams := make(map[string]models.PriceQuote)
			for _, outcome := range market.Outcomes {
				if outcome.Name == nil || outcome.Price == nil {
					continue
				}
				odds := int(*outcome.Price)
				teams[*outcome.Name] = models.PriceQuote{
					Odds:        odds,
					ImpliedProb: oddsmath.ImpliedProbability(odds),
				}
			}

			if len(teams) == 0 {
				continue
			}
			game.Books = append(game.Books, models.BookOdds{Book: book, Teams: teams})
		}

		games = append(games, game)
	}

	return games
}

// NormalizePropOdds walks the event payload's bookmakers, markets and
// outcomes, grouping prices into player+line buckets per market type. Only
// outcomes whose side label is exactly Over or Under are kept; an outcome
// missing player, line or price is skipped. Markets, buckets and books all
// preserve arrival order.
func (n *Normalizer) NormalizePropOdds(gameID string, raw *oddsapi.RawEventOdds) *models.EventProps {
	props := &models.EventProps{GameID: gameID}
	if raw == nil {
		return props
	}

	marketIdx := make(map[string]*models.PropMarket)
	lineIdx := make(map[string]map[string]*models.PropLine)
	bookIdx := make(map[*models.PropLine]map[string]int)

	for _, bookmaker := range raw.Bookmakers {
		book := bookmaker.DisplayName()
		if book == "" {
			continue
		}

		for _, market := range bookmaker.Markets {
			if market.Key == nil || *market.Key == "" {
				continue
			}
			marketType := *market.Key

			for _, outcome := range market.Outcomes {
				if outcome.Name == nil {
					continue
				}
				side := models.Side(*outcome.Name)
				if side != models.SideOver && side != models.SideUnder {
					continue
				}
				if outcome.Description == nil || outcome.Point == nil || outcome.Price == nil {
					continue
				}

				bucket := marketIdx[marketType]
				if bucket == nil {
					bucket = &models.PropMarket{MarketType: marketType}
					marketIdx[marketType] = bucket
					lineIdx[marketType] = make(map[string]*models.PropLine)
					props.Markets = append(props.Markets, bucket)
				}

				key := playerLineKey(*outcome.Description, *outcome.Point)
				line := lineIdx[marketType][key]
				if line == nil {
					line = &models.PropLine{Player: *outcome.Description, Line: *outcome.Point}
					lineIdx[marketType][key] = line
					bookIdx[line] = make(map[string]int)
					bucket.Lines = append(bucket.Lines, line)
				}

				idx, ok := bookIdx[line][book]
				if !ok {
					line.Books = append(line.Books, models.PropBookOdds{Book: book})
					idx = len(line.Books) - 1
					bookIdx[line][book] = idx
				}

				odds := int(*outcome.Price)
				quote := &models.PriceQuote{
					Odds:        odds,
					ImpliedProb: oddsmath.ImpliedProbability(odds),
				}
				if side == models.SideOver {
					line.Books[idx].Over = quote
				} else {
					line.Books[idx].Under = quote
				}
			}
		}
	}

	return props
}

// playerLineKey identifies one player+line bucket within a prop market.
func playerLineKey(player string, line float64) string {
	return player + "|" + strconv.FormatFloat(line, 'f', -1, 64)
}

// findMarket returns the first market with the given key, or nil.
func findMarket(markets []oddsapi.RawMarket, key string) *oddsapi.RawMarket {
	for i := range markets {
		if markets[i].Key != nil && *markets[i].Key == key {
			return &markets[i]
		}
	}
	return nil
}

// parseCommenceTime parses the upstream RFC3339 start time. Missing or
// unparseable values become a typed absence.
func parseCommenceTime(raw *string) *time.Time {
	if raw == nil {
		return nil
	}
	t, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil
	}
	return &t
}
