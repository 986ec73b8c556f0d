package service

import (
	"github.com/sirupsen/logrus"

	"github.com/yourusername/arb-scout/internal/models"
	"github.com/yourusername/arb-scout/internal/oddsmath"
)

// Detector scans canonical game and prop structures for two-way arbitrage.
type Detector struct {
	logger *logrus.Logger
}

// NewDetector creates a new detector
func NewDetector(logger *logrus.Logger) *Detector {
	return &Detector{logger: logger}
}

// DetectMoneyline emits an opportunity for each game whose best home and away
// prices sum to less than full probability.
func (d *Detector) DetectMoneyline(games []*models.Game) []models.Opportunity {
	var opportunities []models.Opportunity

	for _, game := range games {
		home := bestTeamPrice(game, game.HomeTeam)
		away := bestTeamPrice(game, game.AwayTeam)

		arb := twoWayArbitrage(home, away)
		if arb == nil {
			continue
		}

		homeTeam, awayTeam := game.HomeTeam, game.AwayTeam
		opp := models.Opportunity{
			GameID:     game.GameID,
			MarketType: models.MarketMoneyline,
			HomeTeam:   &homeTeam,
			AwayTeam:   &awayTeam,
		}
		arb.fill(&opp)
		opportunities = append(opportunities, opp)
	}

	return opportunities
}

// DetectProps emits an opportunity for each player-line bucket whose best
// Over and best Under prices form an arbitrage. Team names are left nil; the
// pipeline backfills them from the owning game record.
func (d *Detector) DetectProps(props *models.EventProps) []models.Opportunity {
	var opportunities []models.Opportunity
	if props == nil {
		return opportunities
	}

	for _, market := range props.Markets {
		for _, line := range market.Lines {
			over := bestPropSide(line.Books, models.SideOver)
			under := bestPropSide(line.Books, models.SideUnder)

			arb := twoWayArbitrage(over, under)
			if arb == nil {
				continue
			}

			player, lineValue := line.Player, line.Line
			opp := models.Opportunity{
				GameID:     props.GameID,
				MarketType: market.MarketType,
				PlayerName: &player,
				LineValue:  &lineValue,
			}
			arb.fill(&opp)
			opportunities = append(opportunities, opp)
		}
	}

	return opportunities
}

// arbLegs carries the pricing outcome of a two-way evaluation. The over/under
// labels are the storage schema convention; for moneyline sides they simply
// mean the first and second leg.
type arbLegs struct {
	overBook      string
	underBook     string
	overOdds      int
	underOdds     int
	profitPercent float64
}

func (a *arbLegs) fill(opp *models.Opportunity) {
	opp.OverBook = a.overBook
	opp.UnderBook = a.underBook
	opp.OverOdds = a.overOdds
	opp.UnderOdds = a.underOdds
	opp.ProfitPercent = a.profitPercent
}

// twoWayArbitrage evaluates two best-price selections. Either side absent, or
// a combined implied probability of 1 or more, means no opportunity. The two
// legs are not required to come from different bookmakers.
func twoWayArbitrage(sideA, sideB *models.BestPrice) *arbLegs {
	if sideA == nil || sideB == nil {
		return nil
	}

	total := sideA.ImpliedProb + sideB.ImpliedProb
	if total >= 1 {
		return nil
	}

	return &arbLegs{
		overBook:      sideA.Book,
		underBook:     sideB.Book,
		overOdds:      sideA.Odds,
		underOdds:     sideB.Odds,
		profitPercent: oddsmath.ProfitPercent(total),
	}
}

// bestTeamPrice finds the most favorable price for a team across a game's
// books. The maximum raw signed odds value is always the best price for a
// bettor under the American convention. Ties keep the earliest book in
// arrival order. Returns nil when no book offers the team.
func bestTeamPrice(game *models.Game, team string) *models.BestPrice {
	var best *models.BestPrice
	for _, book := range game.Books {
		quote, ok := book.Teams[team]
		if !ok {
			continue
		}
		if best == nil || quote.Odds > best.Odds {
			best = &models.BestPrice{Book: book.Book, Odds: quote.Odds, ImpliedProb: quote.ImpliedProb}
		}
	}
	return best
}

// bestPropSide finds the most favorable price for one prop side across the
// bucket's books, with the same max-odds and earliest-tie rules.
func bestPropSide(books []models.PropBookOdds, side models.Side) *models.BestPrice {
	var best *models.BestPrice
	for _, book := range books {
		var quote *models.PriceQuote
		switch side {
		case models.SideOver:
			quote = book.Over
		case models.SideUnder:
			quote = book.Under
		}
		if quote == nil {
			continue
		}
		if best == nil || quote.Odds > best.Odds {
			best = &models.BestPrice{Book: book.Book, Odds: quote.Odds, ImpliedProb: quote.ImpliedProb}
		}
	}
	return best
}
