package models

import "time"

// BestPrice is the most favorable price found for one side of a bet across
// all observed bookmakers. A nil *BestPrice means no book offered that side.
type BestPrice struct {
	Book        string  `json:"book"`
	Odds        int     `json:"odds"`
	ImpliedProb float64 `json:"implied_prob"`
}

// Opportunity is a detected two-way arbitrage. The over/under leg labels are
// a schema convention: for moneyline rows the "over" leg is the home side and
// the "under" leg is the away side.
type Opportunity struct {
	GameID        string   `json:"game_id"`
	MarketType    string   `json:"market_type"`
	PlayerName    *string  `json:"player_name"`
	LineValue     *float64 `json:"line_value"`
	HomeTeam      *string  `json:"home_team"`
	AwayTeam      *string  `json:"away_team"`
	OverBook      string   `json:"over_book"`
	UnderBook     string   `json:"under_book"`
	OverOdds      int      `json:"over_odds"`
	UnderOdds     int      `json:"under_odds"`
	ProfitPercent float64  `json:"profit_percent"`
}

// IsMoneyline reports whether the opportunity came from the moneyline market.
func (o *Opportunity) IsMoneyline() bool {
	return o.MarketType == MarketMoneyline
}

// OpportunityRow is an Opportunity stamped for persistence. DetectedAt is
// attached by the store at upsert time.
type OpportunityRow struct {
	Opportunity
	DetectedAt time.Time `json:"detected_at"`
}
