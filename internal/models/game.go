package models

import "time"

// MarketMoneyline is the upstream market key for moneyline (head-to-head) bets.
const MarketMoneyline = "h2h"

// Side labels a prop outcome. Only Over and Under participate in two-way
// arbitrage detection.
type Side string

const (
	SideOver  Side = "Over"
	SideUnder Side = "Under"
)

// PriceQuote is one bookmaker's price on a single outcome, with the implied
// probability precomputed from the American odds.
type PriceQuote struct {
	Odds        int     `json:"odds"`
	ImpliedProb float64 `json:"implied_prob"`
}

// BookOdds holds one bookmaker's moneyline prices keyed by team name.
type BookOdds struct {
	Book  string                `json:"book"`
	Teams map[string]PriceQuote `json:"teams"`
}

// Game is the canonical per-game moneyline structure produced by the
// normalizer. Books preserve the arrival order of the upstream payload so
// best-price tie-breaking is deterministic.
type Game struct {
	GameID       string     `json:"game_id"`
	HomeTeam     string     `json:"home_team"`
	AwayTeam     string     `json:"away_team"`
	CommenceTime *time.Time `json:"commence_time,omitempty"`
	Books        []BookOdds `json:"books"`
}

// PropBookOdds holds one bookmaker's Over/Under prices for a player line.
// Either side may be absent when the book only posts one direction.
type PropBookOdds struct {
	Book  string      `json:"book"`
	Over  *PriceQuote `json:"over,omitempty"`
	Under *PriceQuote `json:"under,omitempty"`
}

// PropLine is one player + line bucket within a prop market. Books preserve
// arrival order for deterministic tie-breaking.
type PropLine struct {
	Player string         `json:"player"`
	Line   float64        `json:"line"`
	Books  []PropBookOdds `json:"books"`
}

// PropMarket groups the player lines of a single prop market type.
type PropMarket struct {
	MarketType string      `json:"market_type"`
	Lines      []*PropLine `json:"lines"`
}

// EventProps is the canonical prop structure for one event fetch.
type EventProps struct {
	GameID  string        `json:"game_id"`
	Markets []*PropMarket `json:"markets"`
}
