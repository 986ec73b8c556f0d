// Package oddsmath provides conversions between American odds and implied
// probabilities, plus the arbitrage profit calculation.
package oddsmath

import "github.com/shopspring/decimal"

// ImpliedProbability converts American odds to the break-even win probability
// the price encodes.
// +150 → 0.40
// -150 → 0.60
// The result is strictly between 0 and 1 for any nonzero odds value. Zero is
// a degenerate input the upstream feed does not emit; it falls through the
// non-positive branch and yields 0.
func ImpliedProbability(odds int) float64 {
	if odds > 0 {
		return 100.0 / (float64(odds) + 100.0)
	}
	abs := float64(-odds)
	return abs / (abs + 100.0)
}

// ProfitPercent converts the combined implied probability of two opposing
// legs into the guaranteed profit percentage, rounded to 3 decimals. Callers
// must only invoke this when totalProb < 1.
func ProfitPercent(totalProb float64) float64 {
	pct := decimal.NewFromFloat((1.0 - totalProb) * 100.0)
	return pct.Round(3).InexactFloat64()
}
