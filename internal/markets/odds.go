// Package markets matches predictions to bookmaker set markets and builds
// value-based betting selections.
package markets

import (
	"context"

	"github.com/shopspring/decimal"
)

// MarketOdds is one bookmaker "to win a set" market for a match
type MarketOdds struct {
	MarketID    string
	Player1Name string
	Player2Name string
	// Decimal odds for each player to win at least one set
	Player1SetOdds decimal.Decimal
	Player2SetOdds decimal.Decimal
}

// MarketsProvider lists the currently offered set markets
type MarketsProvider interface {
	ListSetMarkets(ctx context.Context) ([]MarketOdds, error)
}

// ImpliedProbability converts decimal odds to the bookmaker's implied
// probability. Odds at or below 1.0 are void and imply certainty.
func ImpliedProbability(odds decimal.Decimal) decimal.Decimal {
	if odds.LessThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(1).Div(odds)
}

// Edge returns the model's edge over the market: model probability minus
// implied probability. Positive edge means the market underprices the
// outcome.
func Edge(modelProb float64, odds decimal.Decimal) decimal.Decimal {
	return decimal.NewFromFloat(modelProb).Sub(ImpliedProbability(odds))
}
