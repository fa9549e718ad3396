package markets

import (
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/set-point/internal/config"
	"github.com/yourusername/set-point/internal/models"
)

func odds(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestPlayersMatch(t *testing.T) {
	cases := []struct {
		market   string
		provider string
		want     bool
	}{
		{"Novak Djokovic", "Novak Djokovic", true},
		{"N. Djokovic", "Novak Djokovic", true},
		{"N Djokovic", "Novak Djokovic", true},
		{"Djokovic", "Novak Djokovic", true},
		{"C. Alcaraz", "Carlos Alcaraz Garfia", false}, // surnames differ
		{"A. Zverev", "Alexander Zverev", true},
		{"M. Zverev", "Alexander Zverev", false}, // initial conflicts
		{"jannik sinner", "Jannik Sinner", true},
		{"G. Monfils", "Gael Monfils", true},
		{"O'Connell", "Christopher O'Connell", false}, // apostrophe splits the surname
		{"C. O'Connell", "Christopher O'Connell", true},
		{"", "Novak Djokovic", false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, PlayersMatch(tc.market, tc.provider),
			"market %q vs provider %q", tc.market, tc.provider)
	}
}

func testMarkets() []MarketOdds {
	return []MarketOdds{
		{
			MarketID:       "mkt-1",
			Player1Name:    "N. Djokovic",
			Player2Name:    "J. Sinner",
			Player1SetOdds: odds("1.30"),
			Player2SetOdds: odds("1.90"),
		},
		{
			MarketID:       "mkt-2",
			Player1Name:    "C. Alcaraz",
			Player2Name:    "A. Zverev",
			Player1SetOdds: odds("1.25"),
			Player2SetOdds: odds("2.10"),
		},
	}
}

func TestFindMarketDirectOrientation(t *testing.T) {
	prediction := &models.SetPrediction{Player1Name: "Novak Djokovic", Player2Name: "Jannik Sinner"}

	market := FindMarket(testMarkets(), prediction)
	require.NotNil(t, market)
	assert.Equal(t, "mkt-1", market.MarketID)
	assert.Equal(t, "N. Djokovic", market.Player1Name)
}

func TestFindMarketFlipsReversedListing(t *testing.T) {
	// The bookmaker lists the players in the opposite order
	prediction := &models.SetPrediction{Player1Name: "Alexander Zverev", Player2Name: "Carlos Alcaraz"}

	market := FindMarket(testMarkets(), prediction)
	require.NotNil(t, market)
	assert.Equal(t, "mkt-2", market.MarketID)
	assert.Equal(t, "A. Zverev", market.Player1Name)
	assert.True(t, market.Player1SetOdds.Equal(odds("2.10")))
	assert.True(t, market.Player2SetOdds.Equal(odds("1.25")))
}

func TestFindMarketNoMatch(t *testing.T) {
	prediction := &models.SetPrediction{Player1Name: "Casper Ruud", Player2Name: "Holger Rune"}
	assert.Nil(t, FindMarket(testMarkets(), prediction))
}

func TestImpliedProbability(t *testing.T) {
	implied := ImpliedProbability(odds("2.00"))
	assert.True(t, implied.Equal(odds("0.5")), "got %s", implied)

	// Void odds imply certainty
	assert.True(t, ImpliedProbability(odds("1.00")).Equal(decimal.NewFromInt(1)))
	assert.True(t, ImpliedProbability(odds("0.80")).Equal(decimal.NewFromInt(1)))
}

func TestEdge(t *testing.T) {
	// Model 60% against even odds leaves a 10-point edge
	edge := Edge(0.60, odds("2.00"))
	assert.True(t, edge.Equal(odds("0.1")), "got %s", edge)

	negative := Edge(0.40, odds("2.00"))
	assert.True(t, negative.IsNegative())
}

func selectionEngine(minEdge float64) *SelectionEngine {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewSelectionEngine(&config.MarketsConfig{Enabled: true, MinEdge: minEdge}, logger)
}

func TestBuildSelectionsSingleLeg(t *testing.T) {
	e := selectionEngine(0.03)
	prediction := &models.SetPrediction{
		MatchID:     "match-1",
		Player1Name: "Novak Djokovic",
		Player2Name: "Jannik Sinner",
		SetProb1:    0.85,
		SetProb2:    0.45,
		Confidence:  models.ConfidenceHigh,
	}
	market := &MarketOdds{
		MarketID:       "mkt-1",
		Player1Name:    "N. Djokovic",
		Player2Name:    "J. Sinner",
		Player1SetOdds: odds("1.30"), // implied ~0.769, model edge ~0.081
		Player2SetOdds: odds("1.90"), // implied ~0.526, model edge negative
	}

	selections := e.BuildSelections(prediction, market)
	require.Len(t, selections, 1)
	assert.Equal(t, SelectionSingle, selections[0].Kind)
	require.Len(t, selections[0].Legs, 1)
	assert.Equal(t, "N. Djokovic", selections[0].Legs[0].PlayerName)
	assert.True(t, selections[0].Legs[0].StakeShare.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, "HIGH", selections[0].Confidence)
}

func TestBuildSelectionsDualAndBalanced(t *testing.T) {
	e := selectionEngine(0.03)
	prediction := &models.SetPrediction{
		MatchID:     "match-2",
		Player1Name: "Carlos Alcaraz",
		Player2Name: "Alexander Zverev",
		SetProb1:    0.72,
		SetProb2:    0.60,
		Confidence:  models.ConfidenceMedium,
	}
	market := &MarketOdds{
		MarketID:       "mkt-2",
		Player1Name:    "C. Alcaraz",
		Player2Name:    "A. Zverev",
		Player1SetOdds: odds("1.60"), // implied 0.625, edge 0.095
		Player2SetOdds: odds("1.90"), // implied ~0.526, edge ~0.074
	}

	selections := e.BuildSelections(prediction, market)
	require.Len(t, selections, 3)

	kinds := map[SelectionKind]Selection{}
	for _, s := range selections {
		kinds[s.Kind] = s
	}

	dual, ok := kinds[SelectionDual]
	require.True(t, ok)
	require.Len(t, dual.Legs, 2)
	assert.True(t, dual.Legs[0].StakeShare.Equal(odds("0.5")))
	assert.True(t, dual.Legs[1].StakeShare.Equal(odds("0.5")))

	balanced, ok := kinds[SelectionBalanced]
	require.True(t, ok)
	require.Len(t, balanced.Legs, 2)
	// Stakes split in proportion to edge and sum to one
	assert.True(t, balanced.Legs[0].StakeShare.GreaterThan(balanced.Legs[1].StakeShare))
	total := balanced.Legs[0].StakeShare.Add(balanced.Legs[1].StakeShare)
	assert.True(t, total.Equal(decimal.NewFromInt(1)), "stakes sum to %s", total)

	single, ok := kinds[SelectionSingle]
	require.True(t, ok)
	require.Len(t, single.Legs, 1)
	assert.Equal(t, "C. Alcaraz", single.Legs[0].PlayerName)
}

func TestBuildSelectionsRequiresBothAboveHalfForDual(t *testing.T) {
	e := selectionEngine(0.01)
	// Both legs carry edge, but player 2 is not favored to take a set
	prediction := &models.SetPrediction{
		MatchID:     "match-3",
		Player1Name: "Casper Ruud",
		Player2Name: "Holger Rune",
		SetProb1:    0.80,
		SetProb2:    0.48,
		Confidence:  models.ConfidenceMedium,
	}
	market := &MarketOdds{
		MarketID:       "mkt-3",
		Player1Name:    "C. Ruud",
		Player2Name:    "H. Rune",
		Player1SetOdds: odds("1.40"),
		Player2SetOdds: odds("2.40"),
	}

	selections := e.BuildSelections(prediction, market)
	require.Len(t, selections, 1)
	assert.Equal(t, SelectionSingle, selections[0].Kind)
}

func TestBuildSelectionsNoEdgeNoOffers(t *testing.T) {
	e := selectionEngine(0.05)
	prediction := &models.SetPrediction{
		MatchID:     "match-4",
		Player1Name: "Casper Ruud",
		Player2Name: "Holger Rune",
		SetProb1:    0.60,
		SetProb2:    0.40,
	}
	market := &MarketOdds{
		MarketID:       "mkt-4",
		Player1Name:    "C. Ruud",
		Player2Name:    "H. Rune",
		Player1SetOdds: odds("1.55"), // implied ~0.645, model below
		Player2SetOdds: odds("2.20"), // implied ~0.455, model below
	}

	assert.Empty(t, e.BuildSelections(prediction, market))
}
