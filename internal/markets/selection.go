package markets

import (
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/set-point/internal/config"
	"github.com/yourusername/set-point/internal/models"
)

// SelectionKind names a betting option shape
type SelectionKind string

const (
	// SelectionSingle backs only the stronger set probability
	SelectionSingle SelectionKind = "SINGLE"
	// SelectionDual backs both players to win a set
	SelectionDual SelectionKind = "DUAL"
	// SelectionBalanced splits across both legs weighted by edge
	SelectionBalanced SelectionKind = "BALANCED"
)

// Leg is one backed outcome inside a selection
type Leg struct {
	PlayerName string          `json:"player_name"`
	ModelProb  float64         `json:"model_prob"`
	Odds       decimal.Decimal `json:"odds"`
	Implied    decimal.Decimal `json:"implied"`
	Edge       decimal.Decimal `json:"edge"`
	// StakeShare is the fraction of the unit stake on this leg
	StakeShare decimal.Decimal `json:"stake_share"`
}

// Selection is one recommended betting option for a prediction
type Selection struct {
	Kind       SelectionKind   `json:"kind"`
	MarketID   string          `json:"market_id"`
	MatchID    string          `json:"match_id"`
	Legs       []Leg           `json:"legs"`
	TotalEdge  decimal.Decimal `json:"total_edge"`
	Confidence string          `json:"confidence"`
}

// SelectionEngine turns predictions plus live markets into value
// selections. Legs below the configured minimum edge are never offered.
type SelectionEngine struct {
	cfg    *config.MarketsConfig
	logger *logrus.Logger
}

// NewSelectionEngine creates a selection engine
func NewSelectionEngine(cfg *config.MarketsConfig, logger *logrus.Logger) *SelectionEngine {
	return &SelectionEngine{cfg: cfg, logger: logger}
}

// BuildSelections returns the betting options for one prediction against
// its matched market. Returns an empty slice when no leg clears the
// minimum edge.
func (e *SelectionEngine) BuildSelections(prediction *models.SetPrediction, market *MarketOdds) []Selection {
	leg1 := e.buildLeg(market.Player1Name, prediction.SetProb1, market.Player1SetOdds)
	leg2 := e.buildLeg(market.Player2Name, prediction.SetProb2, market.Player2SetOdds)

	minEdge := decimal.NewFromFloat(e.cfg.MinEdge)
	leg1OK := leg1.Edge.GreaterThanOrEqual(minEdge)
	leg2OK := leg2.Edge.GreaterThanOrEqual(minEdge)

	var selections []Selection

	switch {
	case leg1OK && leg2OK && prediction.SetProb1 > 0.5 && prediction.SetProb2 > 0.5:
		// Both players favored to take a set and both legs carry value
		selections = append(selections,
			e.dual(prediction, market, leg1, leg2),
			e.balanced(prediction, market, leg1, leg2))
		if stronger := strongerLeg(leg1, leg2); stronger != nil {
			selections = append(selections, e.single(prediction, market, *stronger))
		}
	case leg1OK:
		selections = append(selections, e.single(prediction, market, leg1))
	case leg2OK:
		selections = append(selections, e.single(prediction, market, leg2))
	}

	if len(selections) == 0 {
		e.logger.WithFields(logrus.Fields{
			"match_id": prediction.MatchID,
			"edge1":    leg1.Edge.String(),
			"edge2":    leg2.Edge.String(),
			"min_edge": e.cfg.MinEdge,
		}).Debug("No market edge, no selections offered")
	}
	return selections
}

func (e *SelectionEngine) buildLeg(name string, modelProb float64, odds decimal.Decimal) Leg {
	return Leg{
		PlayerName: name,
		ModelProb:  modelProb,
		Odds:       odds,
		Implied:    ImpliedProbability(odds),
		Edge:       Edge(modelProb, odds),
	}
}

func (e *SelectionEngine) single(prediction *models.SetPrediction, market *MarketOdds, leg Leg) Selection {
	leg.StakeShare = decimal.NewFromInt(1)
	return Selection{
		Kind:       SelectionSingle,
		MarketID:   market.MarketID,
		MatchID:    prediction.MatchID,
		Legs:       []Leg{leg},
		TotalEdge:  leg.Edge,
		Confidence: prediction.Confidence.String(),
	}
}

func (e *SelectionEngine) dual(prediction *models.SetPrediction, market *MarketOdds, leg1, leg2 Leg) Selection {
	half := decimal.NewFromFloat(0.5)
	leg1.StakeShare = half
	leg2.StakeShare = half
	return Selection{
		Kind:       SelectionDual,
		MarketID:   market.MarketID,
		MatchID:    prediction.MatchID,
		Legs:       []Leg{leg1, leg2},
		TotalEdge:  leg1.Edge.Add(leg2.Edge),
		Confidence: prediction.Confidence.String(),
	}
}

// balanced splits the stake in proportion to each leg's edge
func (e *SelectionEngine) balanced(prediction *models.SetPrediction, market *MarketOdds, leg1, leg2 Leg) Selection {
	total := leg1.Edge.Add(leg2.Edge)
	if total.IsPositive() {
		leg1.StakeShare = leg1.Edge.Div(total).Round(4)
		leg2.StakeShare = decimal.NewFromInt(1).Sub(leg1.StakeShare)
	} else {
		half := decimal.NewFromFloat(0.5)
		leg1.StakeShare = half
		leg2.StakeShare = half
	}
	return Selection{
		Kind:       SelectionBalanced,
		MarketID:   market.MarketID,
		MatchID:    prediction.MatchID,
		Legs:       []Leg{leg1, leg2},
		TotalEdge:  total,
		Confidence: prediction.Confidence.String(),
	}
}

// strongerLeg picks the leg with more edge, nil on an exact tie
func strongerLeg(leg1, leg2 Leg) *Leg {
	switch leg1.Edge.Cmp(leg2.Edge) {
	case 1:
		return &leg1
	case -1:
		return &leg2
	default:
		return nil
	}
}
