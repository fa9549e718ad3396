package models

import (
	"time"

	"github.com/google/uuid"
)

// ConfidenceLevel grades how much trust the pipeline places in a prediction
type ConfidenceLevel int

const (
	ConfidenceLow ConfidenceLevel = iota
	ConfidenceMedium
	ConfidenceHigh
)

// String returns string representation of the confidence level
func (c ConfidenceLevel) String() string {
	switch c {
	case ConfidenceHigh:
		return "HIGH"
	case ConfidenceMedium:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

// ParseConfidenceLevel converts a stored confidence string back to its
// enum value
func ParseConfidenceLevel(s string) ConfidenceLevel {
	switch s {
	case "HIGH":
		return ConfidenceHigh
	case "MEDIUM":
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// FactorContribution is one factor's signed contribution to the score gap.
// Positive favors player 1, negative favors player 2.
type FactorContribution struct {
	Factor string  `json:"factor"`
	Signed float64 `json:"signed"`
	Weight float64 `json:"weight"`
	// Applied is false when the factor was dropped (micro-edge below its
	// threshold or data unavailable).
	Applied bool `json:"applied"`
}

// GameLine is an over probability at one total-games line
type GameLine struct {
	Line     float64 `json:"line"`
	OverProb float64 `json:"over_prob"`
}

// SetPrediction is the full output for one analyzed match
type SetPrediction struct {
	ID              uuid.UUID            `json:"id"`
	MatchID         string               `json:"match_id"`
	Tournament      string               `json:"tournament"`
	Surface         string               `json:"surface"`
	Format          MatchFormat          `json:"format"`
	Player1Name     string               `json:"player1_name"`
	Player2Name     string               `json:"player2_name"`
	PredictedWinner string               `json:"predicted_winner"`
	MatchProb1      float64              `json:"match_prob1"`
	MatchProb2      float64              `json:"match_prob2"`
	SetProb1        float64              `json:"set_prob1"`
	SetProb2        float64              `json:"set_prob2"`
	OverTwoHalfSets float64              `json:"over_two_half_sets"`
	ExpectedGames   float64              `json:"expected_games"`
	GameLines       []GameLine           `json:"game_lines"`
	Confidence      ConfidenceLevel      `json:"confidence"`
	Contributions   []FactorContribution `json:"contributions"`
	RedFlags        []string             `json:"red_flags"`
	Notes           []string             `json:"notes"`
	CreatedAt       time.Time            `json:"created_at"`
}

// WinnerSetProb returns the set probability of the predicted winner
func (p *SetPrediction) WinnerSetProb() float64 {
	if p.PredictedWinner == p.Player2Name {
		return p.SetProb2
	}
	return p.SetProb1
}
