package analysis

import (
	"math"

	"github.com/yourusername/set-point/internal/models"
)

// h2hRecencyDecay controls how fast older meetings lose influence:
// meeting i (newest first) carries weight 1/(1+decay*i).
const h2hRecencyDecay = 0.5

// HeadToHead summarizes prior meetings between the two players of a match
type HeadToHead struct {
	Meetings        int
	Player1Wins     int
	SurfaceMeetings int
	// RecencyWeightedP1 is player 1's recency-weighted win share
	RecencyWeightedP1 float64
	// ThreeSetRate is the share of meetings that went the distance
	ThreeSetRate float64
	// Confidence grades how predictive this history is (0-1)
	Confidence float64
}

// HasHistory reports whether any meetings exist
func (h *HeadToHead) HasHistory() bool {
	return h.Meetings > 0
}

// AnalyzeHeadToHead computes the head-to-head summary for player 1 against
// player 2. Meetings must be ordered newest first.
func AnalyzeHeadToHead(player1ID string, meetings []models.HeadToHeadMatch, surface string) *HeadToHead {
	h := &HeadToHead{Meetings: len(meetings)}
	if len(meetings) == 0 {
		return h
	}

	normalized := models.NormalizeSurface(surface)

	weightedWins := 0.0
	weightTotal := 0.0
	deciders := 0
	momentum := 0.0

	for i, meeting := range meetings {
		weight := 1.0 / (1.0 + h2hRecencyDecay*float64(i))
		weightTotal += weight

		wonByP1 := meeting.WinnerID == player1ID
		if wonByP1 {
			h.Player1Wins++
			weightedWins += weight
		}
		if i == 0 && wonByP1 {
			momentum = 1.0
		}

		if models.NormalizeSurface(meeting.Surface) == normalized {
			h.SurfaceMeetings++
		}
		if meeting.WinnerSets+meeting.LoserSets >= 3 && meeting.LoserSets >= 1 {
			deciders++
		}
	}

	h.RecencyWeightedP1 = weightedWins / weightTotal
	h.ThreeSetRate = float64(deciders) / float64(len(meetings))

	// Confidence: meeting count 40%, one-sidedness 40%, momentum 20%
	countScore := math.Min(float64(len(meetings))/6.0, 1.0)
	consistency := math.Abs(h.RecencyWeightedP1 - 0.5) * 2
	h.Confidence = countScore*0.4 + consistency*0.4 + momentum*0.2

	return h
}
