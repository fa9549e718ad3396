// Package analysis assembles player profiles and orchestrates the full
// per-match prediction flow.
package analysis

import (
	"github.com/yourusername/set-point/internal/models"
)

// Form score component weights, on the 0-100 scale.
const (
	formWinRateWeight    = 40.0
	formSetRateWeight    = 25.0
	formOppositionWeight = 20.0
	formClutchWeight     = 10.0
	formDominanceWeight  = 5.0
	formUpsetLossPenalty = 9.0
)

// Mental adjustments to the form score by clutch-score band.
const (
	mentalStrongBand    = 0.70
	mentalStrongBonus   = 5.0
	mentalWeakBand      = 0.40
	mentalWeakPenalty   = 12.0
	mentalFragileBand   = 0.30
	mentalFragilePenalty = 20.0
)

// FormScore grades recent results on a 0-100 scale. Components: win rate,
// set rate, quality of beaten opposition, deciding-set record and
// straight-set dominance, with a flat penalty per loss to a lower-ranked
// opponent and a mental adjustment from the clutch score.
func FormScore(playerRanking int, recent []models.MatchResult, clutchScore float64, clutchKnown bool) float64 {
	if len(recent) == 0 {
		return 0
	}

	wins := 0
	setsWon, setsTotal := 0, 0
	oppositionQuality := 0.0
	decidersPlayed, decidersWon := 0, 0
	straightWins := 0
	upsetLosses := 0

	for _, match := range recent {
		setsWon += match.SetsWon
		setsTotal += match.SetsWon + match.SetsLost

		deciding := match.SetsWon+match.SetsLost >= 3 && (match.SetsWon == 2 || match.SetsLost == 2)
		if deciding {
			decidersPlayed++
		}

		if match.Won {
			wins++
			oppositionQuality += winQuality(match.OpponentRanking)
			if deciding {
				decidersWon++
			}
			if match.Straight() {
				straightWins++
			}
		} else if playerRanking > 0 && match.OpponentRanking > playerRanking {
			upsetLosses++
		}
	}

	n := float64(len(recent))
	score := (float64(wins) / n) * formWinRateWeight
	if setsTotal > 0 {
		score += (float64(setsWon) / float64(setsTotal)) * formSetRateWeight
	}
	score += (oppositionQuality / n) * formOppositionWeight
	if decidersPlayed > 0 {
		score += (float64(decidersWon) / float64(decidersPlayed)) * formClutchWeight
	}
	score += (float64(straightWins) / n) * formDominanceWeight
	score -= float64(upsetLosses) * formUpsetLossPenalty

	if clutchKnown {
		switch {
		case clutchScore >= mentalStrongBand:
			score += mentalStrongBonus
		case clutchScore <= mentalFragileBand:
			score -= mentalFragilePenalty
		case clutchScore <= mentalWeakBand:
			score -= mentalWeakPenalty
		}
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// winQuality scores a win by the beaten opponent's ranking
func winQuality(opponentRanking int) float64 {
	switch {
	case opponentRanking <= 0:
		return 0.4
	case opponentRanking <= 100:
		return 1.0
	case opponentRanking <= 300:
		return 0.7
	default:
		return 0.4
	}
}
