package probability

import (
	"math"

	"github.com/yourusername/set-point/internal/models"
)

// Average total games by outcome shape, best-of-three baseline.
const (
	avgGamesStraightSets = 21.5
	avgGamesThreeSets    = 32.0
	avgGamesBO5Scale     = 1.55
	gamesStdDev          = 5.5
)

// Blend split between the theoretical three-set rate and the head-to-head
// empirical rate.
const theoryEmpiricalSplit = 0.5

// OverTwoHalfSets estimates the probability the match goes the distance
// past 2.5 sets. The theoretical rate derives from the favorite's implied
// per-set strength; when head-to-head history exists its observed
// deciding-set rate is blended in 50/50.
func (c *Converter) OverTwoHalfSets(matchProb float64, empiricalThreeSetRate float64, hasEmpirical bool) float64 {
	favorite := math.Max(matchProb, 1-matchProb)

	// Per-set strength grows slower than match probability
	perSet := 0.5 + (favorite-0.5)*0.6
	theory := 2 * perSet * (1 - perSet)
	// A deciding set requires a split of the first two
	theory = clamp(theory*1.15, 0.05, 0.75)

	if !hasEmpirical {
		return theory
	}
	return clamp(theoryEmpiricalSplit*theory+(1-theoryEmpiricalSplit)*empiricalThreeSetRate, 0.05, 0.85)
}

// GamesInput carries the modifiers for expected total games
type GamesInput struct {
	MatchProb       float64
	Format          models.MatchFormat
	OverTwoHalfSets float64
	// ServeDominanceAvg is the mean of both players' serve-dominance factor
	// values; strong servers hold more and stretch sets.
	ServeDominanceAvg float64
	Surface           string
}

// ExpectedGames estimates the expected total games and over probabilities
// at the standard bookmaker lines.
func (c *Converter) ExpectedGames(in GamesInput) (float64, []models.GameLine) {
	straight := 1 - in.OverTwoHalfSets
	expected := straight*avgGamesStraightSets + in.OverTwoHalfSets*avgGamesThreeSets
	if in.Format == models.BestOfFive {
		expected *= avgGamesBO5Scale
	}

	expected *= serveMultiplier(in.ServeDominanceAvg)
	expected *= surfaceMultiplier(in.Surface)

	lines := standardLines(in.Format)
	gameLines := make([]models.GameLine, 0, len(lines))
	for _, line := range lines {
		gameLines = append(gameLines, models.GameLine{
			Line:     line,
			OverProb: overProbability(expected, line),
		})
	}

	return expected, gameLines
}

// serveMultiplier stretches expected games when both players hold easily
func serveMultiplier(serveDominanceAvg float64) float64 {
	switch {
	case serveDominanceAvg >= 0.65:
		return 1.05
	case serveDominanceAvg >= 0.55:
		return 1.02
	case serveDominanceAvg > 0 && serveDominanceAvg <= 0.40:
		return 0.97
	default:
		return 1.0
	}
}

// surfaceMultiplier reflects that grass protects serve and clay breaks it
func surfaceMultiplier(surface string) float64 {
	switch models.NormalizeSurface(surface) {
	case models.SurfaceGrass:
		return 1.03
	case models.SurfaceClay:
		return 0.98
	case models.SurfaceHardcourtIndoor:
		return 1.02
	default:
		return 1.0
	}
}

// standardLines returns the bookmaker total-games lines for a format
func standardLines(format models.MatchFormat) []float64 {
	if format == models.BestOfFive {
		return []float64{35.5, 38.5, 41.5}
	}
	return []float64{20.5, 22.5, 24.5}
}

// overProbability is a normal approximation of P(total games > line)
func overProbability(expected, line float64) float64 {
	z := (line - expected) / gamesStdDev
	// P(X > line) = 1 - Phi(z)
	p := 0.5 * (1 - math.Erf(z/math.Sqrt2))
	return clamp(p, 0.01, 0.99)
}
