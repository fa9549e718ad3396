package factors

import (
	"math"

	"github.com/yourusername/set-point/internal/config"
	"github.com/yourusername/set-point/internal/models"
)

// Default rates substituted when a stat line is too thin to trust.
const (
	defaultBreakPointConversion = 0.35
	defaultBreakPointSaveRate   = 0.60
	defaultFirstServeWinRate    = 0.65
	defaultReturnPointRate      = 0.25
	neutralRate                 = 0.50
)

// Minimum sample sizes before a stat counts as real evidence.
const (
	minMatches        = 5
	minTiebreaks      = 3
	minBreakPoints    = 10
	minServePoints    = 50
	minFirstServePts  = 20
	acesPerMatchScale = 15.0
)

// recentComprehensiveSplit is the blend between the current season and the
// multi-year comprehensive view in the set-performance factor.
const recentComprehensiveSplit = 0.75

// Engine computes factor readings for a single player
type Engine struct {
	cfg *config.AnalysisConfig
}

// NewEngine creates a factor engine from analysis configuration
func NewEngine(cfg *config.AnalysisConfig) *Engine {
	return &Engine{cfg: cfg}
}

// SetPerformance blends the current season set rate with the multi-year
// rate, both shrunk toward 0.5 by sample size.
func (e *Engine) SetPerformance(current, blended *models.YearStats) Result {
	currentSets := current.SetsWon + current.SetsLost
	blendedSets := blended.SetsWon + blended.SetsLost
	if currentSets == 0 && blendedSets == 0 {
		return insufficient(neutralRate)
	}

	recent := shrink(current.SetRate(), neutralRate, currentSets, e.cfg.ShrinkageFullSample)
	comprehensive := shrink(blended.SetRate(), neutralRate, blendedSets, e.cfg.ShrinkageFullSample)
	if currentSets == 0 {
		recent = comprehensive
	}
	if blendedSets == 0 {
		comprehensive = recent
	}

	value := recentComprehensiveSplit*recent + (1-recentComprehensiveSplit)*comprehensive
	return computed(value, currentSets+blendedSets)
}

// Surface quality tiers, strongest first.
const (
	SurfaceConfidentStrong   = "confident_strong"
	SurfaceConfidentModerate = "confident_moderate"
	SurfaceConfidentMinimal  = "confident_minimal"
	SurfaceFallbackOverall   = "fallback_overall"
	SurfaceNoData            = "no_surface_data"
)

// Surface scores the player's win rate on the match surface. Confidence
// comes from the Wilson interval width over the surface sample; with fewer
// than five surface matches the overall win rate substitutes.
func (e *Engine) Surface(blended *models.YearStats, surface string) Result {
	normalized := models.NormalizeSurface(surface)

	record := models.SurfaceRecord{}
	for _, name := range models.RelatedSurfaces(normalized) {
		if rec, ok := blended.Surfaces[name]; ok {
			record.Matches += rec.Matches
			record.Wins += rec.Wins
		}
	}

	if record.Matches >= minMatches {
		rate := record.WinRate()
		confidence := 1 - wilsonWidth(rate, record.Matches)
		result := computed(rate, record.Matches)
		switch {
		case record.Matches >= 20 && confidence >= 0.6:
			result.Quality = SurfaceConfidentStrong
		case record.Matches >= 10:
			result.Quality = SurfaceConfidentModerate
		default:
			result.Quality = SurfaceConfidentMinimal
		}
		return result
	}

	if blended.Matches >= minMatches {
		result := computed(blended.WinRate(), blended.Matches)
		result.Status = InsufficientData
		result.Quality = SurfaceFallbackOverall
		return result
	}

	result := insufficient(neutralRate)
	result.Quality = SurfaceNoData
	return result
}

// Tiebreak scores tiebreak win rate, downweighted below ten tiebreaks.
// When the player has no tiebreak data at all and a historical fetch
// failed, the reading is unavailable rather than defaulted: a silent 0.5
// would hide a data outage.
func (e *Engine) Tiebreak(blended *models.YearStats, historicalFetchFailed bool) Result {
	if blended.TiebreaksPlayed == 0 {
		if historicalFetchFailed {
			return unavailable()
		}
		return insufficient(neutralRate)
	}

	rate := float64(blended.TiebreaksWon) / float64(blended.TiebreaksPlayed)
	value := shrink(rate, neutralRate, blended.TiebreaksPlayed, 10)
	result := computed(value, blended.TiebreaksPlayed)
	if blended.TiebreaksPlayed < minTiebreaks {
		result.Status = InsufficientData
	}
	return result
}

// Pressure combines break-point conversion (60%) and break-point save rate
// (40%), scaled by stat reliability.
func (e *Engine) Pressure(blended *models.YearStats) Result {
	if blended.BreakPointChances == 0 && blended.BreakPointsFaced == 0 {
		return insufficient(defaultBreakPointConversion*0.6 + defaultBreakPointSaveRate*0.4)
	}

	conversion := ratio(blended.BreakPointsConverted, blended.BreakPointChances, minBreakPoints, defaultBreakPointConversion)
	save := ratio(blended.BreakPointsSaved, blended.BreakPointsFaced, minBreakPoints, defaultBreakPointSaveRate)

	value := conversion*0.6 + save*0.4
	reliability := e.Reliability(blended)
	value = neutralRate + (value-neutralRate)*reliability

	samples := blended.BreakPointChances + blended.BreakPointsFaced
	result := computed(value, samples)
	if samples < minBreakPoints {
		result.Status = InsufficientData
	}
	return result
}

// ServeDominance combines ace production (40%) and first-serve win rate
// (60%), scaled by stat reliability.
func (e *Engine) ServeDominance(blended *models.YearStats) Result {
	if blended.Matches == 0 {
		return insufficient(neutralRate)
	}

	acesPerMatch := float64(blended.Aces) / float64(blended.Matches)
	aceScore := math.Min(acesPerMatch/acesPerMatchScale, 1.0)
	firstServe := ratio(blended.FirstServePointsWon, blended.FirstServePointsPlayed, minFirstServePts, defaultFirstServeWinRate)

	value := aceScore*0.4 + firstServe*0.6
	reliability := e.Reliability(blended)
	value = neutralRate + (value-neutralRate)*reliability

	result := computed(value, blended.FirstServePointsPlayed)
	if blended.FirstServePointsPlayed < minFirstServePts {
		result.Status = InsufficientData
	}
	return result
}

// ReturnOfServe scores return-point win rate shrunk toward the tour
// baseline of 0.25.
func (e *Engine) ReturnOfServe(blended *models.YearStats) Result {
	if blended.ReturnPointsPlayed == 0 {
		return insufficient(defaultReturnPointRate)
	}

	rate := float64(blended.ReturnPointsWon) / float64(blended.ReturnPointsPlayed)
	value := shrink(rate, defaultReturnPointRate, blended.ReturnPointsPlayed, minServePoints)

	result := computed(value, blended.ReturnPointsPlayed)
	if blended.ReturnPointsPlayed < minServePoints {
		result.Status = InsufficientData
	}
	return result
}

// Momentum scores the last three results with recency weights 1/(1+i)
func (e *Engine) Momentum(recent []models.MatchResult) Result {
	if len(recent) == 0 {
		return insufficient(neutralRate)
	}

	considered := recent
	if len(considered) > 3 {
		considered = considered[:3]
	}

	score := 0.0
	weightSum := 0.0
	for i, match := range considered {
		weight := 1.0 / float64(1+i)
		if match.Won {
			score += weight
		}
		weightSum += weight
	}

	result := computed(score/weightSum, len(considered))
	if len(considered) < 3 {
		result.Status = InsufficientData
	}
	return result
}

// Resilience bands recent loss rate into a competitive-resilience score
func (e *Engine) Resilience(recent []models.MatchResult) Result {
	if len(recent) == 0 {
		return insufficient(neutralRate)
	}

	losses := 0
	for _, match := range recent {
		if !match.Won {
			losses++
		}
	}
	lossRate := float64(losses) / float64(len(recent))

	var value float64
	switch {
	case lossRate <= 0.25:
		value = 0.9
	case lossRate <= 0.50:
		value = 0.7
	case lossRate <= 0.75:
		value = 0.5
	default:
		value = 0.3
	}

	result := computed(value, len(recent))
	if len(recent) < minMatches {
		result.Status = InsufficientData
	}
	return result
}

// Reliability scores how much evidence backs a player's stat line, averaging
// sample coverage across matches, tiebreaks, break points and serve points.
func (e *Engine) Reliability(blended *models.YearStats) float64 {
	components := []struct {
		actual int
		needed int
	}{
		{blended.Matches, minMatches},
		{blended.TiebreaksPlayed, minTiebreaks},
		{blended.BreakPointChances + blended.BreakPointsFaced, minBreakPoints},
		{blended.ServePointsPlayed, minServePoints},
	}

	total := 0.0
	for _, c := range components {
		total += math.Min(1.0, float64(c.actual)/float64(c.needed))
	}
	return total / float64(len(components))
}
