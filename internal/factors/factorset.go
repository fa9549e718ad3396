package factors

import (
	"math"

	"github.com/yourusername/set-point/internal/models"
)

// Factor name constants, matching the weight table keys.
const (
	FactorSetPerformance = "set_performance"
	FactorRecentForm     = "recent_form"
	FactorMomentum       = "momentum"
	FactorSurface        = "surface"
	FactorClutch         = "clutch"
	FactorPhysical       = "physical"
	FactorRanking        = "ranking"
	FactorReturnOfServe  = "return_of_serve"
)

// AllFactors lists every scored factor in stable order
var AllFactors = []string{
	FactorSetPerformance,
	FactorRecentForm,
	FactorMomentum,
	FactorSurface,
	FactorClutch,
	FactorPhysical,
	FactorRanking,
	FactorReturnOfServe,
}

// FactorSet maps factor names to their readings for one player
type FactorSet map[string]Result

// Compute produces the full factor set for one player on a given surface
func (e *Engine) Compute(profile *models.PlayerProfile, surface string) FactorSet {
	set := FactorSet{}

	set[FactorSetPerformance] = e.SetPerformance(&profile.CurrentYear, &profile.Blended)
	set[FactorSurface] = e.Surface(&profile.Blended, surface)
	set[FactorMomentum] = e.Momentum(profile.RecentMatches)
	set[FactorReturnOfServe] = e.ReturnOfServe(&profile.Blended)
	set[FactorClutch] = e.Clutch(&profile.Blended, profile.HistoricalFetchFailed)
	set[FactorPhysical] = e.Physical(profile.Age)
	set[FactorRanking] = e.RankingScore(profile.Ranking)

	// Recent form is derived upstream from match history; 0-100 scale
	if len(profile.RecentMatches) > 0 || profile.RecentForm > 0 {
		form := computed(profile.RecentForm/100.0, len(profile.RecentMatches))
		if len(profile.RecentMatches) < minMatches {
			form.Status = InsufficientData
		}
		set[FactorRecentForm] = form
	} else {
		set[FactorRecentForm] = insufficient(neutralRate)
	}

	return set
}

// Clutch combines break-point pressure (60%) with tiebreak record (40%).
// A tiebreak reading that is unavailable because of a failed historical
// fetch makes the whole clutch factor unavailable: substituting a default
// there would mask a data outage.
func (e *Engine) Clutch(blended *models.YearStats, historicalFetchFailed bool) Result {
	tiebreak := e.Tiebreak(blended, historicalFetchFailed)
	if tiebreak.Status == Unavailable {
		return unavailable()
	}
	pressure := e.Pressure(blended)

	value := pressure.Value*0.6 + tiebreak.Value*0.4
	result := computed(value, pressure.Samples+tiebreak.Samples)
	if pressure.Status == InsufficientData && tiebreak.Status == InsufficientData {
		result.Status = InsufficientData
	}
	return result
}

// Physical bands player age into a physical-capacity score. Peak years
// are 24-29.
func (e *Engine) Physical(age int) Result {
	if age <= 0 {
		return insufficient(neutralRate)
	}
	var value float64
	switch {
	case age < 21:
		value = 0.55
	case age < 24:
		value = 0.65
	case age <= 29:
		value = 0.70
	case age <= 32:
		value = 0.60
	default:
		value = 0.45
	}
	return computed(value, 1)
}

// RankingScore converts a world ranking into a 0-1 score on a log scale;
// rank 1 maps to 1.0 and rank 1000 to 0.
func (e *Engine) RankingScore(ranking int) Result {
	if ranking <= 0 {
		return insufficient(neutralRate)
	}
	value := clamp(1.0-math.Log10(float64(ranking))/3.0, 0, 1)
	return computed(value, 1)
}
