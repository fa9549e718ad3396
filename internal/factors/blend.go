package factors

import (
	"math"

	"github.com/yourusername/set-point/internal/models"
)

// Multi-year blend weights, newest season first.
var (
	twoYearWeights   = []float64{0.70, 0.30}
	threeYearWeights = []float64{0.60, 0.30, 0.10}
)

// lowSampleMatches is the season match count below which a year's blend
// weight is scaled down and redistributed to fuller seasons.
const lowSampleMatches = 5

// BlendYears merges up to three seasons of raw aggregates into one
// comparable stats block. Rates are blended with recency weights; sample
// counts are summed so downstream reliability checks see the full evidence.
func BlendYears(years []models.YearStats) models.YearStats {
	if len(years) == 0 {
		return models.YearStats{}
	}
	if len(years) == 1 {
		return years[0]
	}
	if len(years) > 3 {
		years = years[:3]
	}

	weights := twoYearWeights
	if len(years) == 3 {
		weights = threeYearWeights
	}

	// Scale down weights for thin seasons and renormalize
	adjusted := make([]float64, len(years))
	total := 0.0
	for i, year := range years {
		w := weights[i]
		if year.Matches < lowSampleMatches {
			w *= float64(year.Matches) / float64(lowSampleMatches)
		}
		adjusted[i] = w
		total += w
	}
	if total == 0 {
		return years[0]
	}
	for i := range adjusted {
		adjusted[i] /= total
	}

	blended := models.YearStats{
		Year:     years[0].Year,
		Surfaces: map[string]models.SurfaceRecord{},
	}

	blended.Matches = sumCounts(years, adjusted, func(y models.YearStats) int { return y.Matches })
	blended.Wins = blendPair(years, adjusted,
		func(y models.YearStats) (int, int) { return y.Wins, y.Matches }, blended.Matches)

	totalSets := sumCounts(years, adjusted, func(y models.YearStats) int { return y.SetsWon + y.SetsLost })
	blended.SetsWon = blendPair(years, adjusted,
		func(y models.YearStats) (int, int) { return y.SetsWon, y.SetsWon + y.SetsLost }, totalSets)
	blended.SetsLost = totalSets - blended.SetsWon

	blended.TiebreaksPlayed = sumCounts(years, adjusted, func(y models.YearStats) int { return y.TiebreaksPlayed })
	blended.TiebreaksWon = blendPair(years, adjusted,
		func(y models.YearStats) (int, int) { return y.TiebreaksWon, y.TiebreaksPlayed }, blended.TiebreaksPlayed)

	blended.BreakPointChances = sumCounts(years, adjusted, func(y models.YearStats) int { return y.BreakPointChances })
	blended.BreakPointsConverted = blendPair(years, adjusted,
		func(y models.YearStats) (int, int) { return y.BreakPointsConverted, y.BreakPointChances }, blended.BreakPointChances)

	blended.BreakPointsFaced = sumCounts(years, adjusted, func(y models.YearStats) int { return y.BreakPointsFaced })
	blended.BreakPointsSaved = blendPair(years, adjusted,
		func(y models.YearStats) (int, int) { return y.BreakPointsSaved, y.BreakPointsFaced }, blended.BreakPointsFaced)

	blended.ServePointsPlayed = sumCounts(years, adjusted, func(y models.YearStats) int { return y.ServePointsPlayed })
	blended.FirstServePointsPlayed = sumCounts(years, adjusted, func(y models.YearStats) int { return y.FirstServePointsPlayed })
	blended.FirstServePointsWon = blendPair(years, adjusted,
		func(y models.YearStats) (int, int) { return y.FirstServePointsWon, y.FirstServePointsPlayed }, blended.FirstServePointsPlayed)

	blended.Aces = sumCounts(years, adjusted, func(y models.YearStats) int { return y.Aces })

	blended.ReturnPointsPlayed = sumCounts(years, adjusted, func(y models.YearStats) int { return y.ReturnPointsPlayed })
	blended.ReturnPointsWon = blendPair(years, adjusted,
		func(y models.YearStats) (int, int) { return y.ReturnPointsWon, y.ReturnPointsPlayed }, blended.ReturnPointsPlayed)

	blendSurfaces(&blended, years)

	return blended
}

// sumCounts totals a sample count across seasons, ignoring blend weights:
// evidence accumulates even when a season is downweighted.
func sumCounts(years []models.YearStats, weights []float64, field func(models.YearStats) int) int {
	total := 0
	for i, year := range years {
		if weights[i] > 0 {
			total += field(year)
		}
	}
	return total
}

// blendPair blends a hit rate across seasons with the adjusted weights and
// re-expresses it over the combined sample size.
func blendPair(years []models.YearStats, weights []float64, pair func(models.YearStats) (hits, total int), combinedTotal int) int {
	rate := 0.0
	weightUsed := 0.0
	for i, year := range years {
		hits, total := pair(year)
		if total == 0 {
			continue
		}
		rate += weights[i] * float64(hits) / float64(total)
		weightUsed += weights[i]
	}
	if weightUsed == 0 || combinedTotal == 0 {
		return 0
	}
	rate /= weightUsed
	return int(math.Round(rate * float64(combinedTotal)))
}

// blendSurfaces merges per-surface records under normalized surface names
func blendSurfaces(blended *models.YearStats, years []models.YearStats) {
	for _, year := range years {
		for rawName, record := range year.Surfaces {
			name := models.NormalizeSurface(rawName)
			merged := blended.Surfaces[name]
			merged.Matches += record.Matches
			merged.Wins += record.Wins
			blended.Surfaces[name] = merged
		}
	}
}
