package factors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yourusername/set-point/internal/models"
)

func season(year, matches, wins, setsWon, setsLost int) models.YearStats {
	return models.YearStats{
		Year:     year,
		Matches:  matches,
		Wins:     wins,
		SetsWon:  setsWon,
		SetsLost: setsLost,
	}
}

func TestBlendYearsEmpty(t *testing.T) {
	blended := BlendYears(nil)
	assert.Equal(t, 0, blended.Matches)
}

func TestBlendYearsSingleSeasonPassesThrough(t *testing.T) {
	only := season(2026, 30, 20, 45, 25)
	blended := BlendYears([]models.YearStats{only})
	assert.Equal(t, only, blended)
}

func TestBlendYearsSumsSamples(t *testing.T) {
	years := []models.YearStats{
		season(2026, 30, 20, 45, 25),
		season(2025, 40, 22, 50, 40),
	}
	blended := BlendYears(years)

	// Sample counts accumulate so reliability checks see all evidence
	assert.Equal(t, 70, blended.Matches)
	assert.Equal(t, 160, blended.SetsWon+blended.SetsLost)
}

func TestBlendYearsWeightsRecentSeason(t *testing.T) {
	// Strong current season, weak prior season
	years := []models.YearStats{
		season(2026, 30, 27, 60, 15), // 90% win rate
		season(2025, 30, 9, 25, 50),  // 30% win rate
	}
	blended := BlendYears(years)

	// 0.70/0.30 weighting puts the blended rate well above the midpoint
	rate := blended.WinRate()
	assert.Greater(t, rate, 0.60)
	assert.Less(t, rate, 0.90)
}

func TestBlendYearsDownweightsThinSeason(t *testing.T) {
	// Current season has only 2 matches; the fuller prior season should
	// dominate after low-sample weight scaling
	years := []models.YearStats{
		season(2026, 2, 2, 4, 0),    // perfect but tiny
		season(2025, 40, 12, 30, 55), // 30% win rate
	}
	blended := BlendYears(years)

	// Without low-sample scaling the blend would sit at
	// 0.7*1.0 + 0.3*0.3 = 0.79; scaling pulls it well below that
	rate := blended.WinRate()
	assert.Less(t, rate, 0.70, "thin perfect season must not dominate")
	assert.Greater(t, rate, 0.30)
}

func TestBlendYearsThreeSeasons(t *testing.T) {
	years := []models.YearStats{
		season(2026, 20, 12, 30, 20),
		season(2025, 30, 18, 45, 30),
		season(2024, 30, 15, 40, 35),
	}
	blended := BlendYears(years)
	assert.Equal(t, 80, blended.Matches)
	assert.Greater(t, blended.Wins, 0)
}

func TestBlendSurfacesNormalizesNames(t *testing.T) {
	y1 := season(2026, 10, 6, 15, 10)
	y1.Surfaces = map[string]models.SurfaceRecord{
		"red clay": {Matches: 6, Wins: 4},
	}
	y2 := season(2025, 10, 5, 14, 12)
	y2.Surfaces = map[string]models.SurfaceRecord{
		"Clay": {Matches: 8, Wins: 5},
	}

	blended := BlendYears([]models.YearStats{y1, y2})
	record := blended.Surfaces[models.SurfaceClay]
	assert.Equal(t, 14, record.Matches)
	assert.Equal(t, 9, record.Wins)
}
