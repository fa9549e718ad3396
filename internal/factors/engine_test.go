package factors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/set-point/internal/config"
	"github.com/yourusername/set-point/internal/models"
)

func testEngine() *Engine {
	return NewEngine(&config.AnalysisConfig{
		Weights:             config.DefaultWeights(),
		YearsBack:           2,
		RecentMatchCount:    10,
		ShrinkageFullSample: 35,
		CloseMatchGap:       0.05,
		CloseMatchAmplifier: 1.5,
	})
}

func fullStats() models.YearStats {
	return models.YearStats{
		Year:                   2026,
		Matches:                40,
		Wins:                   28,
		SetsWon:                60,
		SetsLost:               30,
		TiebreaksPlayed:        12,
		TiebreaksWon:           8,
		BreakPointChances:      90,
		BreakPointsConverted:   38,
		BreakPointsFaced:       80,
		BreakPointsSaved:       52,
		ServePointsPlayed:      2400,
		FirstServePointsPlayed: 1500,
		FirstServePointsWon:    1100,
		Aces:                   280,
		ReturnPointsPlayed:     2200,
		ReturnPointsWon:        820,
		Surfaces: map[string]models.SurfaceRecord{
			models.SurfaceClay: {Matches: 25, Wins: 19},
			models.SurfaceHard: {Matches: 15, Wins: 9},
		},
	}
}

func TestShrinkFullSamplePassesThrough(t *testing.T) {
	assert.Equal(t, 0.8, shrink(0.8, 0.5, 35, 35))
	assert.Equal(t, 0.8, shrink(0.8, 0.5, 50, 35))
}

func TestShrinkZeroSamplesReturnsPrior(t *testing.T) {
	assert.Equal(t, 0.5, shrink(0.8, 0.5, 0, 35))
}

func TestShrinkInterpolates(t *testing.T) {
	// Halfway to full sample sits halfway between observed and prior
	got := shrink(0.8, 0.5, 7, 14)
	assert.InDelta(t, 0.65, got, 1e-9)
}

func TestWilsonWidthShrinksWithSamples(t *testing.T) {
	wide := wilsonWidth(0.6, 5)
	narrow := wilsonWidth(0.6, 100)
	assert.Greater(t, wide, narrow)
	assert.Equal(t, 1.0, wilsonWidth(0.6, 0))
}

func TestSetPerformanceBlendsRecentAndComprehensive(t *testing.T) {
	e := testEngine()
	current := models.YearStats{SetsWon: 30, SetsLost: 10, Matches: 20}
	blended := models.YearStats{SetsWon: 50, SetsLost: 50, Matches: 50}

	result := e.SetPerformance(&current, &blended)
	require.Equal(t, Computed, result.Status)
	// 75% weight on the stronger current season keeps the value above the
	// comprehensive rate
	assert.Greater(t, result.Value, 0.5)
	assert.Less(t, result.Value, 0.75)
}

func TestSetPerformanceNoDataInsufficient(t *testing.T) {
	e := testEngine()
	empty := models.YearStats{}
	result := e.SetPerformance(&empty, &empty)
	assert.Equal(t, InsufficientData, result.Status)
	assert.Equal(t, 0.5, result.Value)
}

func TestSurfaceQualityTiers(t *testing.T) {
	e := testEngine()

	strong := fullStats()
	result := e.Surface(&strong, models.SurfaceClay)
	assert.Equal(t, SurfaceConfidentStrong, result.Quality)
	assert.InDelta(t, 19.0/25.0, result.Value, 1e-9)

	moderate := fullStats()
	moderate.Surfaces = map[string]models.SurfaceRecord{
		models.SurfaceClay: {Matches: 12, Wins: 7},
	}
	result = e.Surface(&moderate, models.SurfaceClay)
	assert.Equal(t, SurfaceConfidentModerate, result.Quality)

	minimal := fullStats()
	minimal.Surfaces = map[string]models.SurfaceRecord{
		models.SurfaceClay: {Matches: 6, Wins: 4},
	}
	result = e.Surface(&minimal, models.SurfaceClay)
	assert.Equal(t, SurfaceConfidentMinimal, result.Quality)
}

func TestSurfaceFallsBackToOverall(t *testing.T) {
	e := testEngine()
	stats := fullStats()
	stats.Surfaces = map[string]models.SurfaceRecord{
		models.SurfaceClay: {Matches: 2, Wins: 2},
	}

	result := e.Surface(&stats, models.SurfaceGrass)
	assert.Equal(t, SurfaceFallbackOverall, result.Quality)
	assert.Equal(t, InsufficientData, result.Status)
	assert.InDelta(t, stats.WinRate(), result.Value, 1e-9)
}

func TestSurfaceHardcourtVariantsMerge(t *testing.T) {
	e := testEngine()
	stats := fullStats()
	stats.Surfaces = map[string]models.SurfaceRecord{
		models.SurfaceHardcourtIndoor: {Matches: 4, Wins: 3},
		models.SurfaceHard:            {Matches: 6, Wins: 4},
	}

	// Indoor hardcourt counts generic hard records as related evidence
	result := e.Surface(&stats, models.SurfaceHardcourtIndoor)
	require.Equal(t, Computed, result.Status)
	assert.Equal(t, 10, result.Samples)
	assert.InDelta(t, 0.7, result.Value, 1e-9)
}

func TestTiebreakUnavailableOnFailedHistoricalFetch(t *testing.T) {
	e := testEngine()
	stats := models.YearStats{}

	result := e.Tiebreak(&stats, true)
	assert.Equal(t, Unavailable, result.Status)
	assert.False(t, result.Usable())

	// Same empty stats without a fetch failure default to neutral
	result = e.Tiebreak(&stats, false)
	assert.Equal(t, InsufficientData, result.Status)
	assert.Equal(t, 0.5, result.Value)
}

func TestClutchPropagatesUnavailableTiebreak(t *testing.T) {
	e := testEngine()
	stats := fullStats()
	stats.TiebreaksPlayed = 0
	stats.TiebreaksWon = 0

	result := e.Clutch(&stats, true)
	assert.Equal(t, Unavailable, result.Status)
}

func TestMomentumWeightsRecentResults(t *testing.T) {
	e := testEngine()

	// Newest win counts more than two older losses
	winFirst := []models.MatchResult{{Won: true}, {Won: false}, {Won: false}}
	lossFirst := []models.MatchResult{{Won: false}, {Won: true}, {Won: true}}

	a := e.Momentum(winFirst)
	b := e.Momentum(lossFirst)
	require.Equal(t, Computed, a.Status)
	assert.Greater(t, a.Value, 0.5)
	assert.Greater(t, a.Value, b.Value)
	assert.InDelta(t, 1.0/(1.0+0.5+1.0/3.0), a.Value, 1e-9)
}

func TestResilienceBands(t *testing.T) {
	e := testEngine()

	wins := make([]models.MatchResult, 10)
	for i := range wins {
		wins[i] = models.MatchResult{Won: true}
	}
	assert.Equal(t, 0.9, e.Resilience(wins).Value)

	losses := make([]models.MatchResult, 10)
	for i := range losses {
		losses[i] = models.MatchResult{Won: false}
	}
	assert.Equal(t, 0.3, e.Resilience(losses).Value)
}

func TestRankingScoreLogScale(t *testing.T) {
	e := testEngine()
	assert.InDelta(t, 1.0, e.RankingScore(1).Value, 1e-9)
	assert.InDelta(t, 0.0, e.RankingScore(1000).Value, 1e-9)
	assert.Greater(t, e.RankingScore(10).Value, e.RankingScore(100).Value)
	assert.Equal(t, InsufficientData, e.RankingScore(0).Status)
}

func TestPhysicalAgeBands(t *testing.T) {
	e := testEngine()
	assert.Equal(t, 0.70, e.Physical(26).Value)
	assert.Equal(t, 0.45, e.Physical(36).Value)
	assert.Equal(t, InsufficientData, e.Physical(0).Status)
}

func TestComputeProducesEveryFactor(t *testing.T) {
	e := testEngine()
	profile := &models.PlayerProfile{
		Age:         25,
		Ranking:     12,
		RecentForm:  70,
		CurrentYear: fullStats(),
		Blended:     fullStats(),
		RecentMatches: []models.MatchResult{
			{Won: true}, {Won: true}, {Won: false}, {Won: true}, {Won: true},
		},
	}

	set := e.Compute(profile, models.SurfaceClay)
	for _, name := range AllFactors {
		_, ok := set[name]
		assert.True(t, ok, "missing factor %s", name)
	}
	assert.InDelta(t, 0.70, set[FactorRecentForm].Value, 1e-9)
}
