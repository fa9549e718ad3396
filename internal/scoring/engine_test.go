package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/set-point/internal/config"
	"github.com/yourusername/set-point/internal/factors"
	"github.com/yourusername/set-point/internal/models"
)

func testConfig() *config.AnalysisConfig {
	return &config.AnalysisConfig{
		Weights:             config.DefaultWeights(),
		YearsBack:           2,
		RecentMatchCount:    10,
		ShrinkageFullSample: 35,
		CloseMatchGap:       0.05,
		CloseMatchAmplifier: 1.5,
	}
}

// flatFactors builds a factor set with every factor computed at the value
func flatFactors(value float64) factors.FactorSet {
	set := factors.FactorSet{}
	for _, name := range factors.AllFactors {
		set[name] = factors.Result{Value: value, Status: factors.Computed, Samples: 50}
	}
	return set
}

func testInput(f1, f2 factors.FactorSet, p1, p2 *models.PlayerProfile) Input {
	if p1 == nil {
		p1 = &models.PlayerProfile{Name: "Player One", Ranking: 20, RecentForm: 60}
	}
	if p2 == nil {
		p2 = &models.PlayerProfile{Name: "Player Two", Ranking: 25, RecentForm: 55}
	}
	return Input{
		Match:    &models.Match{ID: "m1", Tournament: "Rome Masters", Surface: "Clay"},
		Profile1: p1,
		Profile2: p2,
		Factors1: f1,
		Factors2: f2,
	}
}

func TestScoreDeterministic(t *testing.T) {
	e := NewEngine(testConfig())
	in := testInput(flatFactors(0.7), flatFactors(0.5), nil, nil)

	first := e.Score(in)
	second := e.Score(in)
	assert.Equal(t, first, second)
}

func TestScoreStrongerFactorsWin(t *testing.T) {
	e := NewEngine(testConfig())
	in := testInput(flatFactors(0.7), flatFactors(0.5), nil, nil)

	scores := e.Score(in)
	assert.Greater(t, scores.Score1, scores.Score2)
}

func TestMicroEdgesDropped(t *testing.T) {
	e := NewEngine(testConfig())
	// 0.01 everywhere is below every micro-edge threshold
	in := testInput(flatFactors(0.51), flatFactors(0.50), nil, nil)

	scores := e.Score(in)
	assert.Equal(t, 0.0, scores.Score1)
	assert.Equal(t, 0.0, scores.Score2)
	for _, contribution := range scores.Contributions {
		assert.False(t, contribution.Applied, "factor %s should be dropped", contribution.Factor)
	}
}

func TestUnusableFactorDropped(t *testing.T) {
	e := NewEngine(testConfig())
	f1 := flatFactors(0.7)
	f2 := flatFactors(0.5)
	f1[factors.FactorClutch] = factors.Result{Status: factors.Unavailable}

	scores := e.Score(testInput(f1, f2, nil, nil))
	for _, contribution := range scores.Contributions {
		if contribution.Factor == factors.FactorClutch {
			assert.False(t, contribution.Applied)
		}
	}
}

func TestRankingGapBoostRenormalizes(t *testing.T) {
	e := NewEngine(testConfig())
	p1 := &models.PlayerProfile{Name: "Top Seed", Ranking: 5, RecentForm: 60}
	p2 := &models.PlayerProfile{Name: "Qualifier", Ranking: 180, RecentForm: 55}
	in := testInput(flatFactors(0.7), flatFactors(0.5), p1, p2)

	weights := e.adjustedWeights(in)

	// Gap of 175 trips the major boost
	assert.InDelta(t, 0.25, weights[factors.FactorRanking], 1e-9)

	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestRankingGapBelowThresholdKeepsBaseWeights(t *testing.T) {
	e := NewEngine(testConfig())
	in := testInput(flatFactors(0.7), flatFactors(0.5), nil, nil)

	weights := e.adjustedWeights(in)
	assert.InDelta(t, config.DefaultWeights().Ranking, weights[factors.FactorRanking], 1e-9)
}

func TestCloseMatchAmplifiesClutch(t *testing.T) {
	e := NewEngine(testConfig())

	// Identical except a clutch edge just above its threshold; the total
	// gap stays below the close-match gap so the refold triggers
	f1 := flatFactors(0.5)
	f2 := flatFactors(0.5)
	f1[factors.FactorClutch] = factors.Result{Value: 0.56, Status: factors.Computed, Samples: 50}

	scores := e.Score(testInput(f1, f2, nil, nil))

	var clutch models.FactorContribution
	for _, contribution := range scores.Contributions {
		if contribution.Factor == factors.FactorClutch {
			clutch = contribution
		}
	}
	require.True(t, clutch.Applied)
	// Base clutch weight 0.09 amplified by 1.5
	assert.InDelta(t, 0.09*1.5, clutch.Weight, 1e-9)
}

func TestFormGapAmplifier(t *testing.T) {
	assert.Equal(t, 1.0, formAmplifier(10))
	assert.Equal(t, 1.8, formAmplifier(25))
	assert.Equal(t, 2.2, formAmplifier(35))
}

func TestUTROverride(t *testing.T) {
	p1 := &models.PlayerProfile{UTR: 14.5, UTRVerified: true}
	p2 := &models.PlayerProfile{UTR: 12.8, UTRVerified: true}

	bonus, direction := utrOverride(p1, p2)
	assert.Equal(t, 1, direction)
	assert.InDelta(t, 0.08*1.7, bonus, 1e-9)

	// Cap at 0.15
	p2.UTR = 10.0
	bonus, _ = utrOverride(p1, p2)
	assert.Equal(t, 0.15, bonus)
}

func TestUTROverrideRequiresVerification(t *testing.T) {
	p1 := &models.PlayerProfile{UTR: 14.5, UTRVerified: true}
	p2 := &models.PlayerProfile{UTR: 12.0, UTRVerified: false}

	_, direction := utrOverride(p1, p2)
	assert.Equal(t, 0, direction)
}

func TestUTROverrideSmallGapIgnored(t *testing.T) {
	p1 := &models.PlayerProfile{UTR: 13.5, UTRVerified: true}
	p2 := &models.PlayerProfile{UTR: 13.0, UTRVerified: true}

	_, direction := utrOverride(p1, p2)
	assert.Equal(t, 0, direction)
}

func TestHomeAdvantageBonus(t *testing.T) {
	cfg := testConfig()
	cfg.HomeBonusEnabled = true
	cfg.HomeBonus = 0.10
	e := NewEngine(cfg)

	p1 := &models.PlayerProfile{Name: "Local", Ranking: 20, RecentForm: 60, CountryCode: "IT"}
	p2 := &models.PlayerProfile{Name: "Visitor", Ranking: 25, RecentForm: 55, CountryCode: "ES"}
	in := testInput(flatFactors(0.6), flatFactors(0.6), p1, p2)
	in.Match.CountryCode = "IT"

	scores := e.Score(in)
	assert.InDelta(t, 0.10, scores.Score1-scores.Score2, 1e-9)

	found := false
	for _, contribution := range scores.Contributions {
		if contribution.Factor == "home_advantage" {
			found = true
			assert.True(t, contribution.Applied)
		}
	}
	assert.True(t, found)
}
