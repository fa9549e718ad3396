package risk

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/set-point/internal/config"
	"github.com/yourusername/set-point/internal/factors"
	"github.com/yourusername/set-point/internal/models"
	"github.com/yourusername/set-point/internal/probability"
	"github.com/yourusername/set-point/internal/scoring"
)

func testRiskConfig() *config.RiskConfig {
	return &config.RiskConfig{
		Tier1MinCurrentMatches: 3,
		Tier2MinBlendedMatches: 5,
		PoorWinRateCutoff:      0.30,
		PoorWinRateMinMatches:  4,
		WeakOppositionRanking:  300,
		VoidOppositionRanking:  500,
		CoinFlipThreshold:      0.05,
		CoinFlipSkipEnabled:    true,
		CrowdMinVotes:          500,
		CrowdMinMatchSample:    15,
		CrowdMinSetSample:      25,
		CrowdDisagreementWarn:  0.30,
		CrowdDisagreementSkip:  0.65,
		TerribleFormCutoff:     30,
		TerribleFormCap:        0.55,
		BagelCap:               0.60,
		BagelConfidenceFloor:   0.65,
		UpsetCap:               0.58,
		UpsetOpponentTop:       50,
		UpsetRankingGap:        50,
		UpsetMinFactorBacks:    3,
		FormContradictionGap:   30,
	}
}

func testPipeline(cfg *config.RiskConfig) *Pipeline {
	converter := probability.NewConverter(&config.ProbabilityConfig{
		MinMatchProb:       0.05,
		MaxMatchProb:       0.90,
		MatchProbFloor:     0.10,
		MatchProbCeil:      0.95,
		HardCeiling:        0.73,
		QualityCapPerFlag:  0.05,
		QualityCapCompound: 0.10,
		QualityCapMax:      0.30,
		QualityCapFlagMin:  2,
		BO3Floor:           0.35,
		BO3Ceil:            0.95,
		BO5Floor:           0.45,
		BO5Ceil:            0.98,
	})
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewPipeline(cfg, converter, logger)
}

// healthyProfile passes every sample tier and opposition gate
func healthyProfile(name string, ranking int, utr, form float64) *models.PlayerProfile {
	return &models.PlayerProfile{
		Name:        name,
		Ranking:     ranking,
		UTR:         utr,
		UTRVerified: true,
		RecentForm:  form,
		CurrentYear: models.YearStats{Matches: 20, Wins: 12, SetsWon: 28, SetsLost: 18, ServePointsPlayed: 1200},
		Blended:     models.YearStats{Matches: 45, Wins: 26, SetsWon: 58, SetsLost: 44, ServePointsPlayed: 2600},
		RecentMatches: []models.MatchResult{
			{Won: true, SetsWon: 2, SetsLost: 0, OpponentRanking: 40},
			{Won: true, SetsWon: 2, SetsLost: 1, OpponentRanking: 85},
			{Won: false, SetsWon: 1, SetsLost: 2, OpponentRanking: 22},
			{Won: true, SetsWon: 2, SetsLost: 0, OpponentRanking: 130},
			{Won: false, SetsWon: 0, SetsLost: 2, OpponentRanking: 60},
		},
	}
}

func computedFactors(value float64) factors.FactorSet {
	set := factors.FactorSet{}
	for _, name := range factors.AllFactors {
		set[name] = factors.Result{Value: value, Status: factors.Computed, Samples: 40}
	}
	return set
}

func baseInput() Input {
	return Input{
		Match:      &models.Match{ID: "m1", Tournament: "Lyon Open", Surface: "Clay"},
		Profile1:   healthyProfile("Player One", 18, 14.0, 65),
		Profile2:   healthyProfile("Player Two", 35, 13.2, 50),
		Factors1:   computedFactors(0.6),
		Factors2:   computedFactors(0.5),
		Scores:     scoring.Scores{Score1: 0.60, Score2: 0.40},
		MatchProb1: 0.65,
		MatchProb2: 0.35,
		SetProb1:   0.68,
		SetProb2:   0.55,
	}
}

func TestEvaluateHealthyInputPredicts(t *testing.T) {
	p := testPipeline(testRiskConfig())
	d := p.Evaluate(baseInput())

	require.False(t, d.Skip)
	assert.Equal(t, "Player One", d.PredictedWinner)
	assert.Equal(t, models.ConfidenceHigh, d.Confidence)
	assert.Greater(t, d.SetProb1, d.SetProb2)
}

func TestTier0NoStatistics(t *testing.T) {
	p := testPipeline(testRiskConfig())
	in := baseInput()
	in.Profile2.Blended = models.YearStats{}

	d := p.Evaluate(in)
	require.True(t, d.Skip)
	assert.Equal(t, models.SkipTier0, d.SkipReason)
}

func TestTier1ThinCurrentSeason(t *testing.T) {
	p := testPipeline(testRiskConfig())
	in := baseInput()
	in.Profile1.CurrentYear.Matches = 2

	d := p.Evaluate(in)
	require.True(t, d.Skip)
	assert.Equal(t, models.SkipTier1, d.SkipReason)
}

func TestTier2ThinBlendedSample(t *testing.T) {
	p := testPipeline(testRiskConfig())
	in := baseInput()
	in.Profile1.Blended.Matches = 4

	d := p.Evaluate(in)
	require.True(t, d.Skip)
	assert.Equal(t, models.SkipTier2, d.SkipReason)
}

func TestTier3NoServeOrRecentData(t *testing.T) {
	p := testPipeline(testRiskConfig())
	in := baseInput()
	in.Profile2.Blended.ServePointsPlayed = 0
	in.Profile2.RecentMatches = nil

	d := p.Evaluate(in)
	require.True(t, d.Skip)
	assert.Equal(t, models.SkipTier3, d.SkipReason)
}

func TestPoorCurrentYearWinRateSkips(t *testing.T) {
	p := testPipeline(testRiskConfig())
	in := baseInput()
	// The favorite has one win in ten current-season matches
	in.Profile1.CurrentYear.Matches = 10
	in.Profile1.CurrentYear.Wins = 1

	d := p.Evaluate(in)
	require.True(t, d.Skip)
	assert.Equal(t, models.SkipTier2, d.SkipReason)
	assert.Contains(t, d.SkipDetail, "won 1 of 10")
}

func TestPoorWinRateNeedsMinimumSample(t *testing.T) {
	p := testPipeline(testRiskConfig())
	in := baseInput()
	// One win in three matches is thin, not damning; the tier-1 gate owns
	// minimum sample sizes
	in.Profile1.CurrentYear.Matches = 3
	in.Profile1.CurrentYear.Wins = 1

	d := p.Evaluate(in)
	require.False(t, d.Skip)
}

func TestClutchUnavailableSkips(t *testing.T) {
	p := testPipeline(testRiskConfig())
	in := baseInput()
	f2 := computedFactors(0.5)
	f2[factors.FactorClutch] = factors.Result{Status: factors.Unavailable}
	in.Factors2 = f2

	d := p.Evaluate(in)
	require.True(t, d.Skip)
	assert.Equal(t, models.SkipDataQuality, d.SkipReason)
	assert.Contains(t, d.SkipDetail, "tiebreak data unavailable")
}

func TestVoidOppositionSkips(t *testing.T) {
	p := testPipeline(testRiskConfig())
	in := baseInput()
	// Neither player has taken a set off a ranked opponent recently
	in.Profile1.RecentMatches = []models.MatchResult{
		{Won: false, SetsWon: 0, SetsLost: 2, OpponentRanking: 60},
		{Won: false, SetsWon: 0, SetsLost: 2, OpponentRanking: 140},
		{Won: true, SetsWon: 2, SetsLost: 0, OpponentRanking: 620},
	}
	in.Profile2.RecentMatches = []models.MatchResult{
		{Won: false, SetsWon: 0, SetsLost: 2, OpponentRanking: 95},
		{Won: false, SetsWon: 0, SetsLost: 2, OpponentRanking: 210},
	}

	d := p.Evaluate(in)
	require.True(t, d.Skip)
	assert.Equal(t, models.SkipDataQuality, d.SkipReason)
	assert.Contains(t, d.SkipDetail, "neither player")
}

func TestInflatedWinRateSkipsFavorite(t *testing.T) {
	p := testPipeline(testRiskConfig())
	in := baseInput()
	// The favorite's winning record was compiled against a weak schedule
	in.Profile1.RecentMatches = []models.MatchResult{
		{Won: true, SetsWon: 2, SetsLost: 0, OpponentRanking: 350},
		{Won: true, SetsWon: 2, SetsLost: 0, OpponentRanking: 420},
		{Won: true, SetsWon: 2, SetsLost: 1, OpponentRanking: 310},
	}

	d := p.Evaluate(in)
	require.True(t, d.Skip)
	assert.Equal(t, models.SkipDataQuality, d.SkipReason)
	assert.Contains(t, d.SkipDetail, "weak opposition")
}

func TestWeakOppositionOnlyFlagsUnderdog(t *testing.T) {
	p := testPipeline(testRiskConfig())
	in := baseInput()
	// Weak schedule on the underdog stays a red flag, not a skip
	in.Profile2.RecentMatches = []models.MatchResult{
		{Won: true, SetsWon: 2, SetsLost: 0, OpponentRanking: 350},
		{Won: true, SetsWon: 2, SetsLost: 0, OpponentRanking: 420},
		{Won: true, SetsWon: 2, SetsLost: 1, OpponentRanking: 310},
	}

	d := p.Evaluate(in)
	require.False(t, d.Skip)
	assert.Contains(t, d.RedFlags, "Player Two: weak recent opposition")
}

func TestCoinFlipSkip(t *testing.T) {
	p := testPipeline(testRiskConfig())
	in := baseInput()
	in.Scores = scoring.Scores{Score1: 0.51, Score2: 0.49}
	in.MatchProb1, in.MatchProb2 = 0.52, 0.48

	d := p.Evaluate(in)
	require.True(t, d.Skip)
	assert.Equal(t, models.SkipCoinFlip, d.SkipReason)
}

func TestCoinFlipForcedLowWhenSkipDisabled(t *testing.T) {
	cfg := testRiskConfig()
	cfg.CoinFlipSkipEnabled = false
	p := testPipeline(cfg)

	in := baseInput()
	in.Scores = scoring.Scores{Score1: 0.51, Score2: 0.49}
	in.MatchProb1, in.MatchProb2 = 0.52, 0.48

	d := p.Evaluate(in)
	require.False(t, d.Skip)
	assert.Equal(t, models.ConfidenceLow, d.Confidence)
	assert.NotEmpty(t, d.Notes)
}

func TestConflictingSignalsSkip(t *testing.T) {
	cfg := testRiskConfig()
	cfg.ConflictingSignalsSkipEnabled = true
	p := testPipeline(cfg)

	in := baseInput()
	// Model favors player one, but ranking and UTR both favor player two
	in.Profile1.Ranking = 60
	in.Profile1.UTR = 12.0
	in.Profile2.Ranking = 8
	in.Profile2.UTR = 14.5
	in.Profile1.RecentForm = 65
	in.Profile2.RecentForm = 50

	d := p.Evaluate(in)
	require.True(t, d.Skip)
	assert.Equal(t, models.SkipConflictingSignals, d.SkipReason)
}

func TestConflictingSignalsForceLowWhenSkipDisabled(t *testing.T) {
	p := testPipeline(testRiskConfig())
	in := baseInput()
	in.Profile1.Ranking = 60
	in.Profile1.UTR = 12.0
	in.Profile2.Ranking = 8
	in.Profile2.UTR = 14.5
	in.Profile1.RecentForm = 65
	in.Profile2.RecentForm = 50

	d := p.Evaluate(in)
	require.False(t, d.Skip)
	assert.Equal(t, models.ConfidenceLow, d.Confidence)
	assert.Contains(t, d.RedFlags, "conflicting skill signals")
}

func TestCrowdHeavyDisagreementSkips(t *testing.T) {
	p := testPipeline(testRiskConfig())
	in := baseInput()
	// 70% of 1000 votes against the model favorite
	in.Votes = &models.CrowdVotes{Player1Votes: 300, Player2Votes: 700}

	d := p.Evaluate(in)
	require.True(t, d.Skip)
	assert.Equal(t, models.SkipCrowdConflict, d.SkipReason)
}

func TestCrowdModerateDisagreementReducesFavorite(t *testing.T) {
	p := testPipeline(testRiskConfig())
	in := baseInput()
	// 45% disagreement sits between warn and skip
	in.Votes = &models.CrowdVotes{Player1Votes: 550, Player2Votes: 450}

	d := p.Evaluate(in)
	require.False(t, d.Skip)
	assert.Less(t, d.MatchProb1, 0.65)
	assert.Greater(t, d.MatchProb1, 0.5)
	assert.NotEmpty(t, d.Notes)
}

func TestCrowdAgreementBoostsFavorite(t *testing.T) {
	p := testPipeline(testRiskConfig())
	in := baseInput()
	in.Votes = &models.CrowdVotes{Player1Votes: 850, Player2Votes: 150}

	d := p.Evaluate(in)
	require.False(t, d.Skip)
	// 10% of the 0.15 edge
	assert.InDelta(t, 0.665, d.MatchProb1, 1e-9)
}

func TestCrowdBelowMinimumVotesIgnored(t *testing.T) {
	p := testPipeline(testRiskConfig())
	in := baseInput()
	// Heavy disagreement, but only 100 votes total
	in.Votes = &models.CrowdVotes{Player1Votes: 20, Player2Votes: 80}

	d := p.Evaluate(in)
	require.False(t, d.Skip)
	assert.InDelta(t, 0.65, d.MatchProb1, 1e-9)
}

func TestCrowdIgnoredBelowSetSample(t *testing.T) {
	p := testPipeline(testRiskConfig())
	in := baseInput()
	// Heavy disagreement at full vote volume, but player two's set sample
	// is too thin for the crowd signal to mean anything
	in.Votes = &models.CrowdVotes{Player1Votes: 300, Player2Votes: 700}
	in.Profile2.Blended.SetsWon = 10
	in.Profile2.Blended.SetsLost = 8

	d := p.Evaluate(in)
	require.False(t, d.Skip)
	assert.InDelta(t, 0.65, d.MatchProb1, 1e-9)
}

func TestCrowdIgnoredBelowMatchSample(t *testing.T) {
	cfg := testRiskConfig()
	// Blended sample below the match threshold but above the tier-2 floor
	cfg.Tier2MinBlendedMatches = 5
	cfg.CrowdMinMatchSample = 15
	p := testPipeline(cfg)

	in := baseInput()
	in.Votes = &models.CrowdVotes{Player1Votes: 300, Player2Votes: 700}
	in.Profile1.Blended.Matches = 12

	d := p.Evaluate(in)
	require.False(t, d.Skip)
	assert.InDelta(t, 0.65, d.MatchProb1, 1e-9)
}

func TestTerribleFormCapsFavorite(t *testing.T) {
	p := testPipeline(testRiskConfig())
	in := baseInput()
	in.Profile1.RecentForm = 20
	in.Profile2.RecentForm = 25

	d := p.Evaluate(in)
	require.False(t, d.Skip)
	assert.InDelta(t, 0.55, d.MatchProb1, 1e-9)
	assert.NotEmpty(t, d.RedFlags)
}

func TestBagelProtectionCapsFlaggedFavorite(t *testing.T) {
	p := testPipeline(testRiskConfig())
	in := baseInput()
	in.Profile1.QualityFlags = []models.DataQualityFlag{
		models.FlagLowSampleSize, models.FlagNoSurfaceData,
	}
	in.MatchProb1, in.MatchProb2 = 0.70, 0.30

	d := p.Evaluate(in)
	require.False(t, d.Skip)
	assert.InDelta(t, 0.60, d.MatchProb1, 1e-9)
}

func TestUpsetProtectionCapsUnsupportedPick(t *testing.T) {
	p := testPipeline(testRiskConfig())
	in := baseInput()
	// Backing a player ranked 90 places below a top-50 opponent with only
	// two applied factors in support
	in.Profile1.Ranking = 120
	in.Profile2.Ranking = 30
	in.MatchProb1, in.MatchProb2 = 0.66, 0.34
	in.Scores.Contributions = []models.FactorContribution{
		{Factor: "set_performance", Signed: 0.10, Applied: true},
		{Factor: "surface", Signed: 0.08, Applied: true},
		{Factor: "clutch", Signed: -0.05, Applied: true},
		{Factor: "momentum", Signed: 0.20, Applied: false},
	}

	d := p.Evaluate(in)
	require.False(t, d.Skip)
	assert.InDelta(t, 0.58, d.MatchProb1, 1e-9)
}

func TestMentalDifferentialShiftsProbability(t *testing.T) {
	cfg := testRiskConfig()
	cfg.MentalEnabled = true
	p := testPipeline(cfg)

	in := baseInput()
	f1 := computedFactors(0.6)
	f1[factors.FactorClutch] = factors.Result{Value: 0.75, Status: factors.Computed, Samples: 40}
	f2 := computedFactors(0.5)
	f2[factors.FactorClutch] = factors.Result{Value: 0.50, Status: factors.Computed, Samples: 40}
	in.Factors1, in.Factors2 = f1, f2

	d := p.Evaluate(in)
	require.False(t, d.Skip)
	// Gap 0.25 falls in the 0.15 band; shift scales with p1*p2
	assert.InDelta(t, 0.65+0.15*0.65*0.35, d.MatchProb1, 1e-9)
	assert.InDelta(t, 1.0, d.MatchProb1+d.MatchProb2, 1e-9)
}

func TestConsistencyGuardFollowsSetProbabilities(t *testing.T) {
	p := testPipeline(testRiskConfig())
	in := baseInput()
	in.Profile1.Ranking = 35
	in.Profile2.Ranking = 18
	in.Profile1.UTR = 13.2
	in.Profile2.UTR = 14.0
	in.Scores = scoring.Scores{Score1: 0.40, Score2: 0.60}
	in.MatchProb1, in.MatchProb2 = 0.35, 0.65
	in.SetProb1, in.SetProb2 = 0.55, 0.68

	d := p.Evaluate(in)
	require.False(t, d.Skip)
	assert.Equal(t, "Player Two", d.PredictedWinner)
}

func TestFormContradictionOverride(t *testing.T) {
	p := testPipeline(testRiskConfig())
	in := baseInput()
	// Player two leads form by 35 points with ranking and UTR agreement,
	// against a marginal model edge for player one
	in.Profile1.Ranking = 40
	in.Profile1.UTR = 12.5
	in.Profile1.RecentForm = 40
	in.Profile2.Ranking = 12
	in.Profile2.UTR = 14.2
	in.Profile2.RecentForm = 75
	in.Scores = scoring.Scores{Score1: 0.53, Score2: 0.47}
	in.MatchProb1, in.MatchProb2 = 0.56, 0.44

	d := p.Evaluate(in)
	require.False(t, d.Skip)
	assert.Equal(t, "Player Two", d.PredictedWinner)
	assert.Equal(t, models.ConfidenceLow, d.Confidence)
	assert.Contains(t, d.Notes, "form-contradiction override applied")
}

func TestGradeConfidence(t *testing.T) {
	p := testPipeline(testRiskConfig())

	high := &Decision{MatchProb1: 0.70, MatchProb2: 0.30}
	assert.Equal(t, models.ConfidenceHigh, p.gradeConfidence(high, false))

	flagged := &Decision{MatchProb1: 0.70, MatchProb2: 0.30, RedFlags: []string{"weak opposition"}}
	assert.Equal(t, models.ConfidenceMedium, p.gradeConfidence(flagged, false))

	narrow := &Decision{MatchProb1: 0.52, MatchProb2: 0.48}
	assert.Equal(t, models.ConfidenceLow, p.gradeConfidence(narrow, false))

	assert.Equal(t, models.ConfidenceLow, p.gradeConfidence(high, true))
}
