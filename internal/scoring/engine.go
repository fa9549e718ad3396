// Package scoring folds per-player factor readings into a weighted score
// pair with a full contribution breakdown.
package scoring

import (
	"math"

	"github.com/yourusername/set-point/internal/config"
	"github.com/yourusername/set-point/internal/factors"
	"github.com/yourusername/set-point/internal/models"
)

// Ranking-gap weight boosts. A gap this large makes ranking the dominant
// signal regardless of the base weight table.
const (
	rankingGapBoostAt       = 75
	rankingGapBoostWeight   = 0.20
	rankingGapMajorAt       = 100
	rankingGapMajorWeight   = 0.25
)

// Form-gap contribution amplification.
const (
	formGapAmplifyAt     = 20.0
	formGapAmplifier     = 1.8
	formGapMajorAt       = 30.0
	formGapMajorAmplifer = 2.2
)

// UTR override: a verified UTR gap this large outweighs the factor model.
const (
	utrOverrideGap   = 1.0
	utrOverrideBonus = 0.08
	utrOverrideCap   = 0.15
)

// Input carries everything the scoring engine needs for one match
type Input struct {
	Match    *models.Match
	Profile1 *models.PlayerProfile
	Profile2 *models.PlayerProfile
	Factors1 factors.FactorSet
	Factors2 factors.FactorSet
}

// Scores is the scoring engine output
type Scores struct {
	Score1        float64
	Score2        float64
	Contributions []models.FactorContribution
}

// Gap returns the absolute score gap
func (s Scores) Gap() float64 {
	return math.Abs(s.Score1 - s.Score2)
}

// Engine is the weighted scoring engine
type Engine struct {
	cfg *config.AnalysisConfig
	// microEdges holds the per-factor minimum-difference thresholds; gaps
	// below them are noise and are dropped rather than amplified by the
	// weight table.
	microEdges map[string]float64
}

// NewEngine creates a scoring engine from analysis configuration. Micro-edge
// thresholds from the configuration overlay the defaults per factor.
func NewEngine(cfg *config.AnalysisConfig) *Engine {
	microEdges := config.DefaultMicroEdges()
	for factor, threshold := range cfg.MicroEdges {
		microEdges[factor] = threshold
	}
	return &Engine{cfg: cfg, microEdges: microEdges}
}

// Score computes the weighted score pair for a match. The contribution list
// is ordered by the canonical factor order; dropped factors appear with
// Applied=false so the breakdown stays auditable.
func (e *Engine) Score(in Input) Scores {
	weights := e.adjustedWeights(in)

	// First pass without close-match amplification to measure the gap
	base := e.fold(in, weights, 1.0)

	// Close matches hinge on the mental game: amplify the clutch weight
	// and refold
	if base.Gap() < e.cfg.CloseMatchGap && e.cfg.CloseMatchAmplifier > 1 {
		return e.fold(in, weights, e.cfg.CloseMatchAmplifier)
	}
	return base
}

// fold runs the weighted accumulation with a clutch-weight amplifier
func (e *Engine) fold(in Input, weights map[string]float64, clutchAmplifier float64) Scores {
	out := Scores{}
	formGap := math.Abs(in.Profile1.RecentForm - in.Profile2.RecentForm)

	for _, factor := range factors.AllFactors {
		r1 := in.Factors1[factor]
		r2 := in.Factors2[factor]

		contribution := models.FactorContribution{Factor: factor, Weight: weights[factor]}

		if !r1.Usable() || !r2.Usable() {
			out.Contributions = append(out.Contributions, contribution)
			continue
		}

		edge := r1.Value - r2.Value
		if math.Abs(edge) < e.microEdges[factor] {
			out.Contributions = append(out.Contributions, contribution)
			continue
		}

		weight := weights[factor]
		if factor == factors.FactorClutch {
			weight *= clutchAmplifier
		}
		if factor == factors.FactorRecentForm {
			weight *= formAmplifier(formGap)
		}

		out.Score1 += weight * r1.Value
		out.Score2 += weight * r2.Value
		contribution.Weight = weight
		contribution.Signed = weight * edge
		contribution.Applied = true
		out.Contributions = append(out.Contributions, contribution)
	}

	e.applyOverrides(in, &out)
	return out
}

// applyOverrides adds the UTR major-gap override and the optional home
// advantage bonus as explicit extra contributions.
func (e *Engine) applyOverrides(in Input, out *Scores) {
	if bonus, direction := utrOverride(in.Profile1, in.Profile2); direction != 0 {
		contribution := models.FactorContribution{Factor: "utr_override", Signed: bonus * float64(direction), Applied: true}
		if direction > 0 {
			out.Score1 += bonus
		} else {
			out.Score2 += bonus
		}
		out.Contributions = append(out.Contributions, contribution)
	}

	if e.cfg.HomeBonusEnabled && in.Match.CountryCode != "" {
		home1 := in.Profile1.CountryCode == in.Match.CountryCode
		home2 := in.Profile2.CountryCode == in.Match.CountryCode
		if home1 != home2 {
			contribution := models.FactorContribution{Factor: "home_advantage", Applied: true}
			if home1 {
				out.Score1 += e.cfg.HomeBonus
				contribution.Signed = e.cfg.HomeBonus
			} else {
				out.Score2 += e.cfg.HomeBonus
				contribution.Signed = -e.cfg.HomeBonus
			}
			out.Contributions = append(out.Contributions, contribution)
		}
	}
}

// adjustedWeights returns the weight table with the ranking-gap boost
// applied and the remaining weights renormalized so the sum stays 1.0.
func (e *Engine) adjustedWeights(in Input) map[string]float64 {
	weights := e.cfg.Weights.Map()

	gap := rankingGap(in.Profile1.Ranking, in.Profile2.Ranking)
	boost := 0.0
	switch {
	case gap >= rankingGapMajorAt:
		boost = rankingGapMajorWeight
	case gap >= rankingGapBoostAt:
		boost = rankingGapBoostWeight
	}
	if boost <= weights[factors.FactorRanking] {
		return weights
	}

	previous := weights[factors.FactorRanking]
	scale := (1 - boost) / (1 - previous)
	for name := range weights {
		weights[name] *= scale
	}
	weights[factors.FactorRanking] = boost
	return weights
}

// formAmplifier scales the recent-form contribution for large form gaps
func formAmplifier(formGap float64) float64 {
	switch {
	case formGap >= formGapMajorAt:
		return formGapMajorAmplifer
	case formGap >= formGapAmplifyAt:
		return formGapAmplifier
	default:
		return 1.0
	}
}

// utrOverride returns the bonus and direction (+1 favors player 1) when a
// verified UTR gap is decisive, or direction 0 when it is not.
func utrOverride(p1, p2 *models.PlayerProfile) (float64, int) {
	if p1.UTR <= 0 || p2.UTR <= 0 || !p1.UTRVerified || !p2.UTRVerified {
		return 0, 0
	}
	gap := p1.UTR - p2.UTR
	if math.Abs(gap) < utrOverrideGap {
		return 0, 0
	}
	bonus := math.Min(utrOverrideBonus*math.Abs(gap), utrOverrideCap)
	if gap > 0 {
		return bonus, 1
	}
	return bonus, -1
}

// rankingGap returns the absolute ranking gap, or 0 when either ranking is
// missing.
func rankingGap(r1, r2 int) int {
	if r1 <= 0 || r2 <= 0 {
		return 0
	}
	gap := r1 - r2
	if gap < 0 {
		gap = -gap
	}
	return gap
}
