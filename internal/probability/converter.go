// Package probability converts weighted score pairs into match and set
// probabilities with calibrated bounds.
package probability

import (
	"github.com/yourusername/set-point/internal/config"
)

// Converter turns scores into bounded probabilities
type Converter struct {
	cfg *config.ProbabilityConfig
}

// NewConverter creates a converter from probability configuration
func NewConverter(cfg *config.ProbabilityConfig) *Converter {
	return &Converter{cfg: cfg}
}

// MatchProbabilities normalizes a score pair into match-win probabilities,
// clamped to the [match_prob_floor, match_prob_ceil] band and renormalized.
// The narrower [min_match_prob, max_match_prob] band is not applied here; it
// is the set-curve domain pre-clamp in SetProbability.
func (c *Converter) MatchProbabilities(score1, score2 float64) (float64, float64) {
	total := score1 + score2
	p1 := 0.5
	if total > 0 {
		p1 = score1 / total
	}

	p1 = clamp(p1, c.cfg.MatchProbFloor, c.cfg.MatchProbCeil)
	p2 := clamp(1-p1, c.cfg.MatchProbFloor, c.cfg.MatchProbCeil)
	return renormalize(p1, p2)
}

// ApplyQualityCaps walks the favorite's probability back in proportion to
// data-quality red flags. Flags at or above quality_cap_flag_min compound
// with an extra deduction; the total deduction is bounded at
// quality_cap_max.
func (c *Converter) ApplyQualityCaps(p1, p2 float64, redFlags1, redFlags2 int) (float64, float64) {
	favoriteFlags := redFlags1
	favoriteIsP1 := p1 >= p2
	if !favoriteIsP1 {
		favoriteFlags = redFlags2
	}
	if favoriteFlags == 0 {
		return p1, p2
	}

	deduction := c.cfg.QualityCapPerFlag * float64(favoriteFlags)
	if c.cfg.QualityCapFlagMin > 0 && favoriteFlags >= c.cfg.QualityCapFlagMin {
		deduction += c.cfg.QualityCapCompound
	}
	if deduction > c.cfg.QualityCapMax {
		deduction = c.cfg.QualityCapMax
	}

	if favoriteIsP1 {
		p1 = clamp(p1-deduction, 0.5, c.cfg.MatchProbCeil)
	} else {
		p2 = clamp(p2-deduction, 0.5, c.cfg.MatchProbCeil)
	}
	return renormalize(p1, p2)
}

// ApplyHardCeiling enforces the hard probability ceiling. No prediction
// leaves the pipeline above it; the other player absorbs the remainder.
func (c *Converter) ApplyHardCeiling(p1, p2 float64) (float64, float64) {
	if p1 > c.cfg.HardCeiling {
		p1 = c.cfg.HardCeiling
		p2 = 1 - p1
	}
	if p2 > c.cfg.HardCeiling {
		p2 = c.cfg.HardCeiling
		p1 = 1 - p2
	}
	return p1, p2
}

// clamp bounds v to [lo, hi]
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// renormalize rescales a probability pair to sum to 1
func renormalize(p1, p2 float64) (float64, float64) {
	total := p1 + p2
	if total <= 0 {
		return 0.5, 0.5
	}
	return p1 / total, p2 / total
}
