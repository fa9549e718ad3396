package probability

import (
	"github.com/yourusername/set-point/internal/models"
)

// curvePoint anchors the piecewise-linear match-prob to set-prob mapping
type curvePoint struct {
	matchProb float64
	setProb   float64
}

// Calibrated curves for P(player wins at least one set). A best-of-five
// gives the underdog more chances, so the BO5 curve dominates the BO3
// curve at every match probability.
var (
	bo3Curve = []curvePoint{
		{0.05, 0.35},
		{0.30, 0.50},
		{0.50, 0.58},
		{0.70, 0.72},
		{0.90, 0.95},
	}
	bo5Curve = []curvePoint{
		{0.05, 0.45},
		{0.30, 0.55},
		{0.50, 0.62},
		{0.70, 0.78},
		{0.90, 0.98},
	}
)

// SetProbability maps a match-win probability to the probability of winning
// at least one set, with format-specific post-clamps.
func (c *Converter) SetProbability(matchProb float64, format models.MatchFormat) float64 {
	curve := bo3Curve
	floor, ceil := c.cfg.BO3Floor, c.cfg.BO3Ceil
	if format == models.BestOfFive {
		curve = bo5Curve
		floor, ceil = c.cfg.BO5Floor, c.cfg.BO5Ceil
	}

	// Pre-clamp to the curve's calibrated domain
	m := clamp(matchProb, c.cfg.MinMatchProb, c.cfg.MaxMatchProb)
	value := interpolate(curve, m)

	return clamp(value, floor, ceil)
}

// interpolate evaluates a piecewise-linear curve at m
func interpolate(curve []curvePoint, m float64) float64 {
	if m <= curve[0].matchProb {
		return curve[0].setProb
	}
	last := curve[len(curve)-1]
	if m >= last.matchProb {
		return last.setProb
	}
	for i := 1; i < len(curve); i++ {
		if m <= curve[i].matchProb {
			lo, hi := curve[i-1], curve[i]
			t := (m - lo.matchProb) / (hi.matchProb - lo.matchProb)
			return lo.setProb + t*(hi.setProb-lo.setProb)
		}
	}
	return last.setProb
}
