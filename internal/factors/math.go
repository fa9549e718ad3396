package factors

import "math"

// wilsonZ is the z value for a 95% confidence interval
const wilsonZ = 1.96

// shrink pulls an observed rate toward a prior in proportion to sample
// size. At fullSample observations the observed rate is used unchanged.
func shrink(observed, prior float64, samples, fullSample int) float64 {
	if fullSample <= 0 || samples >= fullSample {
		return observed
	}
	if samples <= 0 {
		return prior
	}
	weight := float64(samples) / float64(fullSample)
	return weight*observed + (1-weight)*prior
}

// wilsonWidth returns the width of the Wilson score interval for a
// proportion p over n trials. Narrow intervals mean trustworthy rates.
func wilsonWidth(p float64, n int) float64 {
	if n <= 0 {
		return 1.0
	}
	nf := float64(n)
	z2 := wilsonZ * wilsonZ
	denom := 1 + z2/nf
	margin := wilsonZ * math.Sqrt(p*(1-p)/nf+z2/(4*nf*nf))
	return 2 * margin / denom
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

// ratio returns hits/total, or fallback when total is below minSamples
func ratio(hits, total int, minSamples int, fallback float64) float64 {
	if total < minSamples || total == 0 {
		return fallback
	}
	return float64(hits) / float64(total)
}
