// Package factors computes the per-player factor values that feed the
// weighted scoring engine. Every calculator returns a tagged Result so the
// scoring layer can tell a real reading apart from a default.
package factors

// Status tags how a factor value was obtained
type Status int

const (
	// Computed means the value came from sufficient real data
	Computed Status = iota
	// InsufficientData means a neutral default was substituted; the factor
	// still participates in scoring but carries less evidence
	InsufficientData
	// Unavailable means the factor must be dropped from scoring entirely
	Unavailable
)

// String returns string representation of the status
func (s Status) String() string {
	switch s {
	case Computed:
		return "COMPUTED"
	case InsufficientData:
		return "INSUFFICIENT_DATA"
	case Unavailable:
		return "UNAVAILABLE"
	default:
		return "UNKNOWN"
	}
}

// Result is one factor reading for one player
type Result struct {
	Value   float64
	Status  Status
	Samples int
	// Quality carries the surface-confidence tier where applicable
	Quality string
}

// Usable reports whether the result may participate in scoring
func (r Result) Usable() bool {
	return r.Status != Unavailable
}

// computed builds a Result backed by real data
func computed(value float64, samples int) Result {
	return Result{Value: value, Status: Computed, Samples: samples}
}

// insufficient builds a Result carrying a neutral default
func insufficient(defaultValue float64) Result {
	return Result{Value: defaultValue, Status: InsufficientData}
}

// unavailable builds a Result that scoring must drop
func unavailable() Result {
	return Result{Status: Unavailable}
}
