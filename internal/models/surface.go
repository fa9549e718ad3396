package models

import "strings"

// Surface name constants after normalization
const (
	SurfaceClay            = "Clay"
	SurfaceHard            = "Hard"
	SurfaceGrass           = "Grass"
	SurfaceHardcourtIndoor  = "Hardcourt indoor"
	SurfaceHardcourtOutdoor = "Hardcourt outdoor"
)

// NormalizeSurface folds provider surface labels into the canonical set.
// Clay variants (red clay, green clay, clay indoor) collapse to Clay;
// the indoor/outdoor hardcourt distinction is preserved because indoor
// hardcourt plays measurably faster.
func NormalizeSurface(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case name == "":
		return SurfaceHard
	case strings.Contains(name, "clay"):
		return SurfaceClay
	case strings.Contains(name, "grass"):
		return SurfaceGrass
	case strings.Contains(name, "hardcourt") && strings.Contains(name, "indoor"):
		return SurfaceHardcourtIndoor
	case strings.Contains(name, "hardcourt") && strings.Contains(name, "outdoor"):
		return SurfaceHardcourtOutdoor
	case strings.Contains(name, "indoor"):
		return SurfaceHardcourtIndoor
	case strings.Contains(name, "hard"):
		return SurfaceHard
	case strings.Contains(name, "carpet"):
		return SurfaceHardcourtIndoor
	default:
		return SurfaceHard
	}
}

// RelatedSurfaces returns the surface names whose records count toward the
// given normalized surface, most specific first. Hardcourt variants fall
// back to generic Hard data.
func RelatedSurfaces(normalized string) []string {
	switch normalized {
	case SurfaceHardcourtIndoor:
		return []string{SurfaceHardcourtIndoor, SurfaceHard}
	case SurfaceHardcourtOutdoor:
		return []string{SurfaceHardcourtOutdoor, SurfaceHard}
	default:
		return []string{normalized}
	}
}
