package models

import "time"

// SurfaceRecord is a win/loss record on a single surface
type SurfaceRecord struct {
	Matches int `json:"matches"`
	Wins    int `json:"wins"`
}

// WinRate returns the win rate on this surface, or 0 with no matches
func (r SurfaceRecord) WinRate() float64 {
	if r.Matches == 0 {
		return 0
	}
	return float64(r.Wins) / float64(r.Matches)
}

// YearStats holds a player's raw aggregates for a single season as returned
// by the statistics provider.
type YearStats struct {
	Year                   int                      `json:"year"`
	Matches                int                      `json:"matches"`
	Wins                   int                      `json:"wins"`
	SetsWon                int                      `json:"sets_won"`
	SetsLost               int                      `json:"sets_lost"`
	TiebreaksPlayed        int                      `json:"tiebreaks_played"`
	TiebreaksWon           int                      `json:"tiebreaks_won"`
	BreakPointChances      int                      `json:"break_point_chances"`
	BreakPointsConverted   int                      `json:"break_points_converted"`
	BreakPointsFaced       int                      `json:"break_points_faced"`
	BreakPointsSaved       int                      `json:"break_points_saved"`
	ServePointsPlayed      int                      `json:"serve_points_played"`
	FirstServePointsPlayed int                      `json:"first_serve_points_played"`
	FirstServePointsWon    int                      `json:"first_serve_points_won"`
	Aces                   int                      `json:"aces"`
	ReturnPointsPlayed     int                      `json:"return_points_played"`
	ReturnPointsWon        int                      `json:"return_points_won"`
	Surfaces               map[string]SurfaceRecord `json:"surfaces"`
}

// WinRate returns the season win rate, or 0 with no matches
func (s *YearStats) WinRate() float64 {
	if s.Matches == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Matches)
}

// SetRate returns the fraction of sets won across the season
func (s *YearStats) SetRate() float64 {
	total := s.SetsWon + s.SetsLost
	if total == 0 {
		return 0
	}
	return float64(s.SetsWon) / float64(total)
}

// PlayerSummary is the provider's profile record for a player
type PlayerSummary struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Age         int        `json:"age"`
	CountryCode string     `json:"country_code"`
	Ranking     int        `json:"ranking"`
	UTR         float64    `json:"utr"`
	UTRVerified bool       `json:"utr_verified"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// DataQualityFlag tags a known reliability problem with a player's data
type DataQualityFlag string

const (
	FlagLowSampleSize     DataQualityFlag = "low_sample_size"
	FlagStaleRanking      DataQualityFlag = "stale_ranking"
	FlagNoSurfaceData     DataQualityFlag = "no_surface_data"
	FlagUnverifiedUTR     DataQualityFlag = "unverified_utr"
	FlagMissingStatistics DataQualityFlag = "missing_statistics"
	FlagTerribleForm      DataQualityFlag = "terrible_form"
)

// PlayerProfile is the assembled analysis view of one player, combining the
// provider summary with blended multi-year statistics and derived scores.
type PlayerProfile struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Age            int               `json:"age"`
	CountryCode    string            `json:"country_code"`
	Ranking        int               `json:"ranking"`
	UTR            float64           `json:"utr"`
	UTRVerified    bool              `json:"utr_verified"`
	RecentForm     float64           `json:"recent_form"`
	SurfaceWinRate float64           `json:"surface_win_rate"`
	ClutchRate     float64           `json:"clutch_rate"`
	Momentum       float64           `json:"momentum"`
	QualityFlags   []DataQualityFlag `json:"quality_flags"`
	CurrentYear    YearStats         `json:"current_year"`
	Blended        YearStats         `json:"blended"`
	RecentMatches  []MatchResult     `json:"recent_matches"`

	// HistoricalFetchFailed is set when a prior-season stats request failed
	// with a network-class error. Mental-game factors must not fall back to
	// defaults in that case.
	HistoricalFetchFailed bool `json:"historical_fetch_failed"`
}

// HasFlag reports whether a quality flag is set on the profile
func (p *PlayerProfile) HasFlag(flag DataQualityFlag) bool {
	for _, f := range p.QualityFlags {
		if f == flag {
			return true
		}
	}
	return false
}

// RedFlagCount returns the number of serious data-quality flags used by the
// bagel and upset protections.
func (p *PlayerProfile) RedFlagCount() int {
	serious := []DataQualityFlag{
		FlagLowSampleSize, FlagNoSurfaceData, FlagMissingStatistics, FlagTerribleForm,
	}
	count := 0
	for _, f := range serious {
		if p.HasFlag(f) {
			count++
		}
	}
	return count
}
