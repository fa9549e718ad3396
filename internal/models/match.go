package models

import (
	"strings"
	"time"
)

// MatchFormat represents the set format of a match
type MatchFormat int

const (
	// BestOfThree is the default format for all tour matches
	BestOfThree MatchFormat = iota
	// BestOfFive applies only to Grand Slam men's singles
	BestOfFive
)

// String returns string representation of the match format
func (f MatchFormat) String() string {
	switch f {
	case BestOfFive:
		return "BO5"
	default:
		return "BO3"
	}
}

// ParseMatchFormat converts a stored format string back to its enum value
func ParseMatchFormat(s string) MatchFormat {
	if s == "BO5" {
		return BestOfFive
	}
	return BestOfThree
}

// grandSlamTournaments identifies the four majors by common listing names.
var grandSlamTournaments = []string{
	"australian open",
	"roland garros",
	"french open",
	"wimbledon",
	"us open",
}

// FormatFor determines the set format for a match. Best-of-five is limited
// to Grand Slam men's singles; everything else is best-of-three.
func FormatFor(tournament string, womens bool) MatchFormat {
	if womens {
		return BestOfThree
	}
	name := strings.ToLower(tournament)
	for _, slam := range grandSlamTournaments {
		if strings.Contains(name, slam) {
			return BestOfFive
		}
	}
	return BestOfThree
}

// MatchPlayer identifies one side of a scheduled match
type MatchPlayer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Match represents a scheduled match to analyze
type Match struct {
	ID          string      `json:"id"`
	Player1     MatchPlayer `json:"player1"`
	Player2     MatchPlayer `json:"player2"`
	Tournament  string      `json:"tournament"`
	Round       string      `json:"round"`
	Surface     string      `json:"surface"`
	CountryCode string      `json:"country_code"`
	Womens      bool        `json:"womens"`
	ScheduledAt time.Time   `json:"scheduled_at"`
}

// Format returns the set format for this match
func (m *Match) Format() MatchFormat {
	return FormatFor(m.Tournament, m.Womens)
}

// MatchResult is a completed match from a player's recent history
type MatchResult struct {
	Date            time.Time `json:"date"`
	OpponentName    string    `json:"opponent_name"`
	OpponentRanking int       `json:"opponent_ranking"`
	Won             bool      `json:"won"`
	SetsWon         int       `json:"sets_won"`
	SetsLost        int       `json:"sets_lost"`
	Surface         string    `json:"surface"`
	Tournament      string    `json:"tournament"`
}

// Straight reports whether the match was won or lost without dropping a set
func (r *MatchResult) Straight() bool {
	if r.Won {
		return r.SetsLost == 0
	}
	return r.SetsWon == 0
}

// HeadToHeadMatch is a prior meeting between the two players of a match
type HeadToHeadMatch struct {
	Date         time.Time `json:"date"`
	WinnerID     string    `json:"winner_id"`
	Surface      string    `json:"surface"`
	WinnerSets   int       `json:"winner_sets"`
	LoserSets    int       `json:"loser_sets"`
	Tournament   string    `json:"tournament"`
}

// CrowdVotes is the public sentiment split for a match
type CrowdVotes struct {
	Player1Votes int `json:"player1_votes"`
	Player2Votes int `json:"player2_votes"`
}

// Total returns the total number of votes cast
func (v CrowdVotes) Total() int {
	return v.Player1Votes + v.Player2Votes
}

// Player1Share returns the fraction of votes for player 1, or 0.5 when no
// votes were cast.
func (v CrowdVotes) Player1Share() float64 {
	total := v.Total()
	if total == 0 {
		return 0.5
	}
	return float64(v.Player1Votes) / float64(total)
}
