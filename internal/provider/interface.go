// Package provider supplies player statistics from the remote statistics API.
package provider

import (
	"context"

	"github.com/yourusername/set-point/internal/models"
)

// StatisticsProvider is the read interface over the remote statistics API.
// Implementations return models.ErrDataUnavailable (wrapped) when the
// provider has no record, and models.ErrNetworkFailure (wrapped) for
// transport-level failures. Callers rely on that distinction: only network
// failures count toward the batch circuit breaker.
type StatisticsProvider interface {
	// PlayerSummary returns the profile record for a player
	PlayerSummary(ctx context.Context, playerID string) (*models.PlayerSummary, error)
	// PlayerYearStats returns the raw aggregates for one season
	PlayerYearStats(ctx context.Context, playerID string, year int) (*models.YearStats, error)
	// PlayerRecentMatches returns the player's most recent completed matches
	PlayerRecentMatches(ctx context.Context, playerID string, limit int) ([]models.MatchResult, error)
	// HeadToHead returns prior meetings between two players, newest first
	HeadToHead(ctx context.Context, player1ID, player2ID string) ([]models.HeadToHeadMatch, error)
	// MatchVotes returns the crowd sentiment split for a match
	MatchVotes(ctx context.Context, matchID string) (*models.CrowdVotes, error)
}
