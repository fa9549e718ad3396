package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/yourusername/set-point/internal/database"
	"github.com/yourusername/set-point/internal/models"
)

// PostgresSkipRepository implements SkipRepository for PostgreSQL
type PostgresSkipRepository struct {
	db *database.DB
}

// NewPostgresSkipRepository creates a new skip repository
func NewPostgresSkipRepository(db *database.DB) SkipRepository {
	return &PostgresSkipRepository{db: db}
}

// Create inserts a new skip record
func (r *PostgresSkipRepository) Create(ctx context.Context, skip *models.SkipRecord) error {
	query := `
		INSERT INTO skips (id, match_id, player1_name, player2_name, reason, detail,
			player1_matches, player1_wins, player1_win_rate,
			player2_matches, player2_wins, player2_win_rate, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		skip.ID, skip.MatchID, skip.Player1Name, skip.Player2Name,
		string(skip.Reason), skip.Detail,
		skip.Player1Sample.Matches, skip.Player1Sample.Wins, skip.Player1Sample.WinRate,
		skip.Player2Sample.Matches, skip.Player2Sample.Wins, skip.Player2Sample.WinRate,
		skip.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create skip record: %w", err)
	}
	return nil
}

// GetByReason retrieves skip records with the given reason since a time
func (r *PostgresSkipRepository) GetByReason(ctx context.Context, reason models.SkipReasonType, since time.Time) ([]*models.SkipRecord, error) {
	query := `
		SELECT id, match_id, player1_name, player2_name, reason, detail,
			player1_matches, player1_wins, player1_win_rate,
			player2_matches, player2_wins, player2_win_rate, created_at
		FROM skips
		WHERE reason = $1 AND created_at >= $2
		ORDER BY created_at DESC
	`

	rows, err := r.db.GetPool().Query(ctx, query, string(reason), since)
	if err != nil {
		return nil, fmt.Errorf("failed to query skip records: %w", err)
	}
	defer rows.Close()

	var skips []*models.SkipRecord
	for rows.Next() {
		skip := &models.SkipRecord{}
		var reasonStr string
		err := rows.Scan(&skip.ID, &skip.MatchID, &skip.Player1Name, &skip.Player2Name,
			&reasonStr, &skip.Detail,
			&skip.Player1Sample.Matches, &skip.Player1Sample.Wins, &skip.Player1Sample.WinRate,
			&skip.Player2Sample.Matches, &skip.Player2Sample.Wins, &skip.Player2Sample.WinRate,
			&skip.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan skip record: %w", err)
		}
		skip.Reason = models.SkipReasonType(reasonStr)
		skips = append(skips, skip)
	}
	return skips, rows.Err()
}

// CountByReason counts skip records per reason since a time
func (r *PostgresSkipRepository) CountByReason(ctx context.Context, since time.Time) (map[string]int, error) {
	query := `
		SELECT reason, COUNT(*)
		FROM skips
		WHERE created_at >= $1
		GROUP BY reason
	`

	rows, err := r.db.GetPool().Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count skip records: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var reason string
		var count int
		if err := rows.Scan(&reason, &count); err != nil {
			return nil, fmt.Errorf("failed to scan skip count: %w", err)
		}
		counts[reason] = count
	}
	return counts, rows.Err()
}
