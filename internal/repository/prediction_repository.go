package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/set-point/internal/database"
	"github.com/yourusername/set-point/internal/models"
)

// PostgresPredictionRepository implements PredictionRepository for PostgreSQL
type PostgresPredictionRepository struct {
	db *database.DB
}

// NewPostgresPredictionRepository creates a new prediction repository
func NewPostgresPredictionRepository(db *database.DB) PredictionRepository {
	return &PostgresPredictionRepository{db: db}
}

const predictionColumns = `id, match_id, tournament, surface, format, player1_name, player2_name,
	predicted_winner, match_prob1, match_prob2, set_prob1, set_prob2,
	over_two_half_sets, expected_games, confidence, contributions, red_flags, notes, created_at`

// Create inserts a new prediction
func (r *PostgresPredictionRepository) Create(ctx context.Context, prediction *models.SetPrediction) error {
	query := `
		INSERT INTO predictions (` + predictionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	contributions, err := json.Marshal(prediction.Contributions)
	if err != nil {
		return fmt.Errorf("failed to encode contributions: %w", err)
	}

	_, err = r.db.GetPool().Exec(ctx, query,
		prediction.ID, prediction.MatchID, prediction.Tournament, prediction.Surface,
		prediction.Format.String(), prediction.Player1Name, prediction.Player2Name,
		prediction.PredictedWinner, prediction.MatchProb1, prediction.MatchProb2,
		prediction.SetProb1, prediction.SetProb2, prediction.OverTwoHalfSets,
		prediction.ExpectedGames, prediction.Confidence.String(),
		contributions, prediction.RedFlags, prediction.Notes, prediction.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create prediction: %w", err)
	}
	return nil
}

// GetByID retrieves a prediction by ID
func (r *PostgresPredictionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SetPrediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions WHERE id = $1`

	prediction, err := scanPrediction(r.db.GetPool().QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}
	return prediction, nil
}

// GetByMatchID retrieves all predictions for a match, newest first
func (r *PostgresPredictionRepository) GetByMatchID(ctx context.Context, matchID string) ([]*models.SetPrediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions WHERE match_id = $1 ORDER BY created_at DESC`
	return r.queryPredictions(ctx, query, matchID)
}

// GetSince retrieves all predictions created at or after the given time
func (r *PostgresPredictionRepository) GetSince(ctx context.Context, since time.Time) ([]*models.SetPrediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions WHERE created_at >= $1 ORDER BY created_at DESC`
	return r.queryPredictions(ctx, query, since)
}

func (r *PostgresPredictionRepository) queryPredictions(ctx context.Context, query string, args ...interface{}) ([]*models.SetPrediction, error) {
	rows, err := r.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var predictions []*models.SetPrediction
	for rows.Next() {
		prediction, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		predictions = append(predictions, prediction)
	}
	return predictions, rows.Err()
}

// rowScanner covers both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPrediction(row rowScanner) (*models.SetPrediction, error) {
	prediction := &models.SetPrediction{}
	var format, confidence string
	var contributions []byte

	err := row.Scan(
		&prediction.ID, &prediction.MatchID, &prediction.Tournament, &prediction.Surface,
		&format, &prediction.Player1Name, &prediction.Player2Name,
		&prediction.PredictedWinner, &prediction.MatchProb1, &prediction.MatchProb2,
		&prediction.SetProb1, &prediction.SetProb2, &prediction.OverTwoHalfSets,
		&prediction.ExpectedGames, &confidence,
		&contributions, &prediction.RedFlags, &prediction.Notes, &prediction.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	prediction.Format = models.ParseMatchFormat(format)
	prediction.Confidence = models.ParseConfidenceLevel(confidence)
	if err := json.Unmarshal(contributions, &prediction.Contributions); err != nil {
		return nil, fmt.Errorf("failed to decode contributions: %w", err)
	}
	return prediction, nil
}
