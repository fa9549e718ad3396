// Package repository persists predictions and skip records to PostgreSQL.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/set-point/internal/models"
)

// PredictionRepository stores and retrieves set predictions
type PredictionRepository interface {
	Create(ctx context.Context, prediction *models.SetPrediction) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.SetPrediction, error)
	GetByMatchID(ctx context.Context, matchID string) ([]*models.SetPrediction, error)
	GetSince(ctx context.Context, since time.Time) ([]*models.SetPrediction, error)
}

// SkipRepository stores and retrieves skip audit records
type SkipRepository interface {
	Create(ctx context.Context, skip *models.SkipRecord) error
	GetByReason(ctx context.Context, reason models.SkipReasonType, since time.Time) ([]*models.SkipRecord, error)
	CountByReason(ctx context.Context, since time.Time) (map[string]int, error)
}
