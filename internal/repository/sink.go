package repository

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/set-point/internal/models"
)

// BatchSink persists a whole batch result. Individual insert failures are
// logged and skipped so one bad row never loses the rest of the batch.
type BatchSink struct {
	predictions PredictionRepository
	skips       SkipRepository
	logger      *logrus.Logger
}

// NewBatchSink creates a batch sink
func NewBatchSink(predictions PredictionRepository, skips SkipRepository, logger *logrus.Logger) *BatchSink {
	return &BatchSink{predictions: predictions, skips: skips, logger: logger}
}

// Store persists every prediction and skip record from a batch run
func (s *BatchSink) Store(ctx context.Context, predictions []*models.SetPrediction, skips []*models.SkipRecord) error {
	stored := 0
	for _, prediction := range predictions {
		if err := s.predictions.Create(ctx, prediction); err != nil {
			s.logger.WithFields(logrus.Fields{
				"prediction_id": prediction.ID,
				"error":         err.Error(),
			}).Warn("Failed to persist prediction")
			continue
		}
		stored++
	}

	for _, skip := range skips {
		if err := s.skips.Create(ctx, skip); err != nil {
			s.logger.WithFields(logrus.Fields{
				"match_id": skip.MatchID,
				"error":    err.Error(),
			}).Warn("Failed to persist skip record")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"predictions": stored,
		"skips":       len(skips),
	}).Info("Batch persisted to database")
	return ctx.Err()
}
