// Package logger provides audit logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/set-point/internal/models"
)

// AuditLogger provides dedicated audit trail logging for predictions,
// skipped matches and circuit breaker activity.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogPrediction logs a completed match prediction.
func (al *AuditLogger) LogPrediction(predictionID, matchID, winner string, winnerSetProb float64, confidence string, format string) {
	al.WithFields(logrus.Fields{
		"prediction_id":   predictionID,
		"match_id":        matchID,
		"winner":          winner,
		"winner_set_prob": winnerSetProb,
		"confidence":      confidence,
		"format":          format,
	}).Info("Prediction recorded")
}

// LogSkip logs a skipped match with its reason classification and both
// players' current-season sample stats.
func (al *AuditLogger) LogSkip(skip *models.SkipRecord) {
	al.WithFields(logrus.Fields{
		"match_id":         skip.MatchID,
		"player1":          skip.Player1Name,
		"player2":          skip.Player2Name,
		"reason":           string(skip.Reason),
		"detail":           skip.Detail,
		"player1_matches":  skip.Player1Sample.Matches,
		"player1_wins":     skip.Player1Sample.Wins,
		"player1_win_rate": skip.Player1Sample.WinRate,
		"player2_matches":  skip.Player2Sample.Matches,
		"player2_wins":     skip.Player2Sample.Wins,
		"player2_win_rate": skip.Player2Sample.WinRate,
	}).Info("Match skipped")
}

// LogBreakerPause logs a circuit breaker pause event.
func (al *AuditLogger) LogBreakerPause(consecutiveFailures int, lastError string) {
	al.WithFields(logrus.Fields{
		"consecutive_failures": consecutiveFailures,
		"last_error":           lastError,
	}).Warn("Circuit breaker paused batch: repeated network failures")
}

// LogBreakerResume logs an operator-initiated resume.
func (al *AuditLogger) LogBreakerResume(pausedFor time.Duration, resumedBy string) {
	al.WithFields(logrus.Fields{
		"paused_for": pausedFor.String(),
		"resumed_by": resumedBy,
	}).Info("Circuit breaker resumed")
}

// LogBatchSummary logs the end-of-run totals, including per-reason skip counts.
func (al *AuditLogger) LogBatchSummary(analyzed, predicted, skipped int, skipsByReason map[string]int, elapsed time.Duration) {
	al.WithFields(logrus.Fields{
		"matches_analyzed": analyzed,
		"predictions":      predicted,
		"skipped":          skipped,
		"skips_by_reason":  skipsByReason,
		"elapsed":          elapsed.String(),
	}).Info("Batch run completed")
}
