package runner

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/set-point/internal/analysis"
	"github.com/yourusername/set-point/internal/config"
	"github.com/yourusername/set-point/internal/logger"
	"github.com/yourusername/set-point/internal/metrics"
	"github.com/yourusername/set-point/internal/models"
)

// Analyzer runs the full analysis flow for one match
type Analyzer interface {
	AnalyzeMatch(ctx context.Context, match *models.Match) (analysis.Outcome, error)
}

// ProgressFunc receives each completed outcome with running totals
type ProgressFunc func(completed, total int, outcome analysis.Outcome)

// BatchResult aggregates one batch run. Order follows completion, not
// submission.
type BatchResult struct {
	Predictions []*models.SetPrediction
	Skips       []*models.SkipRecord
	Elapsed     time.Duration
}

// SkipsByReason counts skips per reason string
func (r *BatchResult) SkipsByReason() map[string]int {
	counts := map[string]int{}
	for _, skip := range r.Skips {
		counts[string(skip.Reason)]++
	}
	return counts
}

// BatchRunner fans a match batch across a fixed worker pool sharing one
// network circuit breaker.
type BatchRunner struct {
	cfg      *config.RunnerConfig
	analyzer Analyzer
	breaker  *NetworkCircuitBreaker
	audit    *logger.AuditLogger
	logger   *logrus.Logger
	progress ProgressFunc
}

// NewBatchRunner creates a batch runner. progress may be nil.
func NewBatchRunner(cfg *config.RunnerConfig, analyzer Analyzer, breaker *NetworkCircuitBreaker, baseLogger *logrus.Logger, progress ProgressFunc) *BatchRunner {
	return &BatchRunner{
		cfg:      cfg,
		analyzer: analyzer,
		breaker:  breaker,
		audit:    logger.NewAuditLogger(baseLogger),
		logger:   baseLogger,
		progress: progress,
	}
}

// Run analyzes every match in the batch. It returns normally even when
// matches skip; only context cancellation aborts the run early.
func (r *BatchRunner) Run(ctx context.Context, matches []*models.Match) (*BatchResult, error) {
	start := time.Now()
	result := &BatchResult{}

	jobs := make(chan *models.Match)
	var mu sync.Mutex
	var wg sync.WaitGroup
	completed := 0

	workers := r.cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for match := range jobs {
				matchStart := time.Now()
				outcome := r.analyzeWithBreaker(ctx, match)

				mu.Lock()
				completed++
				r.collect(result, outcome, time.Since(matchStart))
				if r.progress != nil {
					r.progress(completed, len(matches), outcome)
				}
				mu.Unlock()
			}
		}()
	}

	for _, match := range matches {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return result, ctx.Err()
		case jobs <- match:
		}
	}
	close(jobs)
	wg.Wait()

	result.Elapsed = time.Since(start)
	metrics.RecordBatchDuration(result.Elapsed.Seconds())

	r.audit.LogBatchSummary(len(matches), len(result.Predictions), len(result.Skips),
		result.SkipsByReason(), result.Elapsed)

	return result, nil
}

// analyzeWithBreaker wraps one match analysis with breaker accounting.
// A network failure is recorded and the match is retried once in place;
// if the breaker trips, the retry waits behind the pause gate with every
// other worker until an operator resumes.
func (r *BatchRunner) analyzeWithBreaker(ctx context.Context, match *models.Match) analysis.Outcome {
	metrics.BatchInFlight.Inc()
	defer metrics.BatchInFlight.Dec()

	const maxAttempts = 2
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := r.breaker.Wait(ctx); err != nil {
			return skipOutcome(match, models.SkipCircuitBreaker, "batch canceled while paused")
		}

		outcome, err := r.analyzer.AnalyzeMatch(ctx, match)
		if err == nil {
			r.breaker.RecordSuccess()
			return outcome
		}

		lastErr = err
		if !models.IsNetworkError(err) {
			// Non-network failures never trip the breaker
			return skipOutcome(match, models.SkipOther, err.Error())
		}

		r.breaker.RecordFailure(err)
		r.logger.WithFields(logrus.Fields{
			"match_id": match.ID,
			"attempt":  attempt,
			"error":    err.Error(),
		}).Warn("Network failure during match analysis")
	}

	return skipOutcome(match, models.SkipCircuitBreaker, lastErr.Error())
}

// collect files an outcome into the batch result and metrics. Caller holds
// the result mutex.
func (r *BatchRunner) collect(result *BatchResult, outcome analysis.Outcome, elapsed time.Duration) {
	switch {
	case outcome.Prediction != nil:
		result.Predictions = append(result.Predictions, outcome.Prediction)
		metrics.RecordPrediction(elapsed.Seconds())
	case outcome.Skip != nil:
		result.Skips = append(result.Skips, outcome.Skip)
		metrics.RecordSkip(string(outcome.Skip.Reason))
		r.audit.LogSkip(outcome.Skip)
	}
}

// skipOutcome builds a skip-only outcome
func skipOutcome(match *models.Match, reason models.SkipReasonType, detail string) analysis.Outcome {
	return analysis.Outcome{
		Match: match,
		Skip:  models.NewSkipRecord(match, reason, detail),
	}
}
