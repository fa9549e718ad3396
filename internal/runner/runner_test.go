package runner

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/set-point/internal/analysis"
	"github.com/yourusername/set-point/internal/config"
	"github.com/yourusername/set-point/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testMatch(id string) *models.Match {
	return &models.Match{
		ID:         id,
		Player1:    models.MatchPlayer{ID: "p1", Name: "Player One"},
		Player2:    models.MatchPlayer{ID: "p2", Name: "Player Two"},
		Tournament: "Lyon Open",
		Surface:    "Clay",
	}
}

// scriptedAnalyzer returns per-call results keyed by call order per match
type scriptedAnalyzer struct {
	mu    sync.Mutex
	calls map[string]int
	// errs maps match ID to the errors returned on successive attempts;
	// attempts past the slice succeed.
	errs map[string][]error
}

func newScriptedAnalyzer() *scriptedAnalyzer {
	return &scriptedAnalyzer{calls: map[string]int{}, errs: map[string][]error{}}
}

func (a *scriptedAnalyzer) AnalyzeMatch(ctx context.Context, match *models.Match) (analysis.Outcome, error) {
	a.mu.Lock()
	attempt := a.calls[match.ID]
	a.calls[match.ID]++
	script := a.errs[match.ID]
	a.mu.Unlock()

	if attempt < len(script) && script[attempt] != nil {
		return analysis.Outcome{}, script[attempt]
	}
	return analysis.Outcome{
		Match: match,
		Prediction: &models.SetPrediction{
			ID:      uuid.New(),
			MatchID: match.ID,
		},
	}, nil
}

func (a *scriptedAnalyzer) callCount(matchID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[matchID]
}

func newTestRunner(analyzer Analyzer, breaker *NetworkCircuitBreaker) *BatchRunner {
	return NewBatchRunner(&config.RunnerConfig{Workers: 2, BreakerThreshold: 3},
		analyzer, breaker, testLogger(), nil)
}

func TestBreakerTripsAtThreshold(t *testing.T) {
	cb := NewNetworkCircuitBreaker(3, testLogger())

	assert.False(t, cb.RecordFailure(models.ErrNetworkFailure))
	assert.False(t, cb.RecordFailure(models.ErrNetworkFailure))
	assert.False(t, cb.IsPaused())

	assert.True(t, cb.RecordFailure(models.ErrNetworkFailure))
	assert.True(t, cb.IsPaused())
	assert.Equal(t, BreakerPaused, cb.State())
}

func TestBreakerSuccessResetsCounter(t *testing.T) {
	cb := NewNetworkCircuitBreaker(3, testLogger())

	cb.RecordFailure(models.ErrNetworkFailure)
	cb.RecordFailure(models.ErrNetworkFailure)
	cb.RecordSuccess()
	assert.Equal(t, 0, cb.ConsecutiveFailures())

	// The reset means two more failures still stay under the threshold
	assert.False(t, cb.RecordFailure(models.ErrNetworkFailure))
	assert.False(t, cb.RecordFailure(models.ErrNetworkFailure))
	assert.False(t, cb.IsPaused())
}

func TestBreakerWaitPassesWhenClosed(t *testing.T) {
	cb := NewNetworkCircuitBreaker(3, testLogger())
	assert.NoError(t, cb.Wait(context.Background()))
}

func TestBreakerResumeUnblocksWaiters(t *testing.T) {
	cb := NewNetworkCircuitBreaker(1, testLogger())
	require.True(t, cb.RecordFailure(models.ErrNetworkFailure))

	released := make(chan error, 3)
	for i := 0; i < 3; i++ {
		go func() {
			released <- cb.Wait(context.Background())
		}()
	}

	// Give the waiters time to park on the pause gate
	time.Sleep(50 * time.Millisecond)
	select {
	case <-released:
		t.Fatal("Wait returned while breaker was paused")
	default:
	}

	cb.Resume("operator")

	for i := 0; i < 3; i++ {
		select {
		case err := <-released:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("waiter not released after resume")
		}
	}
	assert.False(t, cb.IsPaused())
	assert.Equal(t, 0, cb.ConsecutiveFailures())
}

func TestBreakerWaitHonorsContext(t *testing.T) {
	cb := NewNetworkCircuitBreaker(1, testLogger())
	require.True(t, cb.RecordFailure(models.ErrNetworkFailure))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := cb.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBreakerResumeWhenClosedIsNoOp(t *testing.T) {
	cb := NewNetworkCircuitBreaker(3, testLogger())
	cb.Resume("operator")
	assert.False(t, cb.IsPaused())
}

func TestBreakerCallbacks(t *testing.T) {
	cb := NewNetworkCircuitBreaker(1, testLogger())

	var pausedFailures int
	var resumedBy string
	cb.OnPause(func(failures int, lastErr error) { pausedFailures = failures })
	cb.OnResume(func(pausedFor time.Duration, by string) { resumedBy = by })

	cb.RecordFailure(models.ErrNetworkFailure)
	cb.Resume("ops")

	assert.Equal(t, 1, pausedFailures)
	assert.Equal(t, "ops", resumedBy)
}

func TestRunAllMatchesSucceed(t *testing.T) {
	analyzer := newScriptedAnalyzer()
	r := newTestRunner(analyzer, NewNetworkCircuitBreaker(3, testLogger()))

	matches := []*models.Match{testMatch("m1"), testMatch("m2"), testMatch("m3")}
	result, err := r.Run(context.Background(), matches)

	require.NoError(t, err)
	assert.Len(t, result.Predictions, 3)
	assert.Empty(t, result.Skips)
	assert.Greater(t, result.Elapsed, time.Duration(0))
}

func TestRunNonNetworkErrorSkipsWithoutRetry(t *testing.T) {
	analyzer := newScriptedAnalyzer()
	analyzer.errs["m1"] = []error{models.ErrDataUnavailable}
	r := newTestRunner(analyzer, NewNetworkCircuitBreaker(3, testLogger()))

	result, err := r.Run(context.Background(), []*models.Match{testMatch("m1")})

	require.NoError(t, err)
	require.Len(t, result.Skips, 1)
	assert.Equal(t, models.SkipOther, result.Skips[0].Reason)
	assert.Equal(t, 1, analyzer.callCount("m1"))
}

func TestRunNetworkErrorRetriesOnce(t *testing.T) {
	analyzer := newScriptedAnalyzer()
	// Fails the first attempt, succeeds the retry
	analyzer.errs["m1"] = []error{fmt.Errorf("fetch stats: %w", models.ErrNetworkFailure)}
	r := newTestRunner(analyzer, NewNetworkCircuitBreaker(10, testLogger()))

	result, err := r.Run(context.Background(), []*models.Match{testMatch("m1")})

	require.NoError(t, err)
	assert.Len(t, result.Predictions, 1)
	assert.Empty(t, result.Skips)
	assert.Equal(t, 2, analyzer.callCount("m1"))
}

func TestRunPersistentNetworkErrorSkips(t *testing.T) {
	analyzer := newScriptedAnalyzer()
	analyzer.errs["m1"] = []error{models.ErrNetworkFailure, models.ErrNetworkFailure}
	r := newTestRunner(analyzer, NewNetworkCircuitBreaker(10, testLogger()))

	result, err := r.Run(context.Background(), []*models.Match{testMatch("m1")})

	require.NoError(t, err)
	require.Len(t, result.Skips, 1)
	assert.Equal(t, models.SkipCircuitBreaker, result.Skips[0].Reason)
	assert.Equal(t, 2, analyzer.callCount("m1"))
}

func TestRunRetryWaitsForResumeAfterTrip(t *testing.T) {
	analyzer := newScriptedAnalyzer()
	analyzer.errs["m1"] = []error{models.ErrNetworkFailure}
	breaker := NewNetworkCircuitBreaker(1, testLogger())
	r := newTestRunner(analyzer, breaker)

	go func() {
		// Wait for the trip, then resume so the in-place retry proceeds
		for !breaker.IsPaused() {
			time.Sleep(10 * time.Millisecond)
		}
		breaker.Resume("test-operator")
	}()

	result, err := r.Run(context.Background(), []*models.Match{testMatch("m1")})

	require.NoError(t, err)
	assert.Len(t, result.Predictions, 1)
	assert.Equal(t, 2, analyzer.callCount("m1"))
	assert.False(t, breaker.IsPaused())
}

func TestRunCanceledContextAborts(t *testing.T) {
	analyzer := newScriptedAnalyzer()
	r := newTestRunner(analyzer, NewNetworkCircuitBreaker(3, testLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, []*models.Match{testMatch("m1"), testMatch("m2")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSkipsByReason(t *testing.T) {
	result := &BatchResult{
		Skips: []*models.SkipRecord{
			{Reason: models.SkipTier1},
			{Reason: models.SkipTier1},
			{Reason: models.SkipCoinFlip},
		},
	}
	counts := result.SkipsByReason()
	assert.Equal(t, 2, counts[string(models.SkipTier1)])
	assert.Equal(t, 1, counts[string(models.SkipCoinFlip)])
}
