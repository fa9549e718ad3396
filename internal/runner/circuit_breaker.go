// Package runner executes match batches concurrently behind a shared
// network circuit breaker.
package runner

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/set-point/internal/metrics"
)

// BreakerState represents the state of the network circuit breaker
type BreakerState int

const (
	// BreakerClosed means analysis is flowing normally
	BreakerClosed BreakerState = iota
	// BreakerPaused means all workers are held until an operator resumes
	BreakerPaused
)

// String returns string representation of the breaker state
func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "CLOSED"
	case BreakerPaused:
		return "PAUSED"
	default:
		return "UNKNOWN"
	}
}

// PauseCallback is called when the breaker trips
type PauseCallback func(consecutiveFailures int, lastErr error)

// ResumeCallback is called when an operator resumes the breaker
type ResumeCallback func(pausedFor time.Duration, resumedBy string)

// NetworkCircuitBreaker counts consecutive network-classified failures
// across all workers. At the threshold it pauses the whole batch: every
// worker blocks before its next provider call until an operator resumes.
// A single success anywhere resets the counter.
type NetworkCircuitBreaker struct {
	threshold int

	mu                  sync.Mutex
	state               BreakerState
	consecutiveFailures int
	lastError           error
	pausedAt            time.Time
	resumeCh            chan struct{}

	pauseCallbacks  []PauseCallback
	resumeCallbacks []ResumeCallback
	logger          *logrus.Logger
}

// NewNetworkCircuitBreaker creates a breaker with the given trip threshold
func NewNetworkCircuitBreaker(threshold int, logger *logrus.Logger) *NetworkCircuitBreaker {
	return &NetworkCircuitBreaker{
		threshold: threshold,
		state:     BreakerClosed,
		resumeCh:  make(chan struct{}),
		logger:    logger,
	}
}

// RecordFailure registers one network-classified failure and returns true
// when this failure tripped the breaker. Callers must classify first; data
// gaps never reach this method.
func (cb *NetworkCircuitBreaker) RecordFailure(err error) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFailures++
	cb.lastError = err

	cb.logger.WithFields(logrus.Fields{
		"consecutive_failures": cb.consecutiveFailures,
		"threshold":            cb.threshold,
		"error":                err.Error(),
	}).Warn("Network failure recorded")

	if cb.state == BreakerPaused || cb.consecutiveFailures < cb.threshold {
		return false
	}

	cb.state = BreakerPaused
	cb.pausedAt = time.Now()
	metrics.RecordCircuitBreakerTrip()
	metrics.SetBreakerPaused(true)

	cb.logger.WithFields(logrus.Fields{
		"consecutive_failures": cb.consecutiveFailures,
		"last_error":           err.Error(),
	}).Error("Circuit breaker tripped: pausing batch")

	for _, callback := range cb.pauseCallbacks {
		callback(cb.consecutiveFailures, err)
	}
	return true
}

// RecordSuccess resets the consecutive failure counter
func (cb *NetworkCircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFailures = 0
}

// Wait blocks while the breaker is paused, until an operator resumes or
// the context is canceled. Workers call this before every match.
func (cb *NetworkCircuitBreaker) Wait(ctx context.Context) error {
	for {
		cb.mu.Lock()
		if cb.state == BreakerClosed {
			cb.mu.Unlock()
			return nil
		}
		resumeCh := cb.resumeCh
		cb.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-resumeCh:
		}
	}
}

// Resume closes the pause gate, resets the failure counter and unblocks
// all waiting workers.
func (cb *NetworkCircuitBreaker) Resume(resumedBy string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != BreakerPaused {
		return
	}

	pausedFor := time.Since(cb.pausedAt)
	cb.state = BreakerClosed
	cb.consecutiveFailures = 0
	metrics.SetBreakerPaused(false)

	// Broadcast to every waiting worker
	close(cb.resumeCh)
	cb.resumeCh = make(chan struct{})

	cb.logger.WithFields(logrus.Fields{
		"paused_for": pausedFor.String(),
		"resumed_by": resumedBy,
	}).Info("Circuit breaker resumed")

	for _, callback := range cb.resumeCallbacks {
		callback(pausedFor, resumedBy)
	}
}

// State returns the current breaker state
func (cb *NetworkCircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// IsPaused reports whether the breaker is currently paused
func (cb *NetworkCircuitBreaker) IsPaused() bool {
	return cb.State() == BreakerPaused
}

// ConsecutiveFailures returns the current failure count
func (cb *NetworkCircuitBreaker) ConsecutiveFailures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.consecutiveFailures
}

// OnPause registers a callback for breaker trips
func (cb *NetworkCircuitBreaker) OnPause(callback PauseCallback) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.pauseCallbacks = append(cb.pauseCallbacks, callback)
}

// OnResume registers a callback for operator resumes
func (cb *NetworkCircuitBreaker) OnResume(callback ResumeCallback) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.resumeCallbacks = append(cb.resumeCallbacks, callback)
}
