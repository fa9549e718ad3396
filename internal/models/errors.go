package models

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"
)

// Custom errors
var (
	ErrDataUnavailable    = errors.New("statistics unavailable for player")
	ErrInsufficientSample = errors.New("insufficient sample size")
	ErrNetworkFailure     = errors.New("network failure contacting statistics provider")
	ErrMarketNotFound     = errors.New("no market found for match")
	ErrAnalysisPaused     = errors.New("analysis paused by circuit breaker")
	ErrNotFound           = errors.New("record not found")
	ErrDuplicateKey       = errors.New("duplicate key violation")
	ErrInvalidID          = errors.New("invalid ID format")
)

// networkErrorPatterns are substrings that identify transport-level failures
// when the underlying error type has been flattened to a string by a client
// library.
var networkErrorPatterns = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"network is unreachable",
	"i/o timeout",
	"tls handshake timeout",
	"dial tcp",
}

// IsNetworkError reports whether err represents a transport-level failure
// (DNS resolution, timeout, refused connection) as opposed to the provider
// answering with "no data". Only network-class failures count toward the
// batch circuit breaker.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNetworkFailure) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	// Truncated responses from a dropped connection surface as EOF
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range networkErrorPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
