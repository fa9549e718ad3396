package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/set-point/internal/config"
	"github.com/yourusername/set-point/internal/metrics"
	"github.com/yourusername/set-point/internal/models"
)

// HTTPStatisticsProvider implements StatisticsProvider against the remote
// JSON statistics API.
type HTTPStatisticsProvider struct {
	baseURL string
	apiKey  string
	client  *RateLimitedHTTPClient
	logger  *logrus.Logger
}

// NewHTTPStatisticsProvider creates a provider from configuration
func NewHTTPStatisticsProvider(cfg *config.ProviderConfig, logger *logrus.Logger) *HTTPStatisticsProvider {
	clientCfg := DefaultHTTPClientConfig()
	clientCfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	clientCfg.MaxRetries = cfg.MaxRetries
	clientCfg.RateLimit = cfg.RateLimit

	return &HTTPStatisticsProvider{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  NewRateLimitedHTTPClient(clientCfg, logger),
		logger:  logger,
	}
}

// PlayerSummary returns the profile record for a player
func (p *HTTPStatisticsProvider) PlayerSummary(ctx context.Context, playerID string) (*models.PlayerSummary, error) {
	var summary models.PlayerSummary
	path := fmt.Sprintf("/players/%s", url.PathEscape(playerID))
	if err := p.getJSON(ctx, path, nil, &summary); err != nil {
		return nil, fmt.Errorf("player summary for %s: %w", playerID, err)
	}
	return &summary, nil
}

// PlayerYearStats returns the raw aggregates for one season
func (p *HTTPStatisticsProvider) PlayerYearStats(ctx context.Context, playerID string, year int) (*models.YearStats, error) {
	var stats models.YearStats
	path := fmt.Sprintf("/players/%s/stats/%d", url.PathEscape(playerID), year)
	if err := p.getJSON(ctx, path, nil, &stats); err != nil {
		return nil, fmt.Errorf("year stats for %s/%d: %w", playerID, year, err)
	}
	stats.Year = year
	return &stats, nil
}

// PlayerRecentMatches returns the player's most recent completed matches
func (p *HTTPStatisticsProvider) PlayerRecentMatches(ctx context.Context, playerID string, limit int) ([]models.MatchResult, error) {
	var results []models.MatchResult
	path := fmt.Sprintf("/players/%s/matches", url.PathEscape(playerID))
	query := url.Values{"limit": []string{fmt.Sprintf("%d", limit)}}
	if err := p.getJSON(ctx, path, query, &results); err != nil {
		return nil, fmt.Errorf("recent matches for %s: %w", playerID, err)
	}
	return results, nil
}

// HeadToHead returns prior meetings between two players, newest first
func (p *HTTPStatisticsProvider) HeadToHead(ctx context.Context, player1ID, player2ID string) ([]models.HeadToHeadMatch, error) {
	var meetings []models.HeadToHeadMatch
	path := fmt.Sprintf("/h2h/%s/%s", url.PathEscape(player1ID), url.PathEscape(player2ID))
	if err := p.getJSON(ctx, path, nil, &meetings); err != nil {
		return nil, fmt.Errorf("head to head %s vs %s: %w", player1ID, player2ID, err)
	}
	return meetings, nil
}

// MatchVotes returns the crowd sentiment split for a match
func (p *HTTPStatisticsProvider) MatchVotes(ctx context.Context, matchID string) (*models.CrowdVotes, error) {
	var votes models.CrowdVotes
	path := fmt.Sprintf("/matches/%s/votes", url.PathEscape(matchID))
	if err := p.getJSON(ctx, path, nil, &votes); err != nil {
		return nil, fmt.Errorf("match votes for %s: %w", matchID, err)
	}
	return &votes, nil
}

// Close releases HTTP client resources
func (p *HTTPStatisticsProvider) Close() error {
	return p.client.Close()
}

// getJSON fetches and decodes a single API resource. 404 maps to
// ErrDataUnavailable; transport failures map to ErrNetworkFailure so the
// batch circuit breaker can classify them.
func (p *HTTPStatisticsProvider) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	endpoint := p.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	headers := http.Header{}
	if p.apiKey != "" {
		headers.Set("X-Api-Key", p.apiKey)
	}

	resp, err := p.client.Get(ctx, endpoint, headers)
	if err != nil {
		metrics.RecordProviderRequest("network_error")
		return fmt.Errorf("%w: %v", models.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		metrics.RecordProviderRequest("not_found")
		return models.ErrDataUnavailable
	case resp.StatusCode != http.StatusOK:
		metrics.RecordProviderRequest("error")
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.RecordProviderRequest("error")
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}

	metrics.RecordProviderRequest("success")
	return nil
}
