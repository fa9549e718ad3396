package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/set-point/internal/config"
	"github.com/yourusername/set-point/internal/factors"
	"github.com/yourusername/set-point/internal/models"
	"github.com/yourusername/set-point/internal/provider"
)

// rankingStaleAfter marks a summary as stale when the provider has not
// refreshed it within this window.
const rankingStaleAfter = 45 * 24 * time.Hour

// ProfileBuilder assembles PlayerProfile values from provider data
type ProfileBuilder struct {
	provider     provider.StatisticsProvider
	factorEngine *factors.Engine
	cfg          *config.AnalysisConfig
	logger       *logrus.Logger
}

// NewProfileBuilder creates a profile builder
func NewProfileBuilder(statsProvider provider.StatisticsProvider, factorEngine *factors.Engine, cfg *config.AnalysisConfig, logger *logrus.Logger) *ProfileBuilder {
	return &ProfileBuilder{
		provider:     statsProvider,
		factorEngine: factorEngine,
		cfg:          cfg,
		logger:       logger,
	}
}

// Build fetches and assembles the full analysis profile for one player.
// A missing summary propagates models.ErrDataUnavailable; network failures
// propagate for circuit breaker accounting. Missing historical seasons are
// tolerated and recorded on the profile.
func (b *ProfileBuilder) Build(ctx context.Context, playerID string, surface string) (*models.PlayerProfile, error) {
	summary, err := b.provider.PlayerSummary(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("building profile for %s: %w", playerID, err)
	}

	profile := &models.PlayerProfile{
		ID:          summary.ID,
		Name:        summary.Name,
		Age:         summary.Age,
		CountryCode: summary.CountryCode,
		Ranking:     summary.Ranking,
		UTR:         summary.UTR,
		UTRVerified: summary.UTRVerified,
	}

	years, historicalFailed, err := b.fetchYears(ctx, playerID)
	if err != nil {
		return nil, err
	}
	profile.HistoricalFetchFailed = historicalFailed
	if len(years) > 0 {
		profile.CurrentYear = years[0]
	}
	profile.Blended = factors.BlendYears(years)

	recent, err := b.fetchRecentMatches(ctx, playerID)
	if err != nil {
		return nil, err
	}
	profile.RecentMatches = recent

	b.deriveScores(profile, surface)
	b.applyQualityFlags(profile, summary)

	return profile, nil
}

// fetchYears fetches the current and historical seasons. The current
// season is required; a failed historical fetch is recorded but does not
// abort the profile unless it was a network failure on the current year.
func (b *ProfileBuilder) fetchYears(ctx context.Context, playerID string) ([]models.YearStats, bool, error) {
	currentYear := time.Now().UTC().Year()
	years := make([]models.YearStats, 0, b.cfg.YearsBack+1)
	historicalFailed := false

	for offset := 0; offset <= b.cfg.YearsBack; offset++ {
		stats, err := b.provider.PlayerYearStats(ctx, playerID, currentYear-offset)
		if err != nil {
			if offset == 0 {
				if errors.Is(err, models.ErrDataUnavailable) {
					// No current-season record still allows historical data
					continue
				}
				return nil, false, err
			}
			if models.IsNetworkError(err) {
				historicalFailed = true
				b.logger.WithFields(logrus.Fields{
					"player_id": playerID,
					"year":      currentYear - offset,
				}).Warn("Historical stats fetch failed")
			}
			continue
		}
		years = append(years, *stats)
	}

	return years, historicalFailed, nil
}

// fetchRecentMatches fetches recent results; a provider without match
// history is tolerated.
func (b *ProfileBuilder) fetchRecentMatches(ctx context.Context, playerID string) ([]models.MatchResult, error) {
	recent, err := b.provider.PlayerRecentMatches(ctx, playerID, b.cfg.RecentMatchCount)
	if err != nil {
		if errors.Is(err, models.ErrDataUnavailable) {
			return nil, nil
		}
		return nil, err
	}
	return recent, nil
}

// deriveScores fills the derived profile fields from raw data
func (b *ProfileBuilder) deriveScores(profile *models.PlayerProfile, surface string) {
	clutch := b.factorEngine.Clutch(&profile.Blended, profile.HistoricalFetchFailed)
	profile.ClutchRate = clutch.Value
	profile.RecentForm = FormScore(profile.Ranking, profile.RecentMatches, clutch.Value, clutch.Status == factors.Computed)

	momentum := b.factorEngine.Momentum(profile.RecentMatches)
	profile.Momentum = momentum.Value

	surfaceResult := b.factorEngine.Surface(&profile.Blended, surface)
	profile.SurfaceWinRate = surfaceResult.Value
	if surfaceResult.Quality == factors.SurfaceNoData {
		profile.QualityFlags = append(profile.QualityFlags, models.FlagNoSurfaceData)
	}
}

// applyQualityFlags tags known data reliability problems
func (b *ProfileBuilder) applyQualityFlags(profile *models.PlayerProfile, summary *models.PlayerSummary) {
	if profile.Blended.Matches < 5 {
		profile.QualityFlags = append(profile.QualityFlags, models.FlagLowSampleSize)
	}
	if profile.Blended.ServePointsPlayed == 0 && profile.Blended.BreakPointsFaced == 0 {
		profile.QualityFlags = append(profile.QualityFlags, models.FlagMissingStatistics)
	}
	if summary.UTR > 0 && !summary.UTRVerified {
		profile.QualityFlags = append(profile.QualityFlags, models.FlagUnverifiedUTR)
	}
	if summary.UpdatedAt != nil && time.Since(*summary.UpdatedAt) > rankingStaleAfter {
		profile.QualityFlags = append(profile.QualityFlags, models.FlagStaleRanking)
	}
	if len(profile.RecentMatches) > 0 && profile.RecentForm < 20 {
		profile.QualityFlags = append(profile.QualityFlags, models.FlagTerribleForm)
	}
}
