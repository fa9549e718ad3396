package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/yourusername/set-point/internal/metrics"
	"github.com/yourusername/set-point/internal/models"
)

// CachedProvider decorates a StatisticsProvider with an in-memory TTL cache.
// Player records rarely change within a run, so a short TTL removes the
// bulk of repeat lookups when the same player appears in several matches.
type CachedProvider struct {
	inner     StatisticsProvider
	cache     *cache.Cache
	ttl       time.Duration
	maxSize   int
	mu        sync.RWMutex
	hitCount  uint64
	missCount uint64
}

// NewCachedProvider wraps a provider with caching
func NewCachedProvider(inner StatisticsProvider, ttl time.Duration, maxSize int) *CachedProvider {
	return &CachedProvider{
		inner:   inner,
		cache:   cache.New(ttl, ttl*2),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// PlayerSummary returns the cached profile record for a player
func (cp *CachedProvider) PlayerSummary(ctx context.Context, playerID string) (*models.PlayerSummary, error) {
	key := "summary:" + playerID
	if cached, ok := cp.lookup(key); ok {
		return cached.(*models.PlayerSummary), nil
	}
	summary, err := cp.inner.PlayerSummary(ctx, playerID)
	if err != nil {
		return nil, err
	}
	cp.store(key, summary)
	return summary, nil
}

// PlayerYearStats returns the cached aggregates for one season
func (cp *CachedProvider) PlayerYearStats(ctx context.Context, playerID string, year int) (*models.YearStats, error) {
	key := fmt.Sprintf("stats:%s:%d", playerID, year)
	if cached, ok := cp.lookup(key); ok {
		return cached.(*models.YearStats), nil
	}
	stats, err := cp.inner.PlayerYearStats(ctx, playerID, year)
	if err != nil {
		return nil, err
	}
	cp.store(key, stats)
	return stats, nil
}

// PlayerRecentMatches returns the cached recent matches for a player
func (cp *CachedProvider) PlayerRecentMatches(ctx context.Context, playerID string, limit int) ([]models.MatchResult, error) {
	key := fmt.Sprintf("recent:%s:%d", playerID, limit)
	if cached, ok := cp.lookup(key); ok {
		return cached.([]models.MatchResult), nil
	}
	results, err := cp.inner.PlayerRecentMatches(ctx, playerID, limit)
	if err != nil {
		return nil, err
	}
	cp.store(key, results)
	return results, nil
}

// HeadToHead returns the cached meetings between two players
func (cp *CachedProvider) HeadToHead(ctx context.Context, player1ID, player2ID string) ([]models.HeadToHeadMatch, error) {
	key := fmt.Sprintf("h2h:%s:%s", player1ID, player2ID)
	if cached, ok := cp.lookup(key); ok {
		return cached.([]models.HeadToHeadMatch), nil
	}
	meetings, err := cp.inner.HeadToHead(ctx, player1ID, player2ID)
	if err != nil {
		return nil, err
	}
	cp.store(key, meetings)
	return meetings, nil
}

// MatchVotes is not cached; sentiment moves during the day
func (cp *CachedProvider) MatchVotes(ctx context.Context, matchID string) (*models.CrowdVotes, error) {
	return cp.inner.MatchVotes(ctx, matchID)
}

// Stats returns cache statistics
func (cp *CachedProvider) Stats() (hits, misses uint64, ratio float64) {
	cp.mu.RLock()
	defer cp.mu.RUnlock()

	hits = cp.hitCount
	misses = cp.missCount
	total := hits + misses
	if total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

// Close releases the inner provider's resources
func (cp *CachedProvider) Close() error {
	if closer, ok := cp.inner.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// Clear flushes the entire cache
func (cp *CachedProvider) Clear() {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	cp.cache.Flush()
	cp.hitCount = 0
	cp.missCount = 0
}

func (cp *CachedProvider) lookup(key string) (interface{}, bool) {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	if value, found := cp.cache.Get(key); found {
		cp.hitCount++
		cp.updateMetrics()
		return value, true
	}
	cp.missCount++
	cp.updateMetrics()
	return nil, false
}

func (cp *CachedProvider) store(key string, value interface{}) {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	if cp.cache.ItemCount() >= cp.maxSize {
		cp.cache.DeleteExpired()
	}
	cp.cache.Set(key, value, cp.ttl)
}

func (cp *CachedProvider) updateMetrics() {
	total := cp.hitCount + cp.missCount
	if total > 0 {
		metrics.ProviderCacheHitRatio.Set(float64(cp.hitCount) / float64(total))
	}
}
