package usecase

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"tiktok_ingest/config"
	"tiktok_ingest/internal/domain"
	"tiktok_ingest/internal/logger"
)

// trendingQueries are rotated through when refreshing the trending feed.
// The search page has no dedicated trending endpoint, so a popular query
// stands in for one.
var trendingQueries = []string{"viral", "fyp", "trending", "funny", "dance"}

// SearchEngine runs a scrape query. Satisfied by scraper.Service.
type SearchEngine interface {
	Search(ctx context.Context, mode domain.SearchMode, query string, limit int) ([]domain.VideoRecord, error)
}

// TrendingCache serves a periodically refreshed snapshot of trending
// videos. Scrapes are slow and browser-bound, so callers always read from
// the cache; a stale snapshot is preferred over a failed refresh.
type TrendingCache struct {
	engine SearchEngine
	limit  int
	ttl    time.Duration

	mu        sync.RWMutex
	records   []domain.VideoRecord
	fetchedAt time.Time
}

// NewTrendingCache creates a cache with the configured limit and TTL.
func NewTrendingCache(cfg *config.Config, engine SearchEngine) *TrendingCache {
	return &TrendingCache{
		engine: engine,
		limit:  cfg.TrendingLimit,
		ttl:    cfg.TrendingTTL,
	}
}

// Refresh scrapes a fresh snapshot using one of the rotating queries.
func (c *TrendingCache) Refresh(ctx context.Context) error {
	query := trendingQueries[rand.Intn(len(trendingQueries))]

	records, err := c.engine.Search(ctx, domain.SearchModeKeyword, query, c.limit)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.records = records
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	logger.Info().Printf("Refreshed trending cache with %d videos (query %q)", len(records), query)
	return nil
}

// Get returns the cached snapshot, refreshing first when it is stale. A
// failed refresh falls back to the previous snapshot if one exists.
func (c *TrendingCache) Get(ctx context.Context) ([]domain.VideoRecord, error) {
	c.mu.RLock()
	fresh := !c.fetchedAt.IsZero() && time.Since(c.fetchedAt) < c.ttl
	records := c.records
	c.mu.RUnlock()

	if fresh {
		return records, nil
	}

	if err := c.Refresh(ctx); err != nil {
		c.mu.RLock()
		stale := c.records
		c.mu.RUnlock()

		if len(stale) > 0 {
			logger.Warn().Printf("Trending refresh failed, serving stale snapshot: %v", err)
			return stale, nil
		}
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.records, nil
}
