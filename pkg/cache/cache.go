// Package cache implements the Action Cache: memoized low-level replay
// plans keyed by the goal-and-URL pair (spec §4.5).
package cache

import (
	"context"

	"github.com/codeready-toolchain/tarsy/pkg/models"
)

// Store is the narrow persistence interface the Action Cache needs - a
// Postgres-backed implementation lives in pkg/database.PlanStore; an
// in-memory implementation lives alongside it in this package for tests
// and for the non-durable local-dev path.
type Store interface {
	Get(ctx context.Context, cacheKey string) (*models.CachedPlan, error)
	Put(ctx context.Context, goal, url string, actions []models.CachedAction, durationMs int64) error
}

// ActionCache memoizes successful low-level plans (spec §4.5).
type ActionCache struct {
	store Store
}

// New returns an ActionCache backed by store.
func New(store Store) *ActionCache {
	return &ActionCache{store: store}
}

// Get looks up the plan for (goal, url). On a miss it returns (nil, nil)
// rather than an error - a cache miss is an expected outcome, not a
// failure.
func (c *ActionCache) Get(ctx context.Context, goal, url string) (*models.CachedPlan, error) {
	cacheKey := models.CacheKey(goal, url)
	return c.store.Get(ctx, cacheKey)
}

// Put upserts a plan by its derived cache_key. No-op if actions is empty.
func (c *ActionCache) Put(ctx context.Context, goal, url string, actions []models.CachedAction, durationMs int64) error {
	return c.store.Put(ctx, goal, url, actions, durationMs)
}
