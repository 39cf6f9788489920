package cache

import (
	"context"
	"sync"
	"time"

	"github.com/codeready-toolchain/tarsy/pkg/models"
)

// MemoryStore is an in-process Store implementation, used by tests and the
// non-durable local-dev path. Safe for concurrent use.
type MemoryStore struct {
	mu    sync.Mutex
	plans map[string]models.CachedPlan
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{plans: make(map[string]models.CachedPlan)}
}

// Get returns the stored plan for cacheKey, incrementing success_count and
// bumping last_used_at on hit. A miss returns (nil, nil).
func (m *MemoryStore) Get(ctx context.Context, cacheKey string) (*models.CachedPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	plan, ok := m.plans[cacheKey]
	if !ok {
		return nil, nil
	}
	plan.SuccessCount++
	plan.LastUsedAt = time.Now()
	m.plans[cacheKey] = plan

	cp := plan
	cp.Actions = append([]models.CachedAction(nil), plan.Actions...)
	return &cp, nil
}

// Put upserts a plan by its derived cache_key. No-op if actions is empty.
func (m *MemoryStore) Put(ctx context.Context, goal, url string, actions []models.CachedAction, durationMs int64) error {
	if len(actions) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cacheKey := models.CacheKey(goal, url)
	existing, ok := m.plans[cacheKey]
	successCount := 1
	if ok {
		successCount = existing.SuccessCount
	}

	m.plans[cacheKey] = models.CachedPlan{
		CacheKey:      cacheKey,
		Goal:          goal,
		URL:           url,
		Actions:       append([]models.CachedAction(nil), actions...),
		AvgDurationMs: durationMs,
		SuccessCount:  successCount,
		LastUsedAt:    time.Now(),
	}
	return nil
}
