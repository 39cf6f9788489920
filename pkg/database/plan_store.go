package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/codeready-toolchain/tarsy/pkg/models"
)

// PlanStore backs the Action Cache (spec §4.5), keyed by cache_key. It
// satisfies pkg/cache.Store.
type PlanStore struct {
	db *sql.DB
}

// NewPlanStore returns a PlanStore backed by db.
func NewPlanStore(db *sql.DB) *PlanStore { return &PlanStore{db: db} }

// Get looks up a plan by cacheKey and, on hit, atomically increments
// success_count and bumps last_used_at per the Action Cache contract. A
// cache miss returns (nil, nil), not an error.
func (s *PlanStore) Get(ctx context.Context, cacheKey string) (*models.CachedPlan, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE cached_plans
		SET success_count = success_count + 1, last_used_at = $1
		WHERE cache_key = $2
		RETURNING cache_key, goal, url, actions, avg_duration_ms, success_count, last_used_at`,
		time.Now(), cacheKey,
	)

	var plan models.CachedPlan
	var actionsJSON []byte
	err := row.Scan(&plan.CacheKey, &plan.Goal, &plan.URL, &actionsJSON,
		&plan.AvgDurationMs, &plan.SuccessCount, &plan.LastUsedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("database: get cached plan: %w", err)
	}
	if err := json.Unmarshal(actionsJSON, &plan.Actions); err != nil {
		return nil, fmt.Errorf("database: unmarshal cached actions: %w", err)
	}
	return &plan, nil
}

// Put upserts a plan by cache_key. A no-op if actions is empty, per the
// Action Cache contract.
func (s *PlanStore) Put(ctx context.Context, goal, url string, actions []models.CachedAction, durationMs int64) error {
	if len(actions) == 0 {
		return nil
	}

	cacheKey := models.CacheKey(goal, url)
	actionsJSON, err := json.Marshal(actions)
	if err != nil {
		return fmt.Errorf("database: marshal cached actions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cached_plans (cache_key, goal, url, actions, avg_duration_ms, success_count, last_used_at)
		VALUES ($1, $2, $3, $4, $5, 1, $6)
		ON CONFLICT (cache_key) DO UPDATE SET
			actions = EXCLUDED.actions,
			avg_duration_ms = EXCLUDED.avg_duration_ms,
			last_used_at = EXCLUDED.last_used_at`,
		cacheKey, goal, url, actionsJSON, durationMs, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("database: put cached plan: %w", err)
	}
	return nil
}
