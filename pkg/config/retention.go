package config

import (
	"os"
	"strconv"
	"time"
)

// RetentionConfig controls the background retention sweep (pkg/cleanup)
// that soft-deletes terminal Session rows and purges orphaned Event rows,
// storage lifecycle spec.md's data model is silent on (SPEC_FULL.md
// "Retention sweep").
type RetentionConfig struct {
	// SessionRetentionDays is how long a terminal (completed/cancelled/
	// failed/stopped) Session is kept before being soft-deleted.
	SessionRetentionDays int

	// EventRetentionDays is how long an Event row is kept after it was
	// written before being purged, whatever its Session's state.
	EventRetentionDays int

	// CleanupInterval is how often the sweep runs.
	CleanupInterval time.Duration
}

// DefaultRetentionConfig returns the retention defaults used when none is
// supplied, matching the teacher's own one-year/one-day/twelve-hour
// defaults for an analogous sweep.
func DefaultRetentionConfig() *RetentionConfig {
	return &RetentionConfig{
		SessionRetentionDays: 365,
		EventRetentionDays:   1,
		CleanupInterval:      12 * time.Hour,
	}
}

// loadRetentionConfigFromEnv layers SESSION_RETENTION_DAYS/
// EVENT_RETENTION_DAYS/CLEANUP_INTERVAL_HOURS onto DefaultRetentionConfig,
// the same environment-wins convention as applyEnvOverrides.
func loadRetentionConfigFromEnv() *RetentionConfig {
	cfg := DefaultRetentionConfig()
	if v := os.Getenv("SESSION_RETENTION_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SessionRetentionDays = n
		}
	}
	if v := os.Getenv("EVENT_RETENTION_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.EventRetentionDays = n
		}
	}
	if v := os.Getenv("CLEANUP_INTERVAL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CleanupInterval = time.Duration(n) * time.Hour
		}
	}
	return cfg
}
