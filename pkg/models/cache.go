package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// CachedActionType is the closed tagged-union discriminator for a replay
// step (spec §9 "Polymorphism over actions" — modeled explicitly, never by
// field presence).
type CachedActionType string

const (
	CachedActionClick    CachedActionType = "click"
	CachedActionTypeText CachedActionType = "type_text"
	CachedActionKeyPress CachedActionType = "key_press"
)

// CachedAction is one step of a replayable low-level plan. Exactly one of
// the variant-specific fields is populated, selected by Type. WaitMs, when
// non-zero, overrides the replayer's default post-action delay.
type CachedAction struct {
	Type CachedActionType `json:"type"`

	// click
	X float64 `json:"x,omitempty"`
	Y float64 `json:"y,omitempty"`

	// type_text
	Text string `json:"text,omitempty"`

	// key_press
	Key string `json:"key,omitempty"`

	WaitMs int `json:"wait_ms,omitempty"`
}

// CachedPlan is a previously successful low-level action sequence, keyed
// by goal+URL (spec §3 Cached Plan).
type CachedPlan struct {
	CacheKey     string         `json:"cache_key"`
	Goal         string         `json:"goal"`
	URL          string         `json:"url"`
	Actions      []CachedAction `json:"actions"`
	AvgDurationMs int64         `json:"avg_duration_ms"`
	SuccessCount int            `json:"success_count"`
	LastUsedAt   time.Time      `json:"last_used_at"`
}

// CacheKey derives the content address for a (goal, url) pair: the goal is
// case-folded and trimmed, the URL is preserved byte-exact (only trimmed),
// per spec §3 and §4.5.
func CacheKey(goal, url string) string {
	normGoal := strings.ToLower(strings.TrimSpace(goal))
	normURL := strings.TrimSpace(url)
	sum := sha256.Sum256([]byte(normGoal + "|" + normURL))
	return hex.EncodeToString(sum[:])
}
