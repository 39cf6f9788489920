package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/tarsy/pkg/models"
)

func TestActionCache_GetMissReturnsNilWithoutError(t *testing.T) {
	c := New(NewMemoryStore())

	plan, err := c.Get(context.Background(), "click login", "https://example.com")
	require.NoError(t, err)
	assert.Nil(t, plan)
}

func TestActionCache_PutThenGetRoundTrips(t *testing.T) {
	c := New(NewMemoryStore())
	ctx := context.Background()

	actions := []models.CachedAction{
		{Type: models.CachedActionClick, X: 10, Y: 20},
		{Type: models.CachedActionTypeText, Text: "hello"},
	}
	require.NoError(t, c.Put(ctx, "Submit Form", "https://example.com/form", actions, 1200))

	plan, err := c.Get(ctx, "submit form", "https://example.com/form")
	require.NoError(t, err)
	require.NotNil(t, plan)
	assert.Equal(t, actions, plan.Actions)
	assert.Equal(t, int64(1200), plan.AvgDurationMs)
}

func TestActionCache_PutIsNoOpWithEmptyActions(t *testing.T) {
	c := New(NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "goal", "https://example.com", nil, 500))

	plan, err := c.Get(ctx, "goal", "https://example.com")
	require.NoError(t, err)
	assert.Nil(t, plan)
}

func TestActionCache_GetIncrementsSuccessCountAndBumpsLastUsed(t *testing.T) {
	c := New(NewMemoryStore())
	ctx := context.Background()

	actions := []models.CachedAction{{Type: models.CachedActionClick, X: 1, Y: 1}}
	require.NoError(t, c.Put(ctx, "goal", "https://example.com", actions, 100))

	first, err := c.Get(ctx, "goal", "https://example.com")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 2, first.SuccessCount) // Put seeds 1, first Get increments to 2

	second, err := c.Get(ctx, "goal", "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, 3, second.SuccessCount)
}

func TestActionCache_CaseFoldsGoalButNotURL(t *testing.T) {
	c := New(NewMemoryStore())
	ctx := context.Background()

	actions := []models.CachedAction{{Type: models.CachedActionClick, X: 1, Y: 1}}
	require.NoError(t, c.Put(ctx, "Click Login", "https://example.com/login", actions, 100))

	plan, err := c.Get(ctx, "  click login  ", "https://example.com/login")
	require.NoError(t, err)
	assert.NotNil(t, plan, "goal casing/whitespace should not affect the cache key")

	plan, err = c.Get(ctx, "click login", "https://example.com/login/")
	require.NoError(t, err)
	assert.Nil(t, plan, "a byte-differing URL must miss")
}

func TestMemoryStore_ReturnedPlanActionsAreNotAliasedToInternalState(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	actions := []models.CachedAction{{Type: models.CachedActionClick, X: 1, Y: 1}}
	cacheKey := models.CacheKey("goal", "https://example.com")
	require.NoError(t, store.Put(ctx, "goal", "https://example.com", actions, 100))

	plan, err := store.Get(ctx, cacheKey)
	require.NoError(t, err)
	plan.Actions[0].X = 999

	replan, err := store.Get(ctx, cacheKey)
	require.NoError(t, err)
	assert.Equal(t, float64(1), replan.Actions[0].X, "mutating a returned plan must not corrupt stored state")
}
