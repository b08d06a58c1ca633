package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCollectsNumberedKeysInOrder(t *testing.T) {
	t.Setenv("RECIPE_API_KEY_1", "key-one")
	t.Setenv("RECIPE_API_KEY_2", "key-two")
	t.Setenv("RECIPE_API_KEY_3", "key-three")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"key-one", "key-two", "key-three"}, cfg.RecipeAPIKeys)
}

func TestLoadStopsAtFirstGap(t *testing.T) {
	t.Setenv("RECIPE_API_KEY_1", "key-one")
	// RECIPE_API_KEY_2 deliberately unset
	t.Setenv("RECIPE_API_KEY_3", "key-three")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"key-one"}, cfg.RecipeAPIKeys)
}

func TestLoadFailsWithoutAnyKey(t *testing.T) {
	t.Setenv("RECIPE_API_KEY_1", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no recipe API keys configured")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RECIPE_API_KEY_1", "key-one")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 60, cfg.RecipeRateLimit)
	assert.Equal(t, 30*time.Minute, cfg.CacheTTL)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("RECIPE_API_KEY_1", "key-one")
	t.Setenv("PORT", "9090")
	t.Setenv("RECIPE_RATE_LIMIT", "120")
	t.Setenv("CACHE_TTL", "5m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 120, cfg.RecipeRateLimit)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
}
