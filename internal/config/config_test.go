package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("THRESHOLDS_PATH", filepath.Join(t.TempDir(), "absent.yaml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.DryRun)
	assert.Equal(t, "https://gamma-api.polymarket.com", cfg.GammaAPIURL)
	assert.Equal(t, "127.0.0.1:8080", cfg.HTTPAddr)
	assert.Equal(t, "signals", cfg.Channel)
	assert.Equal(t, DefaultThresholds(), cfg.Thresholds)
}

func TestLoadRequiresTokenOutsideDryRun(t *testing.T) {
	t.Setenv("THRESHOLDS_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("DRY_RUN", "false")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_BOT_TOKEN")
}

func TestLoadParsesChatID(t *testing.T) {
	t.Setenv("THRESHOLDS_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("TELEGRAM_CHAT_ID", "-1001234567890")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(-1001234567890), cfg.TelegramChatID)

	t.Setenv("TELEGRAM_CHAT_ID", "not-a-number")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadThresholdsOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.yaml")
	doc := `
tier2:
  min_volume_24h: 50
  cache_ttl_minutes: 30
publisher:
  max_posts_per_day: 5
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	got, err := LoadThresholds(path)
	require.NoError(t, err)

	assert.Equal(t, 50.0, got.Tier2.MinVolume24h)
	assert.Equal(t, 30*time.Minute, got.Tier2.CacheTTL())
	assert.Equal(t, 5, got.Publisher.MaxPostsPerDay)

	// Everything not named in the file keeps its default.
	assert.Equal(t, 0.30, got.Tier2.DominancePromote)
	assert.Equal(t, 6, got.Gate.PublishScore)
	assert.Equal(t, 7*24*time.Hour, got.Publisher.DedupWindow())
}

func TestLoadThresholdsMissingFileFallsBack(t *testing.T) {
	got, err := LoadThresholds(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultThresholds(), got)
}

func TestLoadThresholdsMalformedFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tier2: ["), 0o644))

	_, err := LoadThresholds(path)
	assert.Error(t, err)
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_STR", "value")
	t.Setenv("X_BOOL", "yes")
	t.Setenv("X_INT", "42")
	t.Setenv("X_DUR", "90s")

	assert.Equal(t, "value", getEnv("X_STR", "fallback"))
	assert.Equal(t, "fallback", getEnv("X_MISSING", "fallback"))
	assert.True(t, getEnvBool("X_BOOL", false))
	assert.False(t, getEnvBool("X_MISSING", false))
	assert.Equal(t, 42, getEnvInt("X_INT", 7))
	assert.Equal(t, 7, getEnvInt("X_MISSING", 7))
	assert.Equal(t, 90*time.Second, getEnvDuration("X_DUR", time.Minute))
	assert.Equal(t, time.Minute, getEnvDuration("X_MISSING", time.Minute))
}
