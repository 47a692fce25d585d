package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	manager := NewManager(filepath.Join(t.TempDir(), "absent.yaml"))

	cfg, err := manager.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "sqlite3:./data.db", cfg.DatabaseURL)
	assert.True(t, cfg.ScraperHeadless)
	assert.Equal(t, 3, cfg.ScraperScrollPasses)
	assert.Equal(t, "tiktok-import", cfg.CloudinaryFolder)
	assert.Equal(t, "*/15 * * * *", cfg.TrendingSchedule)
	assert.Equal(t, 15, cfg.TrendingLimit)
	assert.Equal(t, 10*time.Minute, cfg.TrendingTTL)
	assert.Equal(t, 90*time.Second, cfg.ExtractTimeout)
	assert.Equal(t, 2*time.Second, cfg.ScrollWait)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: "9090"
database:
  url: sqlite3:/tmp/ingest.db
scraper:
  headless: false
  scroll_passes: 5
  extract_timeout: 2m
cloudinary:
  cloud_name: demo
  folder: custom-folder
trending:
  schedule: "*/5 * * * *"
  limit: 30
  ttl: 3m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := NewManager(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "sqlite3:/tmp/ingest.db", cfg.DatabaseURL)
	assert.False(t, cfg.ScraperHeadless)
	assert.Equal(t, 5, cfg.ScraperScrollPasses)
	assert.Equal(t, 2*time.Minute, cfg.ExtractTimeout)
	assert.Equal(t, "demo", cfg.CloudinaryCloudName)
	assert.Equal(t, "custom-folder", cfg.CloudinaryFolder)
	assert.Equal(t, "*/5 * * * *", cfg.TrendingSchedule)
	assert.Equal(t, 30, cfg.TrendingLimit)
	assert.Equal(t, 3*time.Minute, cfg.TrendingTTL)
}

func TestLoadEnvOverridesSecrets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
cloudinary:
  cloud_name: from-file
  api_key: file-key
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("CLOUDINARY_CLOUD_NAME", "from-env")
	t.Setenv("CLOUDINARY_API_KEY", "env-key")

	cfg, err := NewManager(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.CloudinaryCloudName)
	assert.Equal(t, "env-key", cfg.CloudinaryAPIKey)
}

func TestLoadBadDurationFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
scraper:
  extract_timeout: not-a-duration
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := NewManager(path).Load()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.ExtractTimeout)
}
