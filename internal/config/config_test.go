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
	chdir(t, t.TempDir())
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 2, cfg.Crawler.Retries)
	assert.Equal(t, int64(5*1024*1024), cfg.Crawler.SizeCap)
	assert.Equal(t, "data/crawled_data.json", cfg.Bootstrap.Path)
	assert.Empty(t, cfg.OpenAI.APIKey)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "configs"), 0o755))
	yaml := "server:\n  addr: \":9090\"\ncatalog:\n  path: taxonomy.owl\ncrawler:\n  retries: 4\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("TAXO_LOGGING_LEVEL", "debug")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "taxonomy.owl", cfg.Catalog.Path)
	assert.Equal(t, 4, cfg.Crawler.Retries)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
}

func TestLoadInvalid(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TAXO_LOGGING_FORMAT", "xml")
	_, err := Load()
	assert.ErrorContains(t, err, "logging.format")
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}
