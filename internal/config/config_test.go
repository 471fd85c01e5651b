package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ahsmatch.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// chdir stands in for testing.T.Chdir, which needs Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	oldwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldwd) })
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, ValidateConfig(cfg))

	assert.Equal(t, "data/ahs.csv", cfg.Catalog.Path)
	assert.Equal(t, 500*time.Millisecond, cfg.Catalog.WatchDebounce())
	assert.Equal(t, 0.9, cfg.Thresholds.Single)
	assert.Equal(t, 0.6, cfg.Thresholds.Multi)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout())
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout())
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
}

func TestLoadAppliesFileOverDefaults(t *testing.T) {
	path := writeConfigFile(t, `
[catalog]
path = "/srv/ahs/catalog.csv"
sha256 = "5891b5b522d5df086d0ff0b110fbd9d21bb4fc7163af34d08286a2e846f6be03"
watch = true
watch_debounce_ms = 250

[thresholds]
single = 0.95

[embedding]
enabled = false
min_score = 0.7

[breakdown]
data_dir = "/srv/ahs/breakdown"

[server]
addr = ":9090"
allowed_origins = ["http://localhost:5173"]
rate_per_second = 5.0

[logging]
json = true
debug = true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/ahs/catalog.csv", cfg.Catalog.Path)
	assert.NotEmpty(t, cfg.Catalog.SHA256)
	assert.True(t, cfg.Catalog.Watch)
	assert.Equal(t, 250, cfg.Catalog.WatchDebounceMs)

	// Overridden fields take the file value, siblings keep their defaults.
	assert.Equal(t, 0.95, cfg.Thresholds.Single)
	assert.Equal(t, 0.6, cfg.Thresholds.Multi)
	assert.Equal(t, 5, cfg.Thresholds.Limit)

	assert.False(t, cfg.Embedding.Enabled)
	assert.Equal(t, 0.7, cfg.Embedding.MinScore)
	assert.NotZero(t, cfg.Embedding.Dim)

	assert.Equal(t, "/srv/ahs/breakdown", cfg.Breakdown.DataDir)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 5.0, cfg.Server.RatePerSecond)
	assert.Equal(t, DefaultRateBurst, cfg.Server.RateBurst)
	assert.Equal(t, int64(DefaultMaxBodyBytes), cfg.Server.MaxBodyBytes)

	assert.True(t, cfg.Logging.JSON)
	assert.True(t, cfg.Logging.Debug)
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "data/ahs.csv", cfg.Catalog.Path)
	assert.Equal(t, DefaultAddr, cfg.Server.Addr)
}

func TestLoadReadsDefaultFilenameFromWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	content := "[server]\naddr = \":7070\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFilename), []byte(content), 0o644))
	chdir(t, dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoadMalformedTOML(t *testing.T) {
	path := writeConfigFile(t, "[catalog\npath = ")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsOutOfRangeThreshold(t *testing.T) {
	path := writeConfigFile(t, "[thresholds]\nsingle = 1.5\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "single")
}
