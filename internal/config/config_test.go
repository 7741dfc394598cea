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
	t.Setenv("SALARYDASH_ENV", "test")
	t.Setenv("SALARYDASH_CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, DefaultSource, cfg.Data.Source)
	assert.Equal(t, 30*time.Second, cfg.Data.FetchTimeout)
	assert.Equal(t, 10, cfg.Data.TopN)
	assert.Equal(t, 20, cfg.Data.HistogramBins)
	assert.False(t, cfg.Data.Watch)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "auto", cfg.Logging.Format)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SALARYDASH_ENV", "production")
	t.Setenv("SALARYDASH_SERVER_PORT", "9090")
	t.Setenv("SALARYDASH_DATA_SOURCE", "/srv/dados.csv")
	t.Setenv("SALARYDASH_DATA_TOP_N", "5")
	t.Setenv("SALARYDASH_DATA_WATCH", "true")
	t.Setenv("SALARYDASH_LOGGING_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/srv/dados.csv", cfg.Data.Source)
	assert.Equal(t, 5, cfg.Data.TopN)
	assert.True(t, cfg.Data.Watch)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.IsProduction())
}

func TestLoadFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "salarydash.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 7000
data:
  source: ./dados.csv
  fetch_timeout: 5s
  refresh_schedule: "@daily"
`), 0o644))

	t.Setenv("SALARYDASH_ENV", "test")
	t.Setenv("SALARYDASH_CONFIG_FILE", path)
	t.Setenv("SALARYDASH_DATA_TOP_N", "7")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "./dados.csv", cfg.Data.Source)
	assert.Equal(t, 5*time.Second, cfg.Data.FetchTimeout)
	assert.Equal(t, "@daily", cfg.Data.RefreshSchedule)
	// Keys absent from the file keep the env value.
	assert.Equal(t, 7, cfg.Data.TopN)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "port out of range", key: "SALARYDASH_SERVER_PORT", val: "70000"},
		{name: "top n zero", key: "SALARYDASH_DATA_TOP_N", val: "0"},
		{name: "unknown log level", key: "SALARYDASH_LOGGING_LEVEL", val: "loud"},
		{name: "unknown env", key: "SALARYDASH_ENV", val: "staging"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SALARYDASH_ENV", "test")
			t.Setenv("SALARYDASH_CONFIG_FILE", "")
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validation")
		})
	}
}

func TestLoadBadEnvValue(t *testing.T) {
	t.Setenv("SALARYDASH_ENV", "test")
	t.Setenv("SALARYDASH_SERVER_PORT", "eighty")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "env")
}
