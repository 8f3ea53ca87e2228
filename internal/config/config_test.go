package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenDefaultFileMissing(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "EUR", cfg.ReportingCurrency)
	assert.Equal(t, 100, cfg.Import.ChunkSize)
	assert.Equal(t, time.Hour, cfg.Rates.LatestTTL)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	content := `
port: "9090"
reporting_currency: RON
rates:
  latest_ttl: 5m
import:
  chunk_size: 25
vat_overrides:
  - country: CH
    rate: 8.1
    refundable: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("DB_PATH", "/tmp/other.db")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "RON", cfg.ReportingCurrency)
	assert.Equal(t, 5*time.Minute, cfg.Rates.LatestTTL)
	assert.Equal(t, 25, cfg.Import.ChunkSize)
	assert.Equal(t, "/tmp/other.db", cfg.DBPath)
	assert.Equal(t, "json", cfg.LogFormat)
	require.Len(t, cfg.VATOverrides, 1)
	assert.True(t, cfg.VATOverrides[0].Refundable)
	// untouched nested defaults survive a partial file
	assert.Equal(t, "RON", cfg.Rates.FeedBase)
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("import:\n  chunk_size: 0\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("log_format: xml\n"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
