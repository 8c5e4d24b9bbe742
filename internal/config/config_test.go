package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CLINIC_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "data", cfg.Paths.DataDir)
	assert.Equal(t, 5_000_000.0, cfg.Pipeline.VIPThreshold)
	assert.Equal(t, 10_000_000.0, cfg.Pipeline.VVIPThreshold)
	assert.Equal(t, 180, cfg.Pipeline.RecencyWindowDays)
	assert.Equal(t, "cohort", cfg.Pipeline.Strategy)
	assert.Equal(t, []float64{100000, 350000}, cfg.Pipeline.ReservationFees)
	assert.True(t, cfg.Pipeline.KPIPurposeAsPercent)
}

func TestLoad_FileWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
logging:
  level: debug
pipeline:
  vip_threshold: 3000000
  vvip_threshold: 8000000
  strategy: quantile
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	t.Setenv("CLINIC_CONFIG_FILE", configPath)
	t.Setenv("CLINIC_PIPELINE_STRATEGY", "cohort")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 3_000_000.0, cfg.Pipeline.VIPThreshold)
	assert.Equal(t, 8_000_000.0, cfg.Pipeline.VVIPThreshold)
	assert.Equal(t, "cohort", cfg.Pipeline.Strategy, "environment wins over file")
}

func TestLoad_RejectsInvalidStrategy(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("pipeline:\n  strategy: zscore\n"), 0644))
	t.Setenv("CLINIC_CONFIG_FILE", configPath)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}

func TestLoad_RejectsThresholdInversion(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := "pipeline:\n  vip_threshold: 9000000\n  vvip_threshold: 6000000\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	t.Setenv("CLINIC_CONFIG_FILE", configPath)

	_, err := Load()
	require.Error(t, err, "VVIP threshold must exceed VIP threshold")
}

func TestLoad_FileKeepsUnsetDefaults(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := "paths:\n  data_dir: /srv/clinic\npipeline:\n  recency_window_days: 90\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	t.Setenv("CLINIC_CONFIG_FILE", configPath)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/clinic", cfg.Paths.DataDir)
	assert.Equal(t, 90, cfg.Pipeline.RecencyWindowDays)
	assert.Equal(t, 5_000_000.0, cfg.Pipeline.VIPThreshold, "untouched keys keep defaults")
	assert.Equal(t, "cohort", cfg.Pipeline.Strategy)
}
