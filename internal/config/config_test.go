package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carbon-scribe/blue-carbon-verifier/internal/verification"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"server": {"port": 7000},
		"redis": {"addr": "cache:6379"},
		"workers": {"rescore_batch_size": 25}
	}`)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("NOTIFICATIONS_PROVIDER", "ses")

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 25, cfg.Workers.RescoreBatchSize)
	assert.Equal(t, "0 0 2 * * *", cfg.Workers.RescoreSchedule)
	assert.Equal(t, "ses", cfg.Notifications.Provider)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))

	require.NoError(t, err)
	assert.Equal(t, "log", cfg.Notifications.Provider)
	assert.Equal(t, 100, cfg.Notifications.QueueSize)
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	_, err := LoadConfig(writeFile(t, "config.json", `{"server":`))
	assert.Error(t, err)
}

func TestDatabaseConfig_GetDatabaseURL(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5432, User: "verifier", Password: "secret", DBName: "blue", SSLMode: "require"}
	assert.Equal(t, "postgres://verifier:secret@db:5432/blue?sslmode=require", db.GetDatabaseURL())
}

func TestLoggingConfig_NewLogger(t *testing.T) {
	logger, err := (&LoggingConfig{Level: "debug", Development: true}).NewLogger()
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = (&LoggingConfig{Level: "loud"}).NewLogger()
	assert.Error(t, err)
}

func TestVerificationConfig_EngineConfig(t *testing.T) {
	profiles := writeFile(t, "ecosystems.yaml", `
profiles:
  - name: mangrove
    latitude_min: -32
    latitude_max: 32
    coastal_distance_max_m: 5000
    carbon_rate: {min: 3, max: 12}
    indicators: [aerial_roots]
`)

	vc := VerificationConfig{
		Weights: map[string]float64{
			"location_accuracy":       0.10,
			"ecosystem_suitability":   0.15,
			"carbon_estimate_realism": 0.15,
			"media_quality":           0.10,
			"data_completeness":       0.15,
			"temporal_consistency":    0.10,
			"field_measurements":      0.15,
			"fraud_detection":         0.10,
		},
		Thresholds:   &verification.Thresholds{Excellent: 90, Good: 75, Acceptable: 60},
		ProfilesPath: profiles,
	}

	cfg, err := vc.EngineConfig()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0.10, cfg.Weights[verification.DimensionFraud])
	assert.Equal(t, 90.0, cfg.Thresholds.Excellent)
	require.Len(t, cfg.Profiles, 1)
	assert.Equal(t, -32.0, cfg.Profiles[0].LatitudeMin)
	assert.Equal(t, verification.DefaultConfig().CoastalBoxes, cfg.CoastalBoxes)
}

func TestVerificationConfig_EngineConfigDefaults(t *testing.T) {
	cfg, err := (&VerificationConfig{}).EngineConfig()

	require.NoError(t, err)
	assert.Equal(t, verification.DefaultConfig(), cfg)
}

func TestVerificationConfig_MissingProfiles(t *testing.T) {
	_, err := (&VerificationConfig{ProfilesPath: filepath.Join(t.TempDir(), "nope.yaml")}).EngineConfig()
	assert.Error(t, err)
}
