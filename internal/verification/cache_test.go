package verification

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_Expiry(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	defer cache.Close()

	now := fixedNow
	cache.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, &Result{VerificationID: "VER-1", OverallScore: 72}))

	got, ok := cache.Get(ctx, "VER-1")
	require.True(t, ok)
	assert.Equal(t, 72.0, got.OverallScore)

	_, ok = cache.Get(ctx, "VER-2")
	assert.False(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = cache.Get(ctx, "VER-1")
	assert.False(t, ok)
	assert.Equal(t, 1, cache.Size())

	cache.removeExpired()
	assert.Equal(t, 0, cache.Size())
}

func TestMemoryCache_CloseTwice(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	cache.Close()
	assert.NotPanics(t, cache.Close)
}

func TestMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	metrics.Observe(&Result{Category: CategoryGood, Status: StatusApproved, FraudRisk: RiskLow, OverallScore: 74})
	metrics.Observe(&Result{Category: CategoryGood, Status: StatusApproved, FraudRisk: RiskMedium, OverallScore: 71})
	metrics.Failure("cache")

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.verifications.WithLabelValues("good", "approved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.fraudRisk.WithLabelValues("medium")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.failures.WithLabelValues("cache")))
	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var metrics *Metrics
	assert.NotPanics(t, func() {
		metrics.Observe(&Result{})
		metrics.Failure("repository")
	})
}

func TestProfileTable_Lookup(t *testing.T) {
	table := NewProfileTable(DefaultProfiles())

	for _, tag := range []string{"mangrove", "Mangroves", " salt marsh ", "Salt-Marsh", "saltmarsh", "COASTAL_WETLANDS"} {
		_, ok := table.Lookup(tag)
		assert.True(t, ok, tag)
	}

	_, ok := table.Lookup("kelp_forest")
	assert.False(t, ok)

	var empty *ProfileTable
	_, ok = empty.Lookup("mangrove")
	assert.False(t, ok)
}

func TestMonitoringChecklist_GenericFallback(t *testing.T) {
	checklist := monitoringChecklist(&EcosystemProfile{Name: "oyster_reef"})
	assert.Equal(t, genericMonitoringChecklist, checklist)

	checklist[0] = "changed"
	assert.Equal(t, "Establish baseline measurements", genericMonitoringChecklist[0])
}

func TestLoadProfiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ecosystems.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
profiles:
  - name: oyster_reef
    aliases: [oyster_reefs]
    latitude_min: -45
    latitude_max: 45
    coastal_distance_max_m: 500
    carbon_rate: {min: 1, max: 4}
    indicators: [reef_structure, filter_feeders]
`), 0o600))

	profiles, err := LoadProfiles(path)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "oyster_reef", profiles[0].Name)
	assert.Equal(t, RateBand{Min: 1, Max: 4}, profiles[0].CarbonRate)
	assert.Equal(t, []string{"oyster_reefs"}, profiles[0].Aliases)

	cfg := DefaultConfig()
	cfg.Profiles = profiles
	engine, err := NewEngine(cfg, nil)
	require.NoError(t, err)

	result := engine.VerifyRaw(RawSubmission{
		"ecosystem_type": "Oyster Reefs",
		"location":       "19.07,72.88",
	})
	require.NotNil(t, result.EcosystemAssessment)
	assert.Equal(t, "oyster_reef", result.EcosystemAssessment.Ecosystem)
	assert.Equal(t, genericMonitoringChecklist, result.EcosystemAssessment.MonitoringChecklist)
}

func TestLoadProfiles_ShippedTableMatchesDefaults(t *testing.T) {
	profiles, err := LoadProfiles(filepath.Join("..", "..", "configs", "ecosystems.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultProfiles(), profiles)
}

func TestLoadProfiles_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadProfiles(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("profiles: []\n"), 0o600))
	_, err = LoadProfiles(empty)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
