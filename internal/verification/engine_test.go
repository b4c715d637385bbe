package verification

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carbon-scribe/blue-carbon-verifier/pkg/geospatial"
)

func TestEngine_PlausibleMangroveProject(t *testing.T) {
	engine := newTestEngine(t)

	result := engine.VerifyRaw(mangroveSubmission())

	assert.Equal(t, "VER-TEST-1", result.VerificationID)
	assert.Equal(t, "proj-mumbai-01", result.ProjectID)
	assert.Equal(t, fixedNow, result.VerifiedAt)

	d := result.DetailedScores
	assert.Equal(t, 45.0, d.Location.Score)
	assert.True(t, d.Location.CoastalProximity)
	assert.Equal(t, 75.0, d.Ecosystem.Score)
	assert.True(t, d.Ecosystem.LatitudeSuitable)
	assert.Equal(t, 45.0, d.Media.Score)
	assert.Equal(t, 35.0, d.Completeness.Score)
	assert.Equal(t, 90.0, d.Temporal.Score)
	assert.Equal(t, 85.0, d.Field.Score)
	assert.Equal(t, DataQualityGood, d.Field.DataQuality)

	assert.InDelta(t, 0.72, d.Fraud.Multiplier, 1e-9)
	assert.Equal(t, RiskLow, result.FraudRisk)

	assert.InDelta(t, 51.3, result.BaseScore, 1e-9)
	assert.InDelta(t, 59.3, result.OverallScore, 1e-9)
	assert.Equal(t, CategoryAcceptable, result.Category)
	assert.Equal(t, StatusRequiresReview, result.Status)

	require.NotNil(t, result.EcosystemAssessment)
	assert.Equal(t, "mangrove", result.EcosystemAssessment.Ecosystem)
	assert.Len(t, result.EcosystemAssessment.MonitoringChecklist, 4)
	assert.Equal(t, RateBand{Min: 3, Max: 12}, result.EcosystemAssessment.ExpectedCarbonRange)
}

func TestEngine_FabricatedMeasurementsDropScore(t *testing.T) {
	engine := newTestEngine(t)

	honest := engine.VerifyRaw(mangroveSubmission())

	raw := mangroveSubmission()
	raw["field_measurements"] = map[string]any{
		"water_quality": map[string]any{"ph_level": 5.0, "salinity": 5.0},
	}
	faked := engine.VerifyRaw(raw)

	assert.Equal(t, DataQualityHighlySuspicious, faked.DetailedScores.Field.DataQuality)
	assert.Equal(t, 5.0, faked.DetailedScores.Field.Score)
	assert.Contains(t, faked.Flags, "Field measurements show signs of fabricated data")
	assert.GreaterOrEqual(t, honest.OverallScore-faked.OverallScore, DefaultConfig().Legitimacy.HighlySuspiciousPenalty)
	assert.Equal(t, CategoryPoor, faked.Category)
	assert.Equal(t, StatusNeedsImprovement, faked.Status)
}

func TestEngine_LatitudeOutsideEcosystemRange(t *testing.T) {
	engine := newTestEngine(t)

	raw := mangroveSubmission()
	raw["location"] = map[string]any{"lat": 60.0, "lng": 10.0}
	result := engine.VerifyRaw(raw)

	assert.False(t, result.DetailedScores.Ecosystem.LatitudeSuitable)
	assert.False(t, result.DetailedScores.Ecosystem.CoastalProximity)
	assert.True(t, containsSubstring(result.DetailedScores.Ecosystem.Flags, "Latitude 60.00 is outside"))
	assert.True(t, containsSubstring(result.Flags, "Latitude 60.00 is outside"))
	require.NotNil(t, result.EcosystemAssessment)
	assert.False(t, result.EcosystemAssessment.LatitudeSuitable)
}

func TestEngine_NoEvidenceIsFlagged(t *testing.T) {
	engine := newTestEngine(t)

	raw := mangroveSubmission()
	delete(raw, "media_files")
	delete(raw, "field_measurements")
	result := engine.VerifyRaw(raw)

	assert.Contains(t, result.Flags, "No media files uploaded")
	assert.Contains(t, result.Flags, "No field measurements provided")
	assert.Equal(t, RiskCritical, result.FraudRisk)
	assert.Equal(t, StatusFlagged, result.Status)
	assert.Equal(t, CategoryPoor, result.Category)
}

func TestEngine_ScoreBoundsAndCategory(t *testing.T) {
	engine := newTestEngine(t)

	submissions := []RawSubmission{
		{},
		{"ecosystem_type": "kelp_forest"},
		{"location": "0,0", "area_hectares": -3},
		{"latitude": "91", "longitude": "200", "area_hectares": "lots"},
		mangroveSubmission(),
	}
	for _, raw := range submissions {
		result := engine.VerifyRaw(raw)

		assert.GreaterOrEqual(t, result.OverallScore, 0.0)
		assert.LessOrEqual(t, result.OverallScore, 100.0)
		assert.Equal(t, engine.Categorize(result.OverallScore), result.Category)
		for _, dim := range ScoredDimensions {
			score := result.DetailedScores.Sub(dim).Score
			assert.GreaterOrEqual(t, score, 0.0, dim)
			assert.LessOrEqual(t, score, 100.0, dim)
		}
		assert.GreaterOrEqual(t, result.DetailedScores.Fraud.Multiplier, 0.0)
		assert.LessOrEqual(t, result.DetailedScores.Fraud.Multiplier, 1.0)
	}
}

func TestEngine_MissingLocation(t *testing.T) {
	engine := newTestEngine(t)

	raw := mangroveSubmission()
	raw["location"] = map[string]any{"lat": 0.0, "lng": 0.0}
	result := engine.VerifyRaw(raw)

	assert.Equal(t, 0.0, result.DetailedScores.Location.Score)
	assert.False(t, result.DetailedScores.Location.CoordinatesValid)
	assert.Contains(t, result.Flags, "Invalid or missing GPS coordinates")
}

func TestEngine_UnknownEcosystemStillScoresOtherDimensions(t *testing.T) {
	engine := newTestEngine(t)

	raw := mangroveSubmission()
	raw["ecosystem_type"] = "kelp_forest"
	raw["estimated_carbon_credits"] = 50.0
	result := engine.VerifyRaw(raw)

	assert.Equal(t, 0.0, result.DetailedScores.Ecosystem.Score)
	assert.Contains(t, result.Flags, "Unknown ecosystem type: kelp_forest")
	assert.Equal(t, 0.0, result.DetailedScores.Carbon.Score)
	assert.Empty(t, result.DetailedScores.Carbon.Flags)
	assert.Nil(t, result.EcosystemAssessment)
	assert.Equal(t, 45.0, result.DetailedScores.Location.Score)
}

func TestEngine_EcosystemAliasAndIndicators(t *testing.T) {
	engine := newTestEngine(t)

	raw := mangroveSubmission()
	raw["ecosystem_type"] = "Mangroves"
	raw["description"] = "Replanting mangrove propagules with aerial roots across the tidal zone of the creek"
	result := engine.VerifyRaw(raw)

	eco := result.DetailedScores.Ecosystem
	assert.Equal(t, "mangrove", eco.Ecosystem)
	assert.ElementsMatch(t, []string{"aerial_roots", "tidal_zone"}, eco.IndicatorsFound)
	assert.True(t, eco.EcosystemMatch)
	assert.Equal(t, 100.0, eco.Score)
}

func TestEngine_Idempotent(t *testing.T) {
	engine := newTestEngine(t)
	raw := mangroveSubmission()

	first := engine.VerifyRaw(raw)
	second := engine.VerifyRaw(raw)

	assert.NotEqual(t, first.VerificationID, second.VerificationID)
	second.VerificationID = first.VerificationID
	assert.Equal(t, first, second)
}

func TestEngine_ResultSurvivesJSON(t *testing.T) {
	engine := newTestEngine(t)
	result := engine.VerifyRaw(mangroveSubmission())

	encoded, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded Result
	require.NoError(t, json.Unmarshal(encoded, &decoded))

	reencoded, err := json.Marshal(&decoded)
	require.NoError(t, err)
	assert.JSONEq(t, string(encoded), string(reencoded))
}

func TestEngine_AssessorPanicDegradesDimension(t *testing.T) {
	engine := newTestEngine(t)
	for i := range engine.assessors {
		if engine.assessors[i].dim == DimensionMedia {
			engine.assessors[i].run = func(*assessmentInput, *DetailedScores) {
				panic("boom")
			}
		}
	}

	result := engine.VerifyRaw(mangroveSubmission())

	assert.Equal(t, 0.0, result.DetailedScores.Media.Score)
	assert.Contains(t, result.DetailedScores.Media.Flags, "media_quality assessment could not be completed")
	assert.Contains(t, result.Flags, "media_quality assessment could not be completed")
	assert.Equal(t, 75.0, result.DetailedScores.Ecosystem.Score)
	assert.Equal(t, 85.0, result.DetailedScores.Field.Score)
}

func TestEngine_FraudPanicIsCritical(t *testing.T) {
	engine := newTestEngine(t)
	for i := range engine.assessors {
		if engine.assessors[i].dim == DimensionFraud {
			engine.assessors[i].run = func(*assessmentInput, *DetailedScores) {
				panic("boom")
			}
		}
	}

	result := engine.VerifyRaw(mangroveSubmission())

	assert.Equal(t, RiskCritical, result.FraudRisk)
	assert.Equal(t, StatusFlagged, result.Status)
}

func TestEngine_NilSubmission(t *testing.T) {
	engine := newTestEngine(t)

	result := engine.Verify(nil)

	require.NotNil(t, result)
	assert.Equal(t, CategoryPoor, result.Category)
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing weight", func(c *Config) { delete(c.Weights, DimensionMedia) }},
		{"negative weight", func(c *Config) {
			c.Weights[DimensionMedia] = -0.12
			c.Weights[DimensionLocation] = 0.36
		}},
		{"weights do not sum to one", func(c *Config) { c.Weights[DimensionMedia] = 0.5 }},
		{"unknown dimension", func(c *Config) { c.Weights["vibes"] = 0 }},
		{"unordered thresholds", func(c *Config) { c.Thresholds.Good = 90 }},
		{"inverted profile", func(c *Config) { c.Profiles[0].LatitudeMin = 40 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			_, err := NewEngine(cfg, zap.NewNop())
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestNewEngine_FraudWeightOptional(t *testing.T) {
	cfg := DefaultConfig()
	delete(cfg.Weights, DimensionFraud)

	_, err := NewEngine(cfg, nil)
	assert.NoError(t, err)
}

func TestNewEngine_CopiesConfig(t *testing.T) {
	cfg := DefaultConfig()
	engine, err := NewEngine(cfg, zap.NewNop())
	require.NoError(t, err)

	cfg.Weights[DimensionLocation] = 0.9
	cfg.CoastalBoxes[0] = geospatial.BoundingBox{Name: "europe", MinLat: 40, MaxLat: 50, MinLng: 0, MaxLng: 20}
	cfg.Fabrication.CanonicalFakeValues[0] = 7.2
	cfg.Profiles[0].Indicators[0] = "parking_lot"
	cfg.Profiles[0].Aliases[0] = "forest"

	assert.Equal(t, 0.12, engine.Config().Weights[DimensionLocation])
	assert.False(t, engine.isCoastal(&Location{Lat: 45, Lng: 10}))
	assert.Equal(t, []float64{5}, engine.Config().Fabrication.CanonicalFakeValues)
	assert.Equal(t, "aerial_roots", engine.Config().Profiles[0].Indicators[0])
	_, ok := engine.profiles.Lookup("forest")
	assert.False(t, ok)

	// copies handed out are independent of the engine too
	out := engine.Config()
	out.Weights[DimensionLocation] = 0.9
	out.CoastalBoxes[0].MaxLat = 90
	out.Profiles[0].Indicators[0] = "parking_lot"
	assert.Equal(t, 0.12, engine.Config().Weights[DimensionLocation])
	assert.Equal(t, DefaultConfig().CoastalBoxes, engine.Config().CoastalBoxes)
	assert.Equal(t, DefaultProfiles(), engine.Config().Profiles)
}

func TestDecideStatus(t *testing.T) {
	tests := []struct {
		category Category
		risk     RiskLevel
		want     Status
	}{
		{CategoryExcellent, RiskLow, StatusApproved},
		{CategoryGood, RiskMedium, StatusApproved},
		{CategoryGood, RiskHigh, StatusRequiresReview},
		{CategoryAcceptable, RiskLow, StatusRequiresReview},
		{CategoryPoor, RiskHigh, StatusNeedsImprovement},
		{CategoryExcellent, RiskCritical, StatusFlagged},
		{CategoryPoor, RiskCritical, StatusFlagged},
	}

	for _, tt := range tests {
		t.Run(string(tt.category)+"/"+string(tt.risk), func(t *testing.T) {
			assert.Equal(t, tt.want, DecideStatus(tt.category, tt.risk))
		})
	}
}

func TestEngine_Categorize(t *testing.T) {
	engine := newTestEngine(t)

	assert.Equal(t, CategoryExcellent, engine.Categorize(85))
	assert.Equal(t, CategoryGood, engine.Categorize(84.99))
	assert.Equal(t, CategoryGood, engine.Categorize(70))
	assert.Equal(t, CategoryAcceptable, engine.Categorize(55))
	assert.Equal(t, CategoryPoor, engine.Categorize(54.99))
}
