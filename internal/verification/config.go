package verification

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"carbon-scribe/blue-carbon-verifier/pkg/geospatial"
)

var (
	// ErrInvalidConfig is returned when engine configuration cannot be used
	ErrInvalidConfig = errors.New("invalid verification config")
	// ErrNotFound is returned when a verification result does not exist
	ErrNotFound = errors.New("verification result not found")
)

const weightTolerance = 1e-6

// RateBand is an expected carbon sequestration band in tCO2e per hectare
type RateBand struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Contains reports whether v falls inside the band, edges included.
func (b RateBand) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// EcosystemProfile is the reference data for one ecosystem type
type EcosystemProfile struct {
	Name                string   `json:"name" yaml:"name"`
	Aliases             []string `json:"aliases,omitempty" yaml:"aliases"`
	LatitudeMin         float64  `json:"latitude_min" yaml:"latitude_min"`
	LatitudeMax         float64  `json:"latitude_max" yaml:"latitude_max"`
	CoastalDistanceMaxM float64  `json:"coastal_distance_max_m" yaml:"coastal_distance_max_m"`
	CarbonRate          RateBand `json:"carbon_rate" yaml:"carbon_rate"`
	Indicators          []string `json:"indicators" yaml:"indicators"`
	MonitoringChecklist []string `json:"monitoring_checklist,omitempty" yaml:"monitoring_checklist"`
}

// Thresholds are the overall score cutoffs for each category
type Thresholds struct {
	Excellent  float64 `json:"excellent" yaml:"excellent"`
	Good       float64 `json:"good" yaml:"good"`
	Acceptable float64 `json:"acceptable" yaml:"acceptable"`
}

// FabricationConfig tunes the fabricated-data heuristics
type FabricationConfig struct {
	HighSuspicionRatio  float64   `json:"high_suspicion_ratio" yaml:"high_suspicion_ratio"`
	SuspicionRatio      float64   `json:"suspicion_ratio" yaml:"suspicion_ratio"`
	RepeatedValueShare  float64   `json:"repeated_value_share" yaml:"repeated_value_share"`
	CanonicalFakeValues []float64 `json:"canonical_fake_values" yaml:"canonical_fake_values"`
	SizeUniformityCV    float64   `json:"size_uniformity_cv" yaml:"size_uniformity_cv"`
}

// LegitimacyConfig is the boost or penalty applied after weighting
type LegitimacyConfig struct {
	Boost                   float64 `json:"boost" yaml:"boost"`
	IdentityBonus           float64 `json:"identity_bonus" yaml:"identity_bonus"`
	SuspiciousPenalty       float64 `json:"suspicious_penalty" yaml:"suspicious_penalty"`
	HighlySuspiciousPenalty float64 `json:"highly_suspicious_penalty" yaml:"highly_suspicious_penalty"`
}

// Config is the read-only engine configuration shared across calls
type Config struct {
	Weights        map[Dimension]float64    `json:"weights" yaml:"weights"`
	Thresholds     Thresholds               `json:"thresholds" yaml:"thresholds"`
	CoastalBoxes   []geospatial.BoundingBox `json:"coastal_boxes" yaml:"coastal_boxes"`
	EquatorialBand float64                  `json:"equatorial_band" yaml:"equatorial_band"`
	Profiles       []EcosystemProfile       `json:"profiles" yaml:"profiles"`
	Fabrication    FabricationConfig        `json:"fabrication" yaml:"fabrication"`
	Legitimacy     LegitimacyConfig         `json:"legitimacy" yaml:"legitimacy"`
}

// DefaultWeights returns the recommended dimension weights
func DefaultWeights() map[Dimension]float64 {
	return map[Dimension]float64{
		DimensionLocation:     0.12,
		DimensionEcosystem:    0.18,
		DimensionCarbon:       0.18,
		DimensionMedia:        0.12,
		DimensionCompleteness: 0.15,
		DimensionTemporal:     0.10,
		DimensionField:        0.15,
		DimensionFraud:        0,
	}
}

// DefaultProfiles returns the built-in ecosystem profile table
func DefaultProfiles() []EcosystemProfile {
	return []EcosystemProfile{
		{
			Name:                "mangrove",
			Aliases:             []string{"mangroves"},
			LatitudeMin:         -30,
			LatitudeMax:         30,
			CoastalDistanceMaxM: 5000,
			CarbonRate:          RateBand{Min: 3, Max: 12},
			Indicators:          []string{"aerial_roots", "tidal_zone", "salt_tolerance"},
			MonitoringChecklist: []string{
				"Monitor tree survival rates and canopy cover",
				"Track sediment accretion and root development",
				"Measure water salinity and tidal patterns",
				"Document fish and crab populations",
			},
		},
		{
			Name:                "seagrass",
			LatitudeMin:         -60,
			LatitudeMax:         60,
			CoastalDistanceMaxM: 1000,
			CarbonRate:          RateBand{Min: 2, Max: 8},
			Indicators:          []string{"underwater_meadows", "shallow_water", "sand_sediment"},
			MonitoringChecklist: []string{
				"Monitor seagrass density and coverage",
				"Track water quality and transparency",
				"Measure sediment carbon content",
				"Document marine life biodiversity",
			},
		},
		{
			Name:                "salt_marsh",
			Aliases:             []string{"saltmarsh"},
			LatitudeMin:         -65,
			LatitudeMax:         65,
			CoastalDistanceMaxM: 2000,
			CarbonRate:          RateBand{Min: 4, Max: 10},
			Indicators:          []string{"halophytic_plants", "tidal_influence", "organic_soil"},
			MonitoringChecklist: []string{
				"Monitor plant species composition and coverage",
				"Track soil carbon accumulation",
				"Measure tidal influence and water levels",
				"Document bird populations and nesting",
			},
		},
		{
			Name:                "coastal_wetland",
			Aliases:             []string{"coastal_wetlands"},
			LatitudeMin:         -70,
			LatitudeMax:         70,
			CoastalDistanceMaxM: 10000,
			CarbonRate:          RateBand{Min: 2, Max: 8},
			Indicators:          []string{"wetland_vegetation", "water_table", "peat_soil"},
			MonitoringChecklist: []string{
				"Monitor vegetation establishment and growth",
				"Track water table levels and quality",
				"Measure soil organic matter content",
				"Document wildlife usage patterns",
			},
		},
	}
}

// DefaultConfig returns the in-code engine defaults
func DefaultConfig() Config {
	return Config{
		Weights: DefaultWeights(),
		Thresholds: Thresholds{
			Excellent:  85,
			Good:       70,
			Acceptable: 55,
		},
		CoastalBoxes: []geospatial.BoundingBox{
			{Name: "india", MinLat: 6, MaxLat: 37, MinLng: 68, MaxLng: 97},
		},
		EquatorialBand: 30,
		Profiles:       DefaultProfiles(),
		Fabrication: FabricationConfig{
			HighSuspicionRatio:  0.5,
			SuspicionRatio:      0.3,
			RepeatedValueShare:  0.6,
			CanonicalFakeValues: []float64{5},
			SizeUniformityCV:    0.1,
		},
		Legitimacy: LegitimacyConfig{
			Boost:                   5,
			IdentityBonus:           3,
			SuspiciousPenalty:       15,
			HighlySuspiciousPenalty: 25,
		},
	}
}

// Clone returns a deep copy of c that shares no maps or slices with it.
func (c Config) Clone() Config {
	out := c
	if c.Weights != nil {
		out.Weights = make(map[Dimension]float64, len(c.Weights))
		for dim, w := range c.Weights {
			out.Weights[dim] = w
		}
	}
	out.CoastalBoxes = append([]geospatial.BoundingBox(nil), c.CoastalBoxes...)
	out.Fabrication.CanonicalFakeValues = append([]float64(nil), c.Fabrication.CanonicalFakeValues...)
	if c.Profiles != nil {
		out.Profiles = make([]EcosystemProfile, len(c.Profiles))
		for i, p := range c.Profiles {
			p.Aliases = append([]string(nil), p.Aliases...)
			p.Indicators = append([]string(nil), p.Indicators...)
			p.MonitoringChecklist = append([]string(nil), p.MonitoringChecklist...)
			out.Profiles[i] = p
		}
	}
	return out
}

// Validate checks weights and thresholds. Every weighted dimension except
// fraud must be present; fraud defaults to 0 when absent.
func (c Config) Validate() error {
	var sum float64
	for _, dim := range ScoredDimensions {
		w, ok := c.Weights[dim]
		if !ok {
			if dim == DimensionFraud {
				continue
			}
			return fmt.Errorf("%w: missing weight for %s", ErrInvalidConfig, dim)
		}
		if w < 0 || math.IsNaN(w) {
			return fmt.Errorf("%w: weight for %s must be non-negative", ErrInvalidConfig, dim)
		}
		sum += w
	}
	for dim := range c.Weights {
		if !knownDimension(dim) {
			return fmt.Errorf("%w: unknown dimension %q", ErrInvalidConfig, dim)
		}
	}
	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %.4f, expected 1.0", ErrInvalidConfig, sum)
	}

	t := c.Thresholds
	if !(t.Excellent <= 100 && t.Excellent >= t.Good && t.Good >= t.Acceptable && t.Acceptable >= 0) {
		return fmt.Errorf("%w: thresholds must satisfy 100 >= excellent >= good >= acceptable >= 0", ErrInvalidConfig)
	}

	for _, p := range c.Profiles {
		if p.Name == "" {
			return fmt.Errorf("%w: ecosystem profile without name", ErrInvalidConfig)
		}
		if p.LatitudeMin > p.LatitudeMax || p.CarbonRate.Min > p.CarbonRate.Max {
			return fmt.Errorf("%w: ecosystem profile %s has inverted ranges", ErrInvalidConfig, p.Name)
		}
	}

	return nil
}

func knownDimension(dim Dimension) bool {
	for _, d := range ScoredDimensions {
		if d == dim {
			return true
		}
	}
	return false
}

type profileFile struct {
	Profiles []EcosystemProfile `yaml:"profiles"`
}

// LoadProfiles reads an ecosystem profile table from a YAML file
func LoadProfiles(path string) ([]EcosystemProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile table: %w", err)
	}

	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse profile table: %w", err)
	}
	if len(file.Profiles) == 0 {
		return nil, fmt.Errorf("%w: profile table %s is empty", ErrInvalidConfig, path)
	}

	return file.Profiles, nil
}
