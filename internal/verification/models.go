package verification

import (
	"math"
	"time"
)

// =====================================================
// Enums and Constants
// =====================================================

// Dimension identifies one sub-assessor in a verification result
type Dimension string

const (
	DimensionLocation     Dimension = "location_accuracy"
	DimensionEcosystem    Dimension = "ecosystem_suitability"
	DimensionCarbon       Dimension = "carbon_estimate_realism"
	DimensionMedia        Dimension = "media_quality"
	DimensionCompleteness Dimension = "data_completeness"
	DimensionTemporal     Dimension = "temporal_consistency"
	DimensionField        Dimension = "field_measurements"
	DimensionFraud        Dimension = "fraud_detection"
)

// ScoredDimensions lists the dimensions in aggregation order.
var ScoredDimensions = []Dimension{
	DimensionLocation,
	DimensionEcosystem,
	DimensionCarbon,
	DimensionMedia,
	DimensionCompleteness,
	DimensionTemporal,
	DimensionField,
	DimensionFraud,
}

// Category is the decision tier derived from the overall score
type Category string

const (
	CategoryExcellent  Category = "excellent"
	CategoryGood       Category = "good"
	CategoryAcceptable Category = "acceptable"
	CategoryPoor       Category = "poor"
)

// Status is the workflow outcome attached to a verification result
type Status string

const (
	StatusApproved         Status = "approved"
	StatusRequiresReview   Status = "requires_review"
	StatusNeedsImprovement Status = "needs_improvement"
	StatusFlagged          Status = "flagged"
)

// DataQuality is the field measurement integrity label
type DataQuality string

const (
	DataQualityGood             DataQuality = "good"
	DataQualityQuestionable     DataQuality = "questionable"
	DataQualitySuspicious       DataQuality = "suspicious"
	DataQualityHighlySuspicious DataQuality = "highly_suspicious"
	DataQualityMissing          DataQuality = "missing"
)

// RiskLevel is the fraud risk tier
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// =====================================================
// Canonical submission
// =====================================================

// Location is a WGS84 point
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// MediaItem describes one piece of evidence. Only metadata is inspected.
type MediaItem struct {
	Kind      string    `json:"kind"`
	Name      string    `json:"name,omitempty"`
	Size      float64   `json:"size,omitempty"`
	Location  *Location `json:"location,omitempty"`
	Geotagged bool      `json:"geotagged"`
	Timestamp string    `json:"timestamp,omitempty"`
	Pinned    bool      `json:"pinned"`
}

// Waypoint is a GPS fix recorded while collecting evidence
type Waypoint struct {
	Location  *Location `json:"location,omitempty"`
	Timestamp string    `json:"timestamp,omitempty"`
}

// Measurement is one field measurement value
type Measurement struct {
	Category string  `json:"category"`
	Field    string  `json:"field"`
	Raw      any     `json:"raw"`
	Value    float64 `json:"value"`
	Numeric  bool    `json:"numeric"`
}

// Submission is the normalized project submission every assessor reads.
// It is built once by NormalizeSubmission and never mutated afterwards.
type Submission struct {
	ProjectID     string `json:"project_id,omitempty"`
	ProjectName   string `json:"project_name,omitempty"`
	EcosystemType string `json:"ecosystem_type,omitempty"`

	Description       string `json:"description,omitempty"`
	Methodology       string `json:"methodology,omitempty"`
	RestorationMethod string `json:"restoration_method,omitempty"`
	Objectives        string `json:"objectives,omitempty"`

	CommunityDetails string `json:"community_details,omitempty"`
	CommunityName    string `json:"community_name,omitempty"`
	ContactEmail     string `json:"contact_email,omitempty"`
	Phone            string `json:"phone,omitempty"`
	BaselineData     string `json:"baseline_data,omitempty"`
	MonitoringPlan   string `json:"monitoring_plan,omitempty"`
	Timeline         string `json:"timeline,omitempty"`

	Location           *Location `json:"location,omitempty"`
	GPSAccuracy        *float64  `json:"gps_accuracy,omitempty"`
	GPSAccuracyInvalid bool      `json:"gps_accuracy_invalid,omitempty"`

	AreaHectares     *float64 `json:"area_hectares,omitempty"`
	AreaInvalid      bool     `json:"area_invalid,omitempty"`
	EstimatedCredits *float64 `json:"estimated_credits,omitempty"`
	CommunitySize    *float64 `json:"community_size,omitempty"`
	BudgetEstimate   *float64 `json:"budget_estimate,omitempty"`

	Media        []MediaItem   `json:"media,omitempty"`
	Waypoints    []Waypoint    `json:"waypoints,omitempty"`
	Measurements []Measurement `json:"measurements,omitempty"`

	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

// Area returns the claimed area in hectares, or 0 when absent.
func (s *Submission) Area() float64 {
	if s.AreaHectares == nil {
		return 0
	}
	return *s.AreaHectares
}

// Credits returns the claimed carbon credits, or 0 when absent.
func (s *Submission) Credits() float64 {
	if s.EstimatedCredits == nil {
		return 0
	}
	return *s.EstimatedCredits
}

// =====================================================
// Verification result
// =====================================================

// SubScore is the common part of every dimension assessment
type SubScore struct {
	Score           float64  `json:"score"`
	Flags           []string `json:"flags"`
	Recommendations []string `json:"recommendations"`
}

func newSubScore() SubScore {
	return SubScore{Flags: []string{}, Recommendations: []string{}}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func (s *SubScore) flag(msg string) {
	s.Flags = append(s.Flags, msg)
}

func (s *SubScore) recommend(msg string) {
	s.Recommendations = append(s.Recommendations, msg)
}

// LocationAssessment scores GPS validity and coastal plausibility
type LocationAssessment struct {
	SubScore
	CoordinatesValid bool   `json:"coordinates_valid"`
	CoastalProximity bool   `json:"coastal_proximity"`
	GPSAccuracy      string `json:"gps_accuracy"`
}

// EcosystemSuitability scores the ecosystem claim against the profile table
type EcosystemSuitability struct {
	SubScore
	Ecosystem        string   `json:"ecosystem,omitempty"`
	LatitudeSuitable bool     `json:"latitude_suitable"`
	CoastalProximity bool     `json:"coastal_proximity"`
	AreaAppropriate  bool     `json:"area_appropriate"`
	EcosystemMatch   bool     `json:"ecosystem_match"`
	IndicatorsFound  []string `json:"indicators_found"`
}

// CarbonAssessment compares claimed credits per hectare with the expected band
type CarbonAssessment struct {
	SubScore
	CreditsPerHectare float64   `json:"credits_per_hectare,omitempty"`
	ExpectedRange     *RateBand `json:"expected_range,omitempty"`
}

// MediaAssessment scores evidence volume and geotag coverage
type MediaAssessment struct {
	SubScore
	TotalFiles  int     `json:"total_files"`
	Geotagged   int     `json:"geotagged_files"`
	GeotagRatio float64 `json:"geotag_ratio"`
}

// CompletenessAssessment scores how many submission fields are present
type CompletenessAssessment struct {
	SubScore
	MissingEssential []string `json:"missing_essential"`
	MissingOptional  []string `json:"missing_optional"`
}

// MeasurementAssessment scores field measurement plausibility and integrity
type MeasurementAssessment struct {
	SubScore
	DataQuality       DataQuality `json:"data_quality"`
	Counted           int         `json:"measurements_counted"`
	UnrealisticValues []string    `json:"unrealistic_values"`
	InvalidValues     []string    `json:"invalid_values"`
	SuspicionCount    int         `json:"suspicion_count"`
	SuspicionRatio    float64     `json:"suspicion_ratio"`
}

// TemporalAssessment scores the spread and shape of evidence timestamps
type TemporalAssessment struct {
	SubScore
	Timestamps int     `json:"timestamps"`
	SpanDays   float64 `json:"span_days"`
}

// FraudCheck is the outcome of one multiplicative fraud check
type FraudCheck struct {
	Name       string   `json:"name"`
	Multiplier float64  `json:"multiplier"`
	Indicators []string `json:"indicators"`
}

// FraudAssessment composes the fraud checks into a risk tier
type FraudAssessment struct {
	SubScore
	Multiplier float64      `json:"multiplier"`
	RiskLevel  RiskLevel    `json:"risk_level"`
	Indicators []string     `json:"indicators"`
	Checks     []FraudCheck `json:"checks"`
}

// DetailedScores holds one assessment per dimension
type DetailedScores struct {
	Location     LocationAssessment     `json:"location_accuracy"`
	Ecosystem    EcosystemSuitability   `json:"ecosystem_suitability"`
	Carbon       CarbonAssessment       `json:"carbon_estimate_realism"`
	Media        MediaAssessment        `json:"media_quality"`
	Completeness CompletenessAssessment `json:"data_completeness"`
	Temporal     TemporalAssessment     `json:"temporal_consistency"`
	Field        MeasurementAssessment  `json:"field_measurements"`
	Fraud        FraudAssessment        `json:"fraud_detection"`
}

// Sub returns the common sub-score of a dimension.
func (d *DetailedScores) Sub(dim Dimension) *SubScore {
	switch dim {
	case DimensionLocation:
		return &d.Location.SubScore
	case DimensionEcosystem:
		return &d.Ecosystem.SubScore
	case DimensionCarbon:
		return &d.Carbon.SubScore
	case DimensionMedia:
		return &d.Media.SubScore
	case DimensionCompleteness:
		return &d.Completeness.SubScore
	case DimensionTemporal:
		return &d.Temporal.SubScore
	case DimensionField:
		return &d.Field.SubScore
	case DimensionFraud:
		return &d.Fraud.SubScore
	}
	return nil
}

// EcosystemAssessment is attached when the ecosystem tag is recognized
type EcosystemAssessment struct {
	Ecosystem           string   `json:"ecosystem"`
	ExpectedCarbonRange RateBand `json:"expected_carbon_range"`
	SuitabilityScore    float64  `json:"suitability_score"`
	LatitudeSuitable    bool     `json:"latitude_suitable"`
	CoastalDistanceMaxM float64  `json:"coastal_distance_max_m"`
	KeySuccessFactors   []string `json:"key_success_factors"`
	MonitoringChecklist []string `json:"monitoring_checklist"`
}

// Result is the verification outcome for one submission
type Result struct {
	VerificationID      string               `json:"verification_id"`
	ProjectID           string               `json:"project_id,omitempty"`
	ProjectName         string               `json:"project_name,omitempty"`
	OverallScore        float64              `json:"overall_score"`
	BaseScore           float64              `json:"base_score"`
	Category            Category             `json:"category"`
	Status              Status               `json:"status"`
	FraudRisk           RiskLevel            `json:"fraud_risk"`
	DetailedScores      DetailedScores       `json:"detailed_scores"`
	Flags               []string             `json:"flags"`
	Recommendations     []string             `json:"recommendations"`
	EcosystemAssessment *EcosystemAssessment `json:"ecosystem_assessment,omitempty"`
	VerifiedAt          time.Time            `json:"verified_at"`
}
