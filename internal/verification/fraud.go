package verification

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"carbon-scribe/blue-carbon-verifier/pkg/geospatial"
)

// Fraud check names as reported in FraudAssessment.Checks
const (
	CheckMediaAuthenticity   = "media_authenticity"
	CheckLocationConsistency = "location_consistency"
	CheckTemporalPatterns    = "temporal_patterns"
	CheckScaleRealism        = "scale_realism"
	CheckDataQuality         = "data_quality"
	CheckAdvancedPatterns    = "advanced_patterns"
)

// fraudCheck accumulates a multiplier and the reasons for each penalty
type fraudCheck struct {
	FraudCheck
}

func newFraudCheck(name string) *fraudCheck {
	return &fraudCheck{FraudCheck{Name: name, Multiplier: 1, Indicators: []string{}}}
}

func (c *fraudCheck) penalize(factor float64, indicator string) {
	c.Multiplier *= factor
	c.Indicators = append(c.Indicators, indicator)
}

// RiskTier maps a fraud multiplier to its risk level.
func RiskTier(multiplier float64) RiskLevel {
	switch {
	case multiplier >= 0.7:
		return RiskLow
	case multiplier >= 0.4:
		return RiskMedium
	case multiplier >= 0.2:
		return RiskHigh
	default:
		return RiskCritical
	}
}

func (e *Engine) assessFraud(s *Submission, tl timelineAnalysis, now time.Time) FraudAssessment {
	result := FraudAssessment{
		SubScore:   newSubScore(),
		Multiplier: 1,
		Indicators: []string{},
	}

	checks := []*fraudCheck{
		e.checkMediaAuthenticity(s),
		checkLocationConsistency(s),
		checkTemporalPatterns(tl),
		checkScaleRealism(s),
		checkDataQuality(s),
		checkAdvancedPatterns(s, now),
	}
	for _, c := range checks {
		c.Multiplier = clamp(c.Multiplier, 0, 1)
		result.Multiplier *= c.Multiplier
		result.Indicators = append(result.Indicators, c.Indicators...)
		result.Checks = append(result.Checks, c.FraudCheck)
	}

	result.Multiplier = clamp(result.Multiplier, 0, 1)
	result.Score = result.Multiplier * 100
	result.RiskLevel = RiskTier(result.Multiplier)

	switch result.RiskLevel {
	case RiskCritical:
		result.flag("CRITICAL: Multiple fraud indicators detected")
	case RiskHigh:
		result.flag("HIGH: Significant fraud risk indicators present")
	case RiskMedium:
		result.flag("MEDIUM: Some fraud risk indicators present")
	}

	if len(result.Indicators) > 5 {
		result.recommend("Manual review recommended due to multiple fraud indicators")
	}
	if result.Multiplier < 0.5 {
		result.recommend("Require third-party verification before approval")
	}

	return result
}

func (e *Engine) checkMediaAuthenticity(s *Submission) *fraudCheck {
	c := newFraudCheck(CheckMediaAuthenticity)

	total := len(s.Media)
	if total == 0 {
		c.penalize(0.3, "No media files provided")
		return c
	}

	verified := 0
	var sizes []float64
	for _, m := range s.Media {
		if fileAuthenticity(m) > authenticityVerifiedAt {
			verified++
		}
		if m.Size > 0 {
			sizes = append(sizes, m.Size)
		}
	}

	ratio := float64(verified) / float64(total)
	if ratio == 1 && total > 10 {
		c.penalize(0.8, "All media files pass verification - unusually perfect for a large upload")
	}
	if ratio < 0.5 {
		c.penalize(0.6, fmt.Sprintf("Low media verification ratio (%.0f%%)", ratio*100))
	}
	if len(sizes) > 3 && coefficientOfVariation(sizes) < e.config.Fabrication.SizeUniformityCV {
		c.penalize(0.9, "Media file sizes are suspiciously uniform")
	}

	return c
}

func checkLocationConsistency(s *Submission) *fraudCheck {
	c := newFraudCheck(CheckLocationConsistency)

	loc := s.Location
	if loc == nil {
		c.penalize(0.2, "Missing primary project location")
		return c
	}

	var distances []float64
	for _, m := range s.Media {
		if m.Location != nil {
			distances = append(distances, geospatial.Distance(loc.Lat, loc.Lng, m.Location.Lat, m.Location.Lng))
		}
	}
	if len(distances) > 0 {
		maxDist, avg := maxAndMean(distances)
		switch {
		case maxDist > 50:
			c.penalize(0.4, fmt.Sprintf("Media captured up to %.1f km from the project location", maxDist))
		case avg > 10:
			c.penalize(0.7, fmt.Sprintf("Media captured on average %.1f km from the project location", avg))
		}
	}

	distances = distances[:0]
	for _, wp := range s.Waypoints {
		if wp.Location != nil {
			distances = append(distances, geospatial.Distance(loc.Lat, loc.Lng, wp.Location.Lat, wp.Location.Lng))
		}
	}
	if len(distances) > 0 {
		if maxDist, _ := maxAndMean(distances); maxDist > 20 {
			c.penalize(0.8, fmt.Sprintf("GPS waypoints up to %.1f km from the project location", maxDist))
		}
	}

	return c
}

func checkTemporalPatterns(tl timelineAnalysis) *fraudCheck {
	c := newFraudCheck(CheckTemporalPatterns)

	if len(tl.parsed) < 2 {
		if tl.unparseable > 0 {
			c.penalize(0.5, "Evidence timestamps could not be parsed")
		} else {
			c.penalize(0.6, "Insufficient timestamped evidence")
		}
		return c
	}

	if tl.unparseable > 0 {
		c.penalize(0.9, fmt.Sprintf("%d evidence timestamp(s) could not be parsed", tl.unparseable))
	}
	if tl.regularIntervals {
		c.penalize(0.8, "Evidence captured at suspiciously regular intervals")
	}
	if tl.burst {
		c.penalize(0.6, "Large batch of evidence captured within minutes")
	}
	if tl.nightHeavy() {
		c.penalize(0.9, "Most evidence captured at night")
	}

	return c
}

func checkScaleRealism(s *Submission) *fraudCheck {
	c := newFraudCheck(CheckScaleRealism)

	area := s.Area()
	switch {
	case area <= 0:
		c.penalize(0.5, "Missing or invalid project area")
	case area < minAreaHectares:
		c.penalize(0.8, fmt.Sprintf("Project area %.2f ha is implausibly small", area))
	case area > maxAreaHectares:
		c.penalize(0.3, fmt.Sprintf("Project area %.0f ha is implausibly large", area))
	case area > 1000:
		c.penalize(0.7, fmt.Sprintf("Project area %.0f ha is unusually large for community restoration", area))
	}

	if area > 0 && s.CommunitySize != nil {
		perHectare := *s.CommunitySize / area
		switch {
		case perHectare > 100:
			c.penalize(0.6, fmt.Sprintf("Unrealistic community density (%.1f people per hectare)", perHectare))
		case perHectare < 0.01:
			c.penalize(0.8, fmt.Sprintf("Very low community involvement (%.3f people per hectare)", perHectare))
		}
	}

	if area > 0 && s.BudgetEstimate != nil {
		perHectare := *s.BudgetEstimate / area
		switch {
		case perHectare < 50000:
			c.penalize(0.7, fmt.Sprintf("Budget of %.0f per hectare is unrealistically low", perHectare))
		case perHectare > 1000000:
			c.penalize(0.6, fmt.Sprintf("Budget of %.0f per hectare is unrealistically high", perHectare))
		}
	}

	return c
}

func checkDataQuality(s *Submission) *fraudCheck {
	c := newFraudCheck(CheckDataQuality)

	var missing []string
	if s.ProjectName == "" {
		missing = append(missing, "project_name")
	}
	if s.EcosystemType == "" {
		missing = append(missing, "ecosystem_type")
	}
	if s.Location == nil {
		missing = append(missing, "location")
	}
	if s.AreaHectares == nil {
		missing = append(missing, "area_hectares")
	}
	if len(missing) > 0 {
		c.penalize(1-0.1*float64(len(missing)), fmt.Sprintf("Missing required fields: %s", strings.Join(missing, ", ")))
	}

	switch n := utf8.RuneCountInString(s.Description); {
	case n < 50:
		c.penalize(0.9, "Project description is too short")
	case n > 5000:
		c.penalize(0.95, "Project description is unusually long")
	}

	texts := []struct{ name, text string }{
		{"description", s.Description},
		{"objectives", s.Objectives},
		{"methodology", s.Methodology},
		{"restoration_method", s.RestorationMethod},
	}
	for _, t := range texts {
		if repetitive(t.text) {
			c.penalize(0.8, fmt.Sprintf("Repetitive text detected in %s", t.name))
		}
	}

	return c
}

func checkAdvancedPatterns(s *Submission, now time.Time) *fraudCheck {
	c := newFraudCheck(CheckAdvancedPatterns)

	numeric, perfect := 0, 0
	for _, m := range s.Measurements {
		if !m.Numeric {
			continue
		}
		numeric++
		if isPerfectValue(m.Value) {
			perfect++
		}
	}
	if numeric > 5 && float64(perfect)/float64(numeric) > 0.8 {
		c.penalize(0.8, "Too many perfectly round measurement values")
	}

	submitted := now
	if s.SubmittedAt != nil {
		submitted = *s.SubmittedAt
	}
	if isNightHour(submitted) {
		c.penalize(0.95, "Submission made at unusual hours")
	}

	kinds := make(map[string]bool)
	for _, m := range s.Media {
		kinds[strings.ToLower(m.Kind)] = true
	}
	categories := make(map[string]bool)
	for _, m := range s.Measurements {
		categories[m.Category] = true
	}
	if float64(len(kinds)+len(categories))/10 < 0.3 {
		c.penalize(0.8, "Low diversity of evidence types")
	}

	return c
}

// repetitive detects boilerplate: more than 20% of distinct words appear
// more than three times.
func repetitive(text string) bool {
	words := strings.Fields(strings.ToLower(text))
	if len(words) < 10 {
		return false
	}
	counts := make(map[string]int, len(words))
	for _, w := range words {
		counts[w]++
	}
	over := 0
	for _, n := range counts {
		if n > 3 {
			over++
		}
	}
	return float64(over) > 0.2*float64(len(counts))
}

func maxAndMean(values []float64) (float64, float64) {
	maxV, sum := 0.0, 0.0
	for _, v := range values {
		maxV = math.Max(maxV, v)
		sum += v
	}
	return maxV, sum / float64(len(values))
}

func coefficientOfVariation(values []float64) float64 {
	_, mean := maxAndMean(values)
	if mean == 0 {
		return 0
	}
	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	return math.Sqrt(variance) / mean
}
