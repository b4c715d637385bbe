package verification

import (
	"fmt"
	"strings"
)

const (
	minAreaHectares = 0.1
	maxAreaHectares = 10000
)

func (e *Engine) assessEcosystem(s *Submission) EcosystemSuitability {
	result := EcosystemSuitability{SubScore: newSubScore(), IndicatorsFound: []string{}}

	profile, ok := e.profiles.Lookup(s.EcosystemType)
	if !ok {
		if s.EcosystemType == "" {
			result.flag("Ecosystem type not specified")
		} else {
			result.flag(fmt.Sprintf("Unknown ecosystem type: %s", s.EcosystemType))
		}
		return result
	}
	result.Ecosystem = profile.Name

	if loc := s.Location; loc != nil {
		if loc.Lat >= profile.LatitudeMin && loc.Lat <= profile.LatitudeMax {
			result.LatitudeSuitable = true
			result.Score += 30
		} else {
			result.flag(fmt.Sprintf("Latitude %.2f is outside the typical range for %s (%.0f to %.0f)",
				loc.Lat, profile.Name, profile.LatitudeMin, profile.LatitudeMax))
		}
		if e.isCoastal(loc) {
			result.CoastalProximity = true
			result.Score += 25
		}
	} else {
		result.flag("Location required to assess ecosystem suitability")
	}

	switch area := s.Area(); {
	case s.AreaInvalid:
		result.flag("Invalid area value")
	case s.AreaHectares == nil:
		result.recommend("Provide the project area in hectares")
	case area >= minAreaHectares && area <= maxAreaHectares:
		result.AreaAppropriate = true
		result.Score += 20
	case area < minAreaHectares:
		result.flag(fmt.Sprintf("Project area %.2f ha is too small for a viable restoration site", area))
	default:
		result.flag(fmt.Sprintf("Project area %.0f ha is unusually large - verify boundaries", area))
	}

	text := strings.ToLower(strings.Join([]string{s.Description, s.Methodology, s.RestorationMethod}, " "))
	for _, indicator := range profile.Indicators {
		if strings.Contains(text, humanize(indicator)) {
			result.IndicatorsFound = append(result.IndicatorsFound, indicator)
		}
	}
	switch n := len(result.IndicatorsFound); {
	case n >= 2:
		result.EcosystemMatch = true
		result.Score += 25
	case n == 1:
		result.Score += 15
	default:
		keywords := make([]string, len(profile.Indicators))
		for i, indicator := range profile.Indicators {
			keywords[i] = humanize(indicator)
		}
		result.recommend(fmt.Sprintf("Describe %s indicators such as: %s", profile.Name, strings.Join(keywords, ", ")))
	}

	result.Score = clamp(result.Score, 0, 100)
	return result
}

// ecosystemAssessment builds the ecosystem block for recognized tags
func (e *Engine) ecosystemAssessment(s *Submission, suitability EcosystemSuitability) *EcosystemAssessment {
	profile, ok := e.profiles.Lookup(s.EcosystemType)
	if !ok {
		return nil
	}
	return &EcosystemAssessment{
		Ecosystem:           profile.Name,
		ExpectedCarbonRange: profile.CarbonRate,
		SuitabilityScore:    suitability.Score,
		LatitudeSuitable:    suitability.LatitudeSuitable,
		CoastalDistanceMaxM: profile.CoastalDistanceMaxM,
		KeySuccessFactors:   append([]string(nil), profile.Indicators...),
		MonitoringChecklist: monitoringChecklist(profile),
	}
}
