package verification

import (
	"fmt"
)

// assessCarbon scores claimed credits per hectare against the profile band.
// A missing claim scores 0 without a flag.
func (e *Engine) assessCarbon(s *Submission) CarbonAssessment {
	result := CarbonAssessment{SubScore: newSubScore()}

	profile, ok := e.profiles.Lookup(s.EcosystemType)
	if !ok || s.Area() <= 0 || s.Credits() <= 0 {
		return result
	}

	band := profile.CarbonRate
	rate := s.Credits() / s.Area()
	result.CreditsPerHectare = rate
	result.ExpectedRange = &band

	switch {
	case band.Contains(rate):
		result.Score = 100
	case rate >= band.Min*0.7 && rate <= band.Max*1.3:
		result.Score = 75
		result.recommend(fmt.Sprintf("Carbon estimate %.2f tCO2/ha is close to the expected range (%.0f-%.0f)", rate, band.Min, band.Max))
	case rate < band.Min*0.5:
		result.Score = 25
		result.flag(fmt.Sprintf("Carbon estimate %.2f tCO2/ha seems low for %s (expected %.0f-%.0f)", rate, profile.Name, band.Min, band.Max))
	case rate > band.Max*2:
		result.Score = 25
		result.flag(fmt.Sprintf("Carbon estimate %.2f tCO2/ha seems very high for %s (expected %.0f-%.0f)", rate, profile.Name, band.Min, band.Max))
	default:
		result.Score = 50
		result.recommend("Review carbon sequestration methodology")
	}

	return result
}
