package verification

import (
	"fmt"
	"math"

	"carbon-scribe/blue-carbon-verifier/pkg/geospatial"
)

// isCoastal is the coastal plausibility proxy: inside a configured coastal
// box or within the equatorial band.
func (e *Engine) isCoastal(loc *Location) bool {
	if loc == nil {
		return false
	}
	return geospatial.InAnyBox(e.config.CoastalBoxes, loc.Lat, loc.Lng) ||
		math.Abs(loc.Lat) < e.config.EquatorialBand
}

func (e *Engine) assessLocation(s *Submission) LocationAssessment {
	result := LocationAssessment{SubScore: newSubScore(), GPSAccuracy: "unknown"}

	loc := s.Location
	if loc == nil || !geospatial.CoordinatesValid(loc.Lat, loc.Lng) {
		result.flag("Invalid or missing GPS coordinates")
		result.recommend("Provide valid GPS coordinates for the project site")
		return result
	}

	result.CoordinatesValid = true
	result.Score = 20

	if e.isCoastal(loc) {
		result.CoastalProximity = true
		result.Score += 25
	} else {
		result.flag("Location appears to be inland - verify coastal proximity")
	}

	switch {
	case s.GPSAccuracyInvalid:
		result.GPSAccuracy = "invalid"
		result.flag("Invalid GPS accuracy value")
	case s.GPSAccuracy == nil || *s.GPSAccuracy <= 0:
		result.recommend("Provide GPS accuracy information")
	case *s.GPSAccuracy <= 5:
		result.GPSAccuracy = "high"
		result.Score += 30
	case *s.GPSAccuracy <= 10:
		result.GPSAccuracy = "medium"
		result.Score += 20
	case *s.GPSAccuracy <= 20:
		result.GPSAccuracy = "low"
		result.Score += 10
		result.recommend("Improve GPS accuracy to under 10 meters")
	default:
		result.GPSAccuracy = "poor"
		result.flag(fmt.Sprintf("GPS accuracy is poor (%.0fm)", *s.GPSAccuracy))
	}

	result.Score = clamp(result.Score, 0, 100)
	return result
}
