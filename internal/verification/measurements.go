package verification

import (
	"fmt"
	"math"
)

type plausibleRange struct {
	min, max float64
}

func (r plausibleRange) contains(v float64) bool {
	return v >= r.min && v <= r.max
}

// measurementRanges holds physical plausibility ranges per category and field.
var measurementRanges = map[string]map[string]plausibleRange{
	"water_quality": {
		"ph_level":         {6.0, 9.0},
		"temperature":      {10, 45},
		"salinity":         {0, 40},
		"dissolved_oxygen": {0, 20},
	},
	"soil_analysis": {
		"carbon_content":   {0, 50},
		"nitrogen_level":   {0, 5},
		"phosphorus_level": {0, 100},
		"moisture_content": {0, 100},
	},
	"biodiversity": {
		"species_count":      {1, 500},
		"vegetation_density": {0, 100},
	},
}

const (
	repetitionSuspicion = 3
	// fewest readings for the repeated-value check to apply
	minRepetitionSample = 3
)

func (e *Engine) assessMeasurements(s *Submission) MeasurementAssessment {
	result := MeasurementAssessment{
		SubScore:          newSubScore(),
		UnrealisticValues: []string{},
		InvalidValues:     []string{},
	}
	fab := e.config.Fabrication

	var values []float64
	for _, m := range s.Measurements {
		ranges, known := measurementRanges[m.Category]
		if !known {
			continue
		}
		key := m.Category + "." + m.Field
		if !m.Numeric {
			result.InvalidValues = append(result.InvalidValues, key)
			result.flag(fmt.Sprintf("Invalid value for %s: %v", key, m.Raw))
			continue
		}

		values = append(values, m.Value)
		if r, ok := ranges[m.Field]; ok && !r.contains(m.Value) {
			result.UnrealisticValues = append(result.UnrealisticValues, key)
			result.flag(fmt.Sprintf("Unrealistic value for %s: %g (expected %g-%g)", key, m.Value, r.min, r.max))
			result.SuspicionCount++
		} else if isCanonicalFake(m.Value, fab.CanonicalFakeValues) {
			result.SuspicionCount++
		}
	}
	result.Counted = len(values)

	if result.Counted == 0 {
		result.Score = 10
		result.DataQuality = DataQualityMissing
		result.flag("No field measurements provided")
		result.recommend("Add water quality, soil analysis and biodiversity measurements")
		return result
	}

	if len(values) >= minRepetitionSample && dominantShare(values) >= fab.RepeatedValueShare {
		result.SuspicionCount += repetitionSuspicion
	}

	ratio := float64(result.SuspicionCount) / float64(result.Counted)
	result.SuspicionRatio = math.Min(ratio, 1)

	switch {
	case ratio >= fab.HighSuspicionRatio:
		result.Score = 5
		result.DataQuality = DataQualityHighlySuspicious
		result.flag("Field measurements show signs of fabricated data")
	case ratio >= fab.SuspicionRatio:
		result.Score = 20
		result.DataQuality = DataQualitySuspicious
		result.flag("Field measurements contain suspicious patterns")
	case len(result.UnrealisticValues) > 0:
		result.Score = 60
		result.DataQuality = DataQualityQuestionable
	default:
		result.Score = 85
		result.DataQuality = DataQualityGood
	}

	if result.SuspicionCount > 0 {
		result.recommend("Verify measurement equipment calibration")
		result.recommend("Provide raw instrument logs for field measurements")
		result.recommend("Have measurements independently verified")
	}

	return result
}

func isCanonicalFake(v float64, fakes []float64) bool {
	for _, f := range fakes {
		if v == f {
			return true
		}
	}
	return false
}

// dominantShare returns the share of values equal to the most common value.
func dominantShare(values []float64) float64 {
	counts := make(map[float64]int, len(values))
	best := 0
	for _, v := range values {
		counts[v]++
		if counts[v] > best {
			best = counts[v]
		}
	}
	return float64(best) / float64(len(values))
}

// isPerfectValue reports values that land exactly on a whole or half unit.
func isPerfectValue(v float64) bool {
	return v*2 == math.Trunc(v*2)
}
