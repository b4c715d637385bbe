package verification

import (
	"math"
)

const (
	authenticitySizeNorm   = 5 * 1024 * 1024
	authenticityVerifiedAt = 0.7
)

// assessMedia scores evidence volume, geotag coverage and spread.
func (e *Engine) assessMedia(s *Submission) MediaAssessment {
	result := MediaAssessment{SubScore: newSubScore(), TotalFiles: len(s.Media)}

	if result.TotalFiles == 0 {
		result.flag("No media files uploaded")
		result.recommend("Upload geotagged photos and videos of the restoration site")
		return result
	}

	for _, m := range s.Media {
		if m.Geotagged {
			result.Geotagged++
		}
	}
	result.GeotagRatio = float64(result.Geotagged) / float64(result.TotalFiles)

	switch n := result.TotalFiles; {
	case n >= 10:
		result.Score = 45
	case n >= 5:
		result.Score = 35
	case n >= 3:
		result.Score = 25
	default:
		result.Score = 15
	}
	result.Score += 30 * result.GeotagRatio
	if result.TotalFiles >= 3 {
		result.Score += 30
	}

	if result.TotalFiles < 5 {
		result.recommend("Upload at least 5 media files documenting the site")
	}
	if result.Geotagged == 0 {
		result.recommend("Enable GPS tagging on photos and videos")
	}

	result.Score = clamp(result.Score, 0, 100)
	return result
}

// fileAuthenticity is a metadata-only authenticity heuristic in [0,1]
func fileAuthenticity(m MediaItem) float64 {
	score := 0.6
	if m.Geotagged {
		score += 0.15
	}
	if m.Timestamp != "" {
		score += 0.1
	}
	score += 0.1 * math.Min(m.Size/authenticitySizeNorm, 1)
	return math.Min(score, 1)
}
