package verification

import (
	"fmt"
)

func assessTemporal(s *Submission, tl timelineAnalysis) TemporalAssessment {
	result := TemporalAssessment{
		SubScore:   newSubScore(),
		Timestamps: len(tl.parsed),
	}

	if tl.unparseable > 0 {
		result.flag(fmt.Sprintf("Could not parse %d evidence timestamp(s)", tl.unparseable))
	}

	if len(tl.parsed) < 2 {
		if tl.unparseable > 0 {
			result.Score = 50
		} else {
			result.Score = 60
			result.recommend("Add more timestamped evidence")
		}
	} else {
		result.SpanDays = tl.span.Hours() / 24
		switch {
		case result.SpanDays <= 30:
			result.Score = 90
		case result.SpanDays <= 90:
			result.Score = 70
			result.recommend("Consider a shorter evidence collection window")
		default:
			result.Score = 40
			result.flag(fmt.Sprintf("Evidence collection window is suspiciously long (%.0f days)", result.SpanDays))
		}

		if tl.regularIntervals {
			result.Score -= 15
			result.flag("Evidence timestamps are suspiciously regular")
		}
		if tl.burst {
			result.Score -= 20
			result.flag("Too many evidence items captured within 5 minutes")
		}
		if tl.nightHeavy() {
			result.Score -= 10
			result.flag("Most evidence was captured at night")
		}
	}

	if s.Timeline != "" {
		if years, ok := timelineYears(s.Timeline); ok {
			switch {
			case years < 1:
				result.flag("Project timeline too short for meaningful restoration")
			case years > 10:
				result.recommend("Consider breaking the long project timeline into phases")
			}
		}
	}

	result.Score = clamp(result.Score, 0, 100)
	return result
}
