package verification

import (
	"fmt"
	"strings"
)

const (
	essentialPoints = 70.0
	optionalPoints  = 30.0
)

type fieldCheck struct {
	name    string
	present func(s *Submission) bool
}

func hasText(get func(s *Submission) string) func(s *Submission) bool {
	return func(s *Submission) bool { return get(s) != "" }
}

var essentialFields = []fieldCheck{
	{"project_name", hasText(func(s *Submission) string { return s.ProjectName })},
	{"description", hasText(func(s *Submission) string { return s.Description })},
	{"ecosystem_type", hasText(func(s *Submission) string { return s.EcosystemType })},
	{"area_hectares", func(s *Submission) bool { return s.AreaHectares != nil }},
	{"latitude", func(s *Submission) bool { return s.Location != nil }},
	{"longitude", func(s *Submission) bool { return s.Location != nil }},
	{"restoration_method", hasText(func(s *Submission) string { return s.RestorationMethod })},
	{"community_details", hasText(func(s *Submission) string { return s.CommunityDetails })},
	{"contact_email", hasText(func(s *Submission) string { return s.ContactEmail })},
	{"estimated_credits", func(s *Submission) bool { return s.EstimatedCredits != nil }},
}

var optionalFields = []fieldCheck{
	{"phone", hasText(func(s *Submission) string { return s.Phone })},
	{"community_name", hasText(func(s *Submission) string { return s.CommunityName })},
	{"baseline_data", hasText(func(s *Submission) string { return s.BaselineData })},
	{"monitoring_plan", hasText(func(s *Submission) string { return s.MonitoringPlan })},
	{"timeline", hasText(func(s *Submission) string { return s.Timeline })},
	{"budget", func(s *Submission) bool { return s.BudgetEstimate != nil }},
}

func assessCompleteness(s *Submission) CompletenessAssessment {
	result := CompletenessAssessment{
		SubScore:         newSubScore(),
		MissingEssential: []string{},
		MissingOptional:  []string{},
	}

	present := 0
	for _, f := range essentialFields {
		if f.present(s) {
			present++
		} else {
			result.MissingEssential = append(result.MissingEssential, f.name)
		}
	}
	result.Score = essentialPoints * float64(present) / float64(len(essentialFields))

	present = 0
	for _, f := range optionalFields {
		if f.present(s) {
			present++
		} else {
			result.MissingOptional = append(result.MissingOptional, f.name)
		}
	}
	result.Score += optionalPoints * float64(present) / float64(len(optionalFields))

	if len(result.MissingEssential) > 0 {
		result.recommend(fmt.Sprintf("Complete missing essential fields: %s", strings.Join(result.MissingEssential, ", ")))
	}
	if len(result.MissingOptional) > 0 {
		result.recommend(fmt.Sprintf("Consider adding: %s", strings.Join(result.MissingOptional, ", ")))
	}

	result.Score = clamp(result.Score, 0, 100)
	return result
}
