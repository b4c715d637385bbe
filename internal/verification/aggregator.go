package verification

import (
	"math"
)

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// aggregate fills the overall score, category, status and pooled findings
// from the detailed scores already present on r.
func (e *Engine) aggregate(s *Submission, r *Result) {
	var base float64
	for _, dim := range ScoredDimensions {
		base += e.config.Weights[dim] * r.DetailedScores.Sub(dim).Score
	}
	base = clamp(base, 0, 100)
	r.BaseScore = round2(base)

	r.OverallScore = round2(clamp(base+e.legitimacyAdjustment(s, r.DetailedScores.Field.DataQuality), 0, 100))
	r.Category = e.Categorize(r.OverallScore)
	r.FraudRisk = r.DetailedScores.Fraud.RiskLevel
	r.Status = DecideStatus(r.Category, r.FraudRisk)

	r.Flags = []string{}
	r.Recommendations = []string{}
	for _, dim := range ScoredDimensions {
		sub := r.DetailedScores.Sub(dim)
		r.Flags = append(r.Flags, sub.Flags...)
		r.Recommendations = append(r.Recommendations, sub.Recommendations...)
	}
}

// legitimacyAdjustment is a small boost for submissions whose field data is
// not suspicious, or a penalty scaled by the suspicion tier.
func (e *Engine) legitimacyAdjustment(s *Submission, quality DataQuality) float64 {
	l := e.config.Legitimacy
	switch quality {
	case DataQualitySuspicious:
		return -l.SuspiciousPenalty
	case DataQualityHighlySuspicious:
		return -l.HighlySuspiciousPenalty
	}

	boost := l.Boost
	if s.ProjectName != "" && s.EcosystemType != "" {
		boost += l.IdentityBonus
	}
	return boost
}

// Categorize maps an overall score through the configured thresholds.
func (e *Engine) Categorize(score float64) Category {
	t := e.config.Thresholds
	switch {
	case score >= t.Excellent:
		return CategoryExcellent
	case score >= t.Good:
		return CategoryGood
	case score >= t.Acceptable:
		return CategoryAcceptable
	default:
		return CategoryPoor
	}
}

// DecideStatus maps a category to a status. A critical fraud risk always
// flags the result; a high risk keeps it out of automatic approval.
func DecideStatus(category Category, risk RiskLevel) Status {
	var status Status
	switch category {
	case CategoryExcellent, CategoryGood:
		status = StatusApproved
	case CategoryAcceptable:
		status = StatusRequiresReview
	default:
		status = StatusNeedsImprovement
	}

	switch risk {
	case RiskCritical:
		return StatusFlagged
	case RiskHigh:
		if status == StatusApproved {
			return StatusRequiresReview
		}
	}
	return status
}
