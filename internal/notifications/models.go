package notifications

import (
	"fmt"
	"strings"
)

// Notice tells a project contact about a verification decision
type Notice struct {
	Recipient      string  `json:"recipient"`
	ProjectID      string  `json:"project_id"`
	ProjectName    string  `json:"project_name"`
	VerificationID string  `json:"verification_id"`
	Decision       string  `json:"decision"`
	Category       string  `json:"category"`
	Score          float64 `json:"score"`
}

// Subject renders the notice subject line
func (n Notice) Subject() string {
	name := n.ProjectName
	if name == "" {
		name = "your project"
	}
	return fmt.Sprintf("Verification result for %s: %s", name, decisionLabel(n.Decision))
}

// Body renders the plain text notice body
func (n Notice) Body() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your blue carbon project submission has been assessed.\n\n")
	if n.ProjectName != "" {
		fmt.Fprintf(&b, "Project: %s\n", n.ProjectName)
	}
	fmt.Fprintf(&b, "Verification ID: %s\n", n.VerificationID)
	fmt.Fprintf(&b, "Overall score: %.2f/100 (%s)\n", n.Score, n.Category)
	fmt.Fprintf(&b, "Decision: %s\n\n", decisionLabel(n.Decision))

	switch n.Decision {
	case "approved":
		b.WriteString("No further action is required.\n")
	case "requires_review":
		b.WriteString("A reviewer will examine your submission shortly.\n")
	case "needs_improvement":
		b.WriteString("Please review the recommendations and resubmit with additional evidence.\n")
	case "flagged":
		b.WriteString("Your submission has been flagged for manual investigation.\n")
	}
	return b.String()
}

func decisionLabel(decision string) string {
	label := strings.ReplaceAll(decision, "_", " ")
	if label == "" {
		label = "pending"
	}
	return strings.ToUpper(label[:1]) + label[1:]
}
