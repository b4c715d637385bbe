package workflows

// Review statuses a project moves through after verification.
const (
	StatusPending          = "pending"
	StatusApproved         = "approved"
	StatusRequiresReview   = "requires_review"
	StatusNeedsImprovement = "needs_improvement"
	StatusFlagged          = "flagged"
	StatusRejected         = "rejected"
)

// StateMachine enforces project review status transitions
type StateMachine struct {
	allowedTransitions map[string][]string
}

// NewStateMachine creates a new state machine with allowed transitions
func NewStateMachine() *StateMachine {
	return &StateMachine{
		allowedTransitions: map[string][]string{
			StatusPending:          {StatusApproved, StatusRequiresReview, StatusNeedsImprovement, StatusFlagged},
			StatusApproved:         {StatusFlagged, StatusRequiresReview},
			StatusRequiresReview:   {StatusApproved, StatusRejected, StatusNeedsImprovement, StatusFlagged},
			StatusNeedsImprovement: {StatusPending, StatusApproved, StatusRequiresReview, StatusFlagged},
			StatusFlagged:          {StatusPending, StatusRequiresReview, StatusRejected},
			StatusRejected:         {}, // terminal
		},
	}
}

// CanTransition checks if a status transition is allowed
func (sm *StateMachine) CanTransition(from, to string) bool {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return false
	}
	for _, allowedTo := range allowed {
		if allowedTo == to {
			return true
		}
	}
	return false
}

// GetAllowedTransitions returns the allowed next statuses for a given status
func (sm *StateMachine) GetAllowedTransitions(from string) []string {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return []string{}
	}
	return allowed
}

// IsKnown reports whether status is part of the review workflow.
func (sm *StateMachine) IsKnown(status string) bool {
	_, ok := sm.allowedTransitions[status]
	return ok
}
