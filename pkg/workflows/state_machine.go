package workflows

// StateMachine enforces approval status transitions
type StateMachine struct {
	allowedTransitions map[string][]string
}

// NewDocumentStateMachine covers the document lifecycle. COMPLETED and
// REJECTED are terminal.
func NewDocumentStateMachine() *StateMachine {
	return &StateMachine{
		allowedTransitions: map[string][]string{
			"DRAFT":       {"IN_PROGRESS"},
			"IN_PROGRESS": {"COMPLETED", "REJECTED"},
			"COMPLETED":   {},
			"REJECTED":    {},
		},
	}
}

// NewLineStateMachine covers a single approval line. A processed line is
// never reopened.
func NewLineStateMachine() *StateMachine {
	return &StateMachine{
		allowedTransitions: map[string][]string{
			"WAITING":  {"APPROVED", "REJECTED"},
			"APPROVED": {},
			"REJECTED": {},
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

// IsTerminal reports whether no further transition is possible.
func (sm *StateMachine) IsTerminal(status string) bool {
	return len(sm.GetAllowedTransitions(status)) == 0
}
