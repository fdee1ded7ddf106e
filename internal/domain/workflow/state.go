package workflow

// State represents a stage in the expense approval lifecycle
type State string

const (
	StatePending  State = "Pending"
	StateInReview State = "In Review"
	StateApproved State = "Approved"
	StateRejected State = "Rejected"
)

var validStates = map[State]bool{
	StatePending:  true,
	StateInReview: true,
	StateApproved: true,
	StateRejected: true,
}

var terminalStates = map[State]bool{
	StateApproved: true,
	StateRejected: true,
}

// IsTerminal returns true if the state is a terminal state (no further transitions allowed)
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsValid returns true if the state is a valid expense state
func (s State) IsValid() bool {
	return validStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}
