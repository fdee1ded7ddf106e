package workflow

// ExpenseTransitions returns the transition table for the expense approval
// lifecycle. Routing moves a freshly created expense into review once the
// chain builder has attached pending approvals. Approve and Reject are
// permitted from Pending as well, covering admin overrides on expenses that
// never received an approval chain. Approved and Rejected are terminal.
func ExpenseTransitions() TransitionTable {
	return TransitionTable{
		StatePending: {
			TriggerRoute:   StateInReview,
			TriggerApprove: StateApproved,
			TriggerReject:  StateRejected,
		},
		StateInReview: {
			TriggerApprove: StateApproved,
			TriggerReject:  StateRejected,
		},
	}
}

// NewExpenseMachine creates a machine for an expense currently in the given
// state, configured with the expense transition table.
func NewExpenseMachine(current State) (*Machine, error) {
	return NewMachine(current, ExpenseTransitions())
}
