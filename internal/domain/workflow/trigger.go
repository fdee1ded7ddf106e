package workflow

// Trigger represents an action that can cause a state transition
type Trigger string

const (
	// TriggerRoute fires when the approval chain builder attaches one or
	// more pending approvals to a freshly created expense.
	TriggerRoute Trigger = "ROUTE"

	// TriggerApprove fires when the final required approval lands, or when
	// an admin force-approves the whole chain.
	TriggerApprove Trigger = "APPROVE"

	// TriggerReject fires on any single rejection; one veto ends the chain.
	TriggerReject Trigger = "REJECT"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
