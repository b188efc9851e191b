package workflow

var reservations = NewMachine("reservation",
	[]Transition{
		{StateDraft, EventSubmit, StatePending},
		{StateDraft, EventSubmit, StateApproved}, // resource does not require approval
		{StatePending, EventApprove, StateApproved},
		{StatePending, EventReject, StateRejected},
		{StatePending, EventCancel, StateCanceled},
		{StateApproved, EventCancel, StateCanceled},
		{StateApproved, EventStart, StateInProgress},
		{StateApproved, EventFinish, StateFinished},
		{StateInProgress, EventFinish, StateFinished},
	},
	StateRejected, StateCanceled, StateFinished,
)

var procedures = NewMachine("procedure",
	[]Transition{
		{StateDraft, EventSubmit, StateSubmitted},
		{StateDraft, EventCancel, StateCanceled},
		{StateSubmitted, EventReview, StateInProcess},
		{StateSubmitted, EventCancel, StateCanceled},
		{StateInProcess, EventRequestInfo, StateRequiresInfo},
		{StateRequiresInfo, EventProvideInfo, StateInProcess},
		{StateRequiresInfo, EventCancel, StateCanceled},
		{StateInProcess, EventApprove, StateApproved},
		{StateInProcess, EventReject, StateRejected},
		{StateInProcess, EventCancel, StateCanceled},
		{StateApproved, EventFinalize, StateFinalized},
	},
	StateRejected, StateCanceled, StateFinalized,
)

// Reservations is the transition table for resource reservations. It is the
// strict variant: IN_PROGRESS reservations cannot be canceled.
func Reservations() *Machine {
	return reservations
}

// Procedures is the transition table shared by the generic departmental
// procedures (feeding, lodging, transport, maintenance requests).
func Procedures() *Machine {
	return procedures
}
