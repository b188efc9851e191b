package workflow

import "github.com/google/uuid"

// State is a workflow state shared by every procedure type on the platform.
type State string

const (
	StateDraft        State = "DRAFT"
	StateSubmitted    State = "SUBMITTED"
	StateInProcess    State = "IN_PROCESS"
	StateRequiresInfo State = "REQUIRES_INFO"
	StatePending      State = "PENDING"
	StateApproved     State = "APPROVED"
	StateRejected     State = "REJECTED"
	StateCanceled     State = "CANCELED"
	StateInProgress   State = "IN_PROGRESS"
	StateFinished     State = "FINISHED"
	StateFinalized    State = "FINALIZED"
)

// Event is a named trigger that may move an entity between states.
type Event string

const (
	EventSubmit      Event = "submit"
	EventReview      Event = "review"
	EventRequestInfo Event = "request_info"
	EventProvideInfo Event = "provide_info"
	EventApprove     Event = "approve"
	EventReject      Event = "reject"
	EventCancel      Event = "cancel"
	EventStart       Event = "start"
	EventFinish      Event = "finish"
	EventFinalize    Event = "finalize"
)

// Transition is one row of a machine's transition table.
type Transition struct {
	From  State
	Event Event
	To    State
}

// Machine is a closed transition table. A state/event pair not listed in the
// table is not a valid transition; entities hold a State and ask the machine,
// they do not inherit from it.
type Machine struct {
	name        string
	transitions []Transition
	terminal    map[State]bool
}

func NewMachine(name string, transitions []Transition, terminal ...State) *Machine {
	t := make(map[State]bool, len(terminal))
	for _, s := range terminal {
		t[s] = true
	}
	return &Machine{name: name, transitions: transitions, terminal: t}
}

func (m *Machine) Name() string {
	return m.name
}

// Permits reports whether the exact transition from -> to under event is listed.
func (m *Machine) Permits(from State, event Event, to State) bool {
	for _, tr := range m.transitions {
		if tr.From == from && tr.Event == event && tr.To == to {
			return true
		}
	}
	return false
}

// Allowed returns every target state reachable from the given state by the
// given event. More than one target means a guard outside the table (an
// approval policy) picks between them.
func (m *Machine) Allowed(from State, event Event) []State {
	var targets []State
	for _, tr := range m.transitions {
		if tr.From == from && tr.Event == event {
			targets = append(targets, tr.To)
		}
	}
	return targets
}

// Events returns the events that have at least one transition out of the state.
func (m *Machine) Events(from State) []Event {
	seen := make(map[Event]bool)
	var events []Event
	for _, tr := range m.transitions {
		if tr.From == from && !seen[tr.Event] {
			seen[tr.Event] = true
			events = append(events, tr.Event)
		}
	}
	return events
}

// IsTerminal reports whether the state admits no further transitions.
func (m *Machine) IsTerminal(s State) bool {
	return m.terminal[s]
}

// Known reports whether the state appears anywhere in the table.
func (m *Machine) Known(s State) bool {
	if m.terminal[s] {
		return true
	}
	for _, tr := range m.transitions {
		if tr.From == s || tr.To == s {
			return true
		}
	}
	return false
}

// Owned is implemented by every workflow entity that belongs to a principal.
// Permission checks depend on this interface instead of inspecting concrete
// entity types.
type Owned interface {
	OwnerID() uuid.UUID
}

// ApprovalPolicy captures the one per-entity guard the tables cannot express:
// whether submission needs a human approver.
type ApprovalPolicy struct {
	RequiresApproval bool
}

// SubmitTarget resolves the submit transition for the reservation machine.
func (p ApprovalPolicy) SubmitTarget() State {
	if p.RequiresApproval {
		return StatePending
	}
	return StateApproved
}
