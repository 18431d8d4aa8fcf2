package securechannel

import (
	"fmt"
	"sync"
)

// State of the pairing handshake for one relay connection.
type State int

const (
	StateIdle State = iota
	StateSubscribed
	StatePingSent
	StateAwaitingHandshake
	StateAwaitingCredential
	StateCompleted
	StateDeclined
	StateFailed
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubscribed:
		return "subscribed"
	case StatePingSent:
		return "ping_sent"
	case StateAwaitingHandshake:
		return "awaiting_handshake"
	case StateAwaitingCredential:
		return "awaiting_credential"
	case StateCompleted:
		return "completed"
	case StateDeclined:
		return "declined"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// transitions lists the legal successors of each state. A phone handshake
// can arrive in any state (first-time pairing has no prior ping), so
// StateAwaitingHandshake is reachable from everywhere; the same goes for
// terminal outcomes, which the phone decides on its own schedule.
var transitions = map[State][]State{
	StateIdle:               {StateSubscribed},
	StateSubscribed:         {StatePingSent, StateAwaitingHandshake, StateAwaitingCredential, StateCompleted, StateDeclined, StateFailed},
	StatePingSent:           {StateAwaitingHandshake, StateAwaitingCredential, StateCompleted, StateDeclined, StateFailed},
	StateAwaitingHandshake:  {StateAwaitingCredential, StateAwaitingHandshake, StateCompleted, StateDeclined, StateFailed},
	StateAwaitingCredential: {StateAwaitingHandshake, StateCompleted, StateDeclined, StateFailed},
	StateCompleted:          {StateAwaitingHandshake},
	StateDeclined:           {StateAwaitingHandshake},
	StateFailed:             {StateAwaitingHandshake},
}

// Machine is an explicit handshake state machine, testable independently of
// the transport.
type Machine struct {
	mu    sync.Mutex
	state State
}

// NewMachine starts in StateIdle.
func NewMachine() *Machine {
	return &Machine{state: StateIdle}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// To advances the machine, rejecting illegal transitions.
func (m *Machine) To(target State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == target {
		return nil
	}
	for _, next := range transitions[m.state] {
		if next == target {
			m.state = target
			return nil
		}
	}
	return fmt.Errorf("illegal transition %s -> %s", m.state, target)
}

// Reset returns to StateIdle. A reconnect resumes from here and
// resubscribes with the same persisted identity, so an in-flight pairing
// against the old channel identifier can still complete.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateIdle
}
