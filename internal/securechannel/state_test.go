package securechannel

import "testing"

func TestMachineHappyPath(t *testing.T) {
	m := NewMachine()
	if m.State() != StateIdle {
		t.Fatalf("expected idle start, got %s", m.State())
	}

	for _, target := range []State{StateSubscribed, StatePingSent, StateAwaitingHandshake, StateAwaitingCredential, StateCompleted} {
		if err := m.To(target); err != nil {
			t.Fatalf("transition to %s: %v", target, err)
		}
	}
	if m.State() != StateCompleted {
		t.Fatalf("expected completed, got %s", m.State())
	}
}

func TestMachineRejectsIllegalTransitions(t *testing.T) {
	m := NewMachine()
	if err := m.To(StateCompleted); err == nil {
		t.Fatal("idle -> completed must be rejected")
	}
	if err := m.To(StatePingSent); err == nil {
		t.Fatal("idle -> ping_sent must be rejected")
	}
	if m.State() != StateIdle {
		t.Fatalf("state moved on rejected transition: %s", m.State())
	}
}

func TestMachineHandshakeReachableFromTerminalStates(t *testing.T) {
	m := NewMachine()
	if err := m.To(StateSubscribed); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := m.To(StateDeclined); err != nil {
		t.Fatalf("decline: %v", err)
	}
	// The phone may retry after declining.
	if err := m.To(StateAwaitingHandshake); err != nil {
		t.Fatalf("handshake after decline: %v", err)
	}
}

func TestMachineSelfTransitionIsNoop(t *testing.T) {
	m := NewMachine()
	if err := m.To(StateIdle); err != nil {
		t.Fatalf("self transition: %v", err)
	}
}

func TestMachineReset(t *testing.T) {
	m := NewMachine()
	if err := m.To(StateSubscribed); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	m.Reset()
	if m.State() != StateIdle {
		t.Fatalf("expected idle after reset, got %s", m.State())
	}
	if err := m.To(StateSubscribed); err != nil {
		t.Fatalf("resubscribe after reset: %v", err)
	}
}
