package relay

import (
	"context"
	"errors"
	"sync"
)

// ErrNotConnected is returned by a Switch with no live connection behind it.
var ErrNotConnected = errors.New("relay not connected")

// Switch is a Sender whose underlying connection can be swapped as the
// relay reconnects. The protocol services hold the Switch for the life of
// the process while connections come and go.
type Switch struct {
	mu     sync.RWMutex
	sender Sender
}

// NewSwitch builds an unconnected Switch.
func NewSwitch() *Switch {
	return &Switch{}
}

// Set installs the current connection. Pass nil when the connection drops.
func (s *Switch) Set(sender Sender) {
	s.mu.Lock()
	s.sender = sender
	s.mu.Unlock()
}

// Send forwards to the current connection.
func (s *Switch) Send(ctx context.Context, frame []byte) error {
	s.mu.RLock()
	sender := s.sender
	s.mu.RUnlock()
	if sender == nil {
		return ErrNotConnected
	}
	return sender.Send(ctx, frame)
}
