package analytics

import (
	"context"
	"log/slog"
	"sync"
)

// Event keys emitted by the pairing flow.
const (
	LoginRequestDenied   = "LOGIN_REQUEST_DENIED"
	LoginRequestApproved = "LOGIN_REQUEST_APPROVED"
	LoginSignedIn        = "LOGIN_SIGNED_IN"
)

// Event is a single analytics record.
type Event struct {
	Key        string
	Properties map[string]any
}

// Sink records analytics events.
type Sink interface {
	Track(ctx context.Context, event Event) error
}

// LoggerSink writes events to the structured logger. Used when no database
// is configured.
type LoggerSink struct {
	logger *slog.Logger
}

// NewLoggerSink constructs a logging analytics sink.
func NewLoggerSink(logger *slog.Logger) *LoggerSink {
	return &LoggerSink{logger: logger}
}

// Track logs the event.
func (s *LoggerSink) Track(_ context.Context, event Event) error {
	if s == nil || s.logger == nil {
		return nil
	}
	s.logger.Info("analytics", "key", event.Key, "properties", event.Properties)
	return nil
}

// MemorySink collects events for assertions in tests.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

// NewMemorySink builds an in-memory analytics sink for testing.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Track appends the event.
func (s *MemorySink) Track(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of everything tracked so far.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
