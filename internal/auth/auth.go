package auth

import (
	"context"
	"log/slog"
)

// Attempt carries the credential triple extracted from a completed
// handshake. The authentication subsystem consuming it is an external
// collaborator; the protocol only hands the triple over.
type Attempt struct {
	GUID      string
	Password  string
	SharedKey string
	Code      string
}

// Sink accepts login attempts produced by the secure channel.
type Sink interface {
	Login(ctx context.Context, attempt Attempt) error
}

// LoggerSink is a stub sink that records attempts without credentials.
type LoggerSink struct {
	logger *slog.Logger
}

// NewLoggerSink constructs a logging sink stub.
func NewLoggerSink(logger *slog.Logger) *LoggerSink {
	return &LoggerSink{logger: logger}
}

// Login logs the attempt. Password and shared key are never written out.
func (s *LoggerSink) Login(_ context.Context, attempt Attempt) error {
	if s == nil || s.logger == nil {
		return nil
	}
	s.logger.Info("login attempt", "guid", attempt.GUID, "has_shared_key", attempt.SharedKey != "")
	return nil
}
