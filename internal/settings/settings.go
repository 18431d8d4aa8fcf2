package settings

import (
	"context"
	"log/slog"
)

// Store applies account-level setting updates pushed by the relay.
type Store interface {
	SetEmailVerified(ctx context.Context) error
}

// LoggerStore is a stub store that records updates to the logger.
type LoggerStore struct {
	logger *slog.Logger
}

// NewLoggerStore constructs a logging settings stub.
func NewLoggerStore(logger *slog.Logger) *LoggerStore {
	return &LoggerStore{logger: logger}
}

// SetEmailVerified logs the update.
func (s *LoggerStore) SetEmailVerified(_ context.Context) error {
	if s == nil || s.logger == nil {
		return nil
	}
	s.logger.Info("email verified")
	return nil
}
