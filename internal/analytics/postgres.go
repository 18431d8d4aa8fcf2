package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSink persists analytics events as an audit trail.
type PostgresSink struct {
	db *pgxpool.Pool
}

// NewPostgresSink builds a Postgres-backed analytics sink.
func NewPostgresSink(db *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{db: db}
}

// Track inserts the event into analytics_events.
func (s *PostgresSink) Track(ctx context.Context, event Event) error {
	props, err := json.Marshal(event.Properties)
	if err != nil {
		return fmt.Errorf("encode event properties: %w", err)
	}
	_, err = s.db.Exec(ctx, `INSERT INTO analytics_events (id, key, properties, created_at)
        VALUES ($1, $2, $3, $4)`, uuid.New(), event.Key, props, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert analytics event: %w", err)
	}
	return nil
}
