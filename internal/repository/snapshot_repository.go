package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SnapshotRepository stores serialized record sets in named SQLite slots
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Read returns the payload of a slot, or nil if the slot was never written
func (r *SnapshotRepository) Read(ctx context.Context, slot string) ([]byte, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, "SELECT payload FROM snapshots WHERE slot = ?", slot).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %q: %w", slot, err)
	}
	return []byte(payload), nil
}

// Write replaces the payload of a slot
func (r *SnapshotRepository) Write(ctx context.Context, slot string, payload []byte) error {
	query := `
		INSERT INTO snapshots (slot, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, slot, string(payload), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to write snapshot %q: %w", slot, err)
	}
	return nil
}
