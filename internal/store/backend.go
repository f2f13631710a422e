package store

import (
	"context"

	"github.com/jengzang/sitetrack-backend-go/internal/models"
)

// Backend is the storage behind a Store. The store picks exactly one at
// startup, either a LocalBackend or a remote document store.
type Backend interface {
	Mode() models.Mode
	// Load returns the full record set.
	Load(ctx context.Context) ([]models.SegmentRecord, error)
	// Put upserts one record by id.
	Put(ctx context.Context, rec models.SegmentRecord) error
	// PutBatch upserts all records in a single write.
	PutBatch(ctx context.Context, recs []models.SegmentRecord) error
	// DeleteByName removes every record of a segment in a single write and
	// reports how many were removed.
	DeleteByName(ctx context.Context, name string) (int, error)
	// Changes delivers a tick whenever the data may have changed outside this
	// process. A nil channel means the backend has no external writers.
	Changes(ctx context.Context) (<-chan struct{}, error)
	Close() error
}

// SlotStore reads and writes serialized record sets in named slots.
// Read returns nil for a slot that was never written.
type SlotStore interface {
	Read(ctx context.Context, slot string) ([]byte, error)
	Write(ctx context.Context, slot string, payload []byte) error
}
