package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/jengzang/sitetrack-backend-go/internal/logger"
	"github.com/jengzang/sitetrack-backend-go/internal/models"
)

// LocalBackend keeps the record set in memory and persists every change to a
// single named slot. It is authoritative when no remote store is configured.
type LocalBackend struct {
	mu      sync.Mutex
	slots   SlotStore
	slot    string
	records []models.SegmentRecord
	log     *logger.Logger
}

// NewLocalBackend reads the slot once. An empty slot is seeded from defaults
// and persisted. A slot that fails to decode is copied to "<slot>.corrupt" and
// replaced by defaults.
func NewLocalBackend(ctx context.Context, slots SlotStore, slot string, defaults func() []models.SegmentRecord, log *logger.Logger) (*LocalBackend, error) {
	b := &LocalBackend{
		slots: slots,
		slot:  slot,
		log:   log.With("component", "LocalBackend", "slot", slot),
	}

	payload, err := slots.Read(ctx, slot)
	if err != nil {
		return nil, fmt.Errorf("failed to read local slot: %w", err)
	}

	var recs []models.SegmentRecord
	if payload != nil {
		recs, err = DecodeRecords(payload)
		if err != nil {
			b.log.Warn("local snapshot is malformed, starting from bundled data", "error", err)
			if werr := slots.Write(ctx, slot+".corrupt", payload); werr != nil {
				return nil, fmt.Errorf("failed to back up malformed slot: %w", werr)
			}
			payload = nil
		}
		for i := range recs {
			recs[i] = recs[i].Normalized()
		}
	}

	if payload == nil {
		if defaults != nil {
			recs = defaults()
		}
		if err := b.persist(ctx, recs); err != nil {
			return nil, err
		}
		b.log.Info("local slot seeded", "records", len(recs))
	}

	b.records = recs
	return b, nil
}

func (b *LocalBackend) Mode() models.Mode { return models.ModeLocal }

func (b *LocalBackend) Load(_ context.Context) ([]models.SegmentRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.SegmentRecord(nil), b.records...), nil
}

func (b *LocalBackend) Put(ctx context.Context, rec models.SegmentRecord) error {
	return b.PutBatch(ctx, []models.SegmentRecord{rec})
}

func (b *LocalBackend) PutBatch(ctx context.Context, recs []models.SegmentRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := append([]models.SegmentRecord(nil), b.records...)
	for _, rec := range recs {
		next = upsert(next, rec)
	}
	return b.commit(ctx, next)
}

func (b *LocalBackend) DeleteByName(ctx context.Context, name string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := make([]models.SegmentRecord, 0, len(b.records))
	for _, r := range b.records {
		if r.Name != name {
			next = append(next, r)
		}
	}
	removed := len(b.records) - len(next)
	if removed == 0 {
		return 0, nil
	}
	if err := b.commit(ctx, next); err != nil {
		return 0, err
	}
	return removed, nil
}

// Changes returns nil: only this process writes the local slot.
func (b *LocalBackend) Changes(_ context.Context) (<-chan struct{}, error) {
	return nil, nil
}

func (b *LocalBackend) Close() error { return nil }

// commit persists next and only then makes it the in-memory state.
func (b *LocalBackend) commit(ctx context.Context, next []models.SegmentRecord) error {
	if err := b.persist(ctx, next); err != nil {
		return err
	}
	b.records = next
	return nil
}

func (b *LocalBackend) persist(ctx context.Context, recs []models.SegmentRecord) error {
	payload, err := EncodeRecords(recs)
	if err != nil {
		return err
	}
	if err := b.slots.Write(ctx, b.slot, payload); err != nil {
		return fmt.Errorf("failed to persist local slot: %w", err)
	}
	return nil
}

// upsert replaces the record with the same id in place, or appends it.
func upsert(recs []models.SegmentRecord, rec models.SegmentRecord) []models.SegmentRecord {
	for i := range recs {
		if recs[i].ID == rec.ID {
			recs[i] = rec
			return recs
		}
	}
	return append(recs, rec)
}
