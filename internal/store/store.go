// Package store owns the canonical set of segment records. Reads go through
// a subscription feed of full snapshots; writes go through Put, Create,
// Update and DeleteByName.
package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jengzang/sitetrack-backend-go/internal/logger"
	"github.com/jengzang/sitetrack-backend-go/internal/models"
)

// Snapshot is one full, immutable view of the record set. Subscribers must
// not modify Records.
type Snapshot struct {
	Version uint64                 `json:"version"`
	Mode    models.Mode            `json:"mode"`
	Records []models.SegmentRecord `json:"records"`
	At      time.Time              `json:"at"`
}

// Options configures a Store
type Options struct {
	// Cache is written with every published snapshot in live mode. Optional.
	Cache     SlotStore
	CacheSlot string
	// Seed supplies the bundled dataset for an empty remote store.
	Seed func() []models.SegmentRecord
	Now  func() time.Time
}

// Store fans backend snapshots out to subscribers.
type Store struct {
	backend   Backend
	cache     SlotStore
	cacheSlot string
	seed      func() []models.SegmentRecord
	now       func() time.Time
	log       *logger.Logger
	closers   []func() error

	// pubMu serializes load+publish so subscribers see versions in order.
	pubMu sync.Mutex

	mu      sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
	latest  *Snapshot
	version uint64

	seeded atomic.Bool
}

// New creates a store over backend. Call Load or Run before serving reads.
func New(backend Backend, opts Options, log *logger.Logger) *Store {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		backend:   backend,
		cache:     opts.Cache,
		cacheSlot: opts.CacheSlot,
		seed:      opts.Seed,
		now:       now,
		log:       log.With("component", "Store", "mode", backend.Mode()),
		subs:      make(map[int]func(Snapshot)),
	}
}

// Mode reports whether the store is backed remotely (live) or locally.
func (s *Store) Mode() models.Mode {
	return s.backend.Mode()
}

// Subscribe registers fn for every published snapshot. If a snapshot exists
// already fn receives it before Subscribe returns. fn runs synchronously on
// the publishing goroutine and must not call back into the store.
func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	latest := s.latest
	s.mu.Unlock()

	if latest != nil {
		fn(*latest)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Latest returns the most recently published snapshot.
func (s *Store) Latest() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return Snapshot{}, false
	}
	return *s.latest, true
}

// Load reads the backend and publishes the initial snapshot.
func (s *Store) Load(ctx context.Context) error {
	return s.refresh(ctx)
}

// Run loads the initial snapshot and then follows the backend's change feed
// until ctx is done.
func (s *Store) Run(ctx context.Context) error {
	if err := s.refresh(ctx); err != nil {
		return err
	}

	changes, err := s.backend.Changes(ctx)
	if err != nil {
		return fmt.Errorf("%w: subscribe to changes: %v", ErrBackend, err)
	}
	if changes == nil {
		<-ctx.Done()
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("%w: change feed closed", ErrBackend)
			}
			if err := s.refresh(ctx); err != nil && ctx.Err() == nil {
				s.log.Warn("refresh after remote change failed", "error", err)
			}
		}
	}
}

// Put upserts rec by id. An empty id is derived from (name, part). The name
// and part of an existing record never change; a new id whose (name, part)
// is already taken is rejected with ErrDuplicate.
func (s *Store) Put(ctx context.Context, rec models.SegmentRecord) (models.SegmentRecord, error) {
	rec = rec.Normalized()
	if err := rec.Validate(); err != nil {
		return models.SegmentRecord{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if rec.ID == "" {
		rec.ID = models.NewRecordID(rec.Name, rec.Part)
	}

	snap, err := s.current(ctx)
	if err != nil {
		return models.SegmentRecord{}, err
	}
	if existing, ok := findByID(snap.Records, rec.ID); ok {
		rec.Name, rec.Part = existing.Name, existing.Part
	} else {
		for _, other := range snap.Records {
			if other.Key() == rec.Key() {
				return models.SegmentRecord{}, fmt.Errorf("%w: %s / %s", ErrDuplicate, rec.Name, rec.Part)
			}
		}
	}
	rec.LastUpdated = s.now().UTC()

	if err := s.backend.Put(ctx, rec); err != nil {
		return models.SegmentRecord{}, fmt.Errorf("%w: put %s: %v", ErrBackend, rec.ID, err)
	}
	s.refreshAfterWrite(ctx)
	return rec, nil
}

// Create adds a new record, rejecting a duplicate (name, part) before any write.
func (s *Store) Create(ctx context.Context, rec models.SegmentRecord) (models.SegmentRecord, error) {
	snap, err := s.current(ctx)
	if err != nil {
		return models.SegmentRecord{}, err
	}

	rec = rec.Normalized()
	for _, existing := range snap.Records {
		if existing.Key() == rec.Key() {
			return models.SegmentRecord{}, fmt.Errorf("%w: %s / %s", ErrDuplicate, rec.Name, rec.Part)
		}
	}
	rec.ID = ""
	return s.Put(ctx, rec)
}

// Update applies the mutable fields of patch to the record with id.
func (s *Store) Update(ctx context.Context, id string, patch models.SegmentPatch) (models.SegmentRecord, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return models.SegmentRecord{}, fmt.Errorf("%w: invalid status %q", ErrInvalidRecord, *patch.Status)
	}

	snap, err := s.current(ctx)
	if err != nil {
		return models.SegmentRecord{}, err
	}

	existing, ok := findByID(snap.Records, id)
	if !ok {
		return models.SegmentRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.Put(ctx, patch.Apply(existing, s.now()))
}

// DeleteByName removes every record of the named segment in one backend
// write and returns how many records were removed. The backend is always
// asked, so records written elsewhere but not yet seen here go too.
func (s *Store) DeleteByName(ctx context.Context, name string) (int, error) {
	removed, err := s.backend.DeleteByName(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("%w: delete %q: %v", ErrBackend, name, err)
	}
	if removed > 0 {
		s.refreshAfterWrite(ctx)
	}
	return removed, nil
}

// Close releases the backend and anything opened alongside it.
func (s *Store) Close() error {
	var errs []error
	if err := s.backend.Close(); err != nil {
		errs = append(errs, err)
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Store) current(ctx context.Context) (Snapshot, error) {
	if snap, ok := s.Latest(); ok {
		return snap, nil
	}
	if err := s.refresh(ctx); err != nil {
		return Snapshot{}, err
	}
	snap, _ := s.Latest()
	return snap, nil
}

// refreshAfterWrite republishes after a successful write. A failure is only
// logged: the write is durable and the change feed or the next read picks
// it up.
func (s *Store) refreshAfterWrite(ctx context.Context) {
	if err := s.refresh(ctx); err != nil {
		s.log.Warn("refresh after write failed", "error", err)
	}
}

func findByID(recs []models.SegmentRecord, id string) (models.SegmentRecord, bool) {
	for _, r := range recs {
		if r.ID == id {
			return r, true
		}
	}
	return models.SegmentRecord{}, false
}

// refresh loads the backend, seeds an empty remote store once, and publishes.
func (s *Store) refresh(ctx context.Context) error {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	recs, err := s.backend.Load(ctx)
	if err != nil {
		return fmt.Errorf("%w: load: %v", ErrBackend, err)
	}

	if len(recs) == 0 && s.backend.Mode() == models.ModeLive && s.seeded.CompareAndSwap(false, true) {
		seed := s.seedRecords(ctx)
		if err := s.backend.PutBatch(ctx, seed); err != nil {
			s.seeded.Store(false)
			return fmt.Errorf("%w: seed: %v", ErrBackend, err)
		}
		s.log.Info("seeded empty remote store", "records", len(seed))

		recs, err = s.backend.Load(ctx)
		if err != nil {
			return fmt.Errorf("%w: load after seed: %v", ErrBackend, err)
		}
	}

	if !s.publishLocked(recs) {
		return nil
	}
	s.writeCache(ctx, recs)
	return nil
}

// publishLocked delivers recs unless they equal the latest snapshot.
// Caller holds pubMu.
func (s *Store) publishLocked(recs []models.SegmentRecord) bool {
	if recs == nil {
		recs = []models.SegmentRecord{}
	}

	s.mu.Lock()
	if s.latest != nil && reflect.DeepEqual(s.latest.Records, recs) {
		s.mu.Unlock()
		return false
	}
	s.version++
	snap := Snapshot{
		Version: s.version,
		Mode:    s.backend.Mode(),
		Records: recs,
		At:      s.now().UTC(),
	}
	s.latest = &snap
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	return true
}

// writeCache keeps a best-effort offline copy of the remote data.
func (s *Store) writeCache(ctx context.Context, recs []models.SegmentRecord) {
	if s.cache == nil || s.backend.Mode() != models.ModeLive {
		return
	}
	payload, err := EncodeRecords(recs)
	if err == nil {
		err = s.cache.Write(ctx, s.cacheSlot, payload)
	}
	if err != nil {
		s.log.Warn("failed to write local cache", "error", err)
	}
}

// seedRecords picks the local cache snapshot, or the bundled dataset, and
// re-keys every record by its (name, part) id so repeated seeds overwrite.
func (s *Store) seedRecords(ctx context.Context) []models.SegmentRecord {
	var source []models.SegmentRecord
	if s.cache != nil {
		payload, err := s.cache.Read(ctx, s.cacheSlot)
		if err != nil {
			s.log.Warn("failed to read local cache for seeding", "error", err)
		} else if payload != nil {
			if recs, err := DecodeRecords(payload); err != nil {
				s.log.Warn("local cache is malformed, seeding bundled data", "error", err)
			} else {
				source = recs
			}
		}
	}
	if len(source) == 0 && s.seed != nil {
		source = s.seed()
	}

	seen := make(map[models.RecordKey]bool, len(source))
	out := make([]models.SegmentRecord, 0, len(source))
	for _, r := range source {
		r = r.Normalized()
		if r.Validate() != nil || seen[r.Key()] {
			continue
		}
		seen[r.Key()] = true
		r.ID = models.NewRecordID(r.Name, r.Part)
		out = append(out, r)
	}
	return out
}
