package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jengzang/sitetrack-backend-go/internal/config"
	"github.com/jengzang/sitetrack-backend-go/internal/database"
	"github.com/jengzang/sitetrack-backend-go/internal/logger"
	"github.com/jengzang/sitetrack-backend-go/internal/models"
	"github.com/jengzang/sitetrack-backend-go/internal/remote"
	"github.com/jengzang/sitetrack-backend-go/internal/repository"
	"github.com/jengzang/sitetrack-backend-go/internal/seed"
)

// Open builds the store for cfg: the remote backend when every remote key is
// present and valid, the local slot otherwise. Missing remote keys are not an
// error; they select local mode.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Store, error) {
	slots, closeSlots, err := OpenSlots(cfg.Local)
	if err != nil {
		return nil, err
	}

	bundled := func() []models.SegmentRecord { return seed.Dataset(time.Now()) }

	var backend Backend
	if cfg.Remote.Enabled() {
		rb, err := remote.Dial(ctx, cfg.Remote, log)
		if err != nil {
			_ = closeSlots()
			return nil, fmt.Errorf("failed to connect remote store: %w", err)
		}
		backend = rb
		log.Info("remote store connected", "addr", cfg.Remote.Addr, "project", cfg.Remote.Project)
	} else {
		if missing := cfg.Remote.MissingKeys(); len(missing) > 0 {
			log.Warn("remote config missing, running in local mode", "missing", missing)
		} else if err := cfg.Remote.Validate(); err != nil {
			log.Warn("remote config invalid, running in local mode", "error", err)
		}
		lb, err := NewLocalBackend(ctx, slots, cfg.Local.Slot, bundled, log)
		if err != nil {
			_ = closeSlots()
			return nil, err
		}
		backend = lb
	}

	s := New(backend, Options{
		Cache:     slots,
		CacheSlot: cfg.Local.Slot,
		Seed:      bundled,
	}, log)
	s.closers = append(s.closers, closeSlots)
	return s, nil
}

// OpenSlots opens the configured local slot driver. The returned func releases it.
func OpenSlots(cfg config.LocalConfig) (SlotStore, func() error, error) {
	switch cfg.Driver {
	case config.DriverDiskv:
		repo, err := repository.NewDiskvSnapshotRepository(cfg.DiskvPath)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() error { return nil }, nil
	default:
		db, err := database.Open(database.Config{Path: cfg.DBPath})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open local database: %w", err)
		}
		return repository.NewSnapshotRepository(db), db.Close, nil
	}
}
