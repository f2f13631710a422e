package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jengzang/sitetrack-backend-go/internal/logger"
	"github.com/jengzang/sitetrack-backend-go/internal/models"
	"github.com/jengzang/sitetrack-backend-go/internal/store"
	"github.com/jengzang/sitetrack-backend-go/internal/viewmodel"
)

// MatrixView is the dashboard payload for one snapshot and filter
type MatrixView struct {
	Mode    models.Mode      `json:"mode"`
	Version uint64           `json:"version"`
	Matrix  viewmodel.Matrix `json:"matrix"`
	Stats   viewmodel.Stats  `json:"stats"`
}

// SegmentService handles business logic for segment records
type SegmentService struct {
	store *store.Store
	log   *logger.Logger
}

// NewSegmentService creates a new segment service
func NewSegmentService(st *store.Store, log *logger.Logger) *SegmentService {
	return &SegmentService{store: st, log: log.With("service", "SegmentService")}
}

// Mode reports live or local
func (s *SegmentService) Mode() models.Mode {
	return s.store.Mode()
}

// Snapshot returns the latest published snapshot, loading it if needed
func (s *SegmentService) Snapshot(ctx context.Context) (store.Snapshot, error) {
	if snap, ok := s.store.Latest(); ok {
		return snap, nil
	}
	if err := s.store.Load(ctx); err != nil {
		return store.Snapshot{}, err
	}
	snap, _ := s.store.Latest()
	return snap, nil
}

// Matrix builds the filtered matrix and dashboard stats
func (s *SegmentService) Matrix(ctx context.Context, query string) (MatrixView, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return MatrixView{}, err
	}
	return View(snap, query), nil
}

// View derives the dashboard payload from snap
func View(snap store.Snapshot, query string) MatrixView {
	return MatrixView{
		Mode:    snap.Mode,
		Version: snap.Version,
		Matrix:  viewmodel.BuildMatrix(snap.Records, query),
		Stats:   viewmodel.Summarize(snap.Records),
	}
}

// Stats computes the dashboard tiles
func (s *SegmentService) Stats(ctx context.Context) (viewmodel.Stats, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return viewmodel.Stats{}, err
	}
	return viewmodel.Summarize(snap.Records), nil
}

// Find returns one record by id
func (s *SegmentService) Find(ctx context.Context, id string) (models.SegmentRecord, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return models.SegmentRecord{}, err
	}
	for _, r := range snap.Records {
		if r.ID == id {
			return r, nil
		}
	}
	return models.SegmentRecord{}, fmt.Errorf("%w: %s", store.ErrNotFound, id)
}

// Create adds a segment part
func (s *SegmentService) Create(ctx context.Context, req models.CreateSegmentRequest) (models.SegmentRecord, error) {
	part, err := models.ParsePart(req.Part)
	if err != nil {
		return models.SegmentRecord{}, fmt.Errorf("%w: %v", store.ErrInvalidRecord, err)
	}
	status := models.StatusNotStarted
	if strings.TrimSpace(req.Status) != "" {
		if status, err = models.ParseStatus(req.Status); err != nil {
			return models.SegmentRecord{}, fmt.Errorf("%w: %v", store.ErrInvalidRecord, err)
		}
	}

	rec, err := s.store.Create(ctx, models.SegmentRecord{
		Name:     req.Name,
		Part:     part,
		Status:   status,
		Progress: req.Progress,
		Remarks:  req.Remarks,
	})
	if err != nil {
		return models.SegmentRecord{}, err
	}
	s.log.Info("segment part created", "id", rec.ID, "name", rec.Name, "part", rec.Part)
	return rec, nil
}

// Update edits the status, progress or remarks of a record
func (s *SegmentService) Update(ctx context.Context, id string, req models.UpdateSegmentRequest) (models.SegmentRecord, error) {
	var patch models.SegmentPatch
	if req.Status != nil {
		status, err := models.ParseStatus(*req.Status)
		if err != nil {
			return models.SegmentRecord{}, fmt.Errorf("%w: %v", store.ErrInvalidRecord, err)
		}
		patch.Status = &status
	}
	patch.Progress = req.Progress
	patch.Remarks = req.Remarks

	rec, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return models.SegmentRecord{}, err
	}
	s.log.Info("segment part updated", "id", rec.ID, "status", rec.Status, "progress", rec.Progress)
	return rec, nil
}

// DeleteGroup removes every part of a segment
func (s *SegmentService) DeleteGroup(ctx context.Context, name string) (int, error) {
	n, err := s.store.DeleteByName(ctx, name)
	if err != nil {
		return 0, err
	}
	s.log.Info("segment deleted", "name", name, "records", n)
	return n, nil
}

// Subscribe forwards store snapshots to fn
func (s *SegmentService) Subscribe(fn func(store.Snapshot)) func() {
	return s.store.Subscribe(fn)
}
