package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/peterbourgon/diskv/v3"
)

// DiskvSnapshotRepository stores each slot as one file under a base directory
type DiskvSnapshotRepository struct {
	d *diskv.Diskv
}

// NewDiskvSnapshotRepository creates a diskv-backed snapshot repository
func NewDiskvSnapshotRepository(basePath string) (*DiskvSnapshotRepository, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create slot directory: %w", err)
	}
	return &DiskvSnapshotRepository{d: diskv.New(diskv.Options{
		BasePath:     basePath,
		TempDir:      filepath.Join(basePath, ".tmp"),
		Transform:    func(string) []string { return []string{} },
		CacheSizeMax: 1024 * 1024, // 1MB
	})}, nil
}

// Read returns the payload of a slot, or nil if the slot was never written
func (r *DiskvSnapshotRepository) Read(_ context.Context, slot string) ([]byte, error) {
	val, err := r.d.Read(slot)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read slot %q: %w", slot, err)
	}
	return val, nil
}

// Write replaces the payload of a slot
func (r *DiskvSnapshotRepository) Write(_ context.Context, slot string, payload []byte) error {
	if err := r.d.Write(slot, payload); err != nil {
		return fmt.Errorf("failed to write slot %q: %w", slot, err)
	}
	return nil
}
