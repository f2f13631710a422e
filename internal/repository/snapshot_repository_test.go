package repository_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/sitetrack-backend-go/internal/database"
	"github.com/jengzang/sitetrack-backend-go/internal/repository"
)

// setupTestDB opens an in-memory database with the full schema applied.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(database.Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

type slotStore interface {
	Read(ctx context.Context, slot string) ([]byte, error)
	Write(ctx context.Context, slot string, payload []byte) error
}

func exerciseSlots(t *testing.T, repo slotStore) {
	t.Helper()
	ctx := context.Background()

	got, err := repo.Read(ctx, "site_segments_v3")
	require.NoError(t, err)
	assert.Nil(t, got, "unwritten slot should read as nil")

	require.NoError(t, repo.Write(ctx, "site_segments_v3", []byte(`[{"id":"a"}]`)))
	got, err = repo.Read(ctx, "site_segments_v3")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a"}]`, string(got))

	require.NoError(t, repo.Write(ctx, "site_segments_v3", []byte(`[]`)))
	got, err = repo.Read(ctx, "site_segments_v3")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))

	other, err := repo.Read(ctx, "site_segments_v3.corrupt")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestSnapshotRepository_ReadWrite(t *testing.T) {
	exerciseSlots(t, repository.NewSnapshotRepository(setupTestDB(t)))
}

func TestDiskvSnapshotRepository_ReadWrite(t *testing.T) {
	repo, err := repository.NewDiskvSnapshotRepository(t.TempDir())
	require.NoError(t, err)
	exerciseSlots(t, repo)
}

func TestDiskvSnapshotRepository_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := repository.NewDiskvSnapshotRepository(dir)
	require.NoError(t, err)
	require.NoError(t, first.Write(ctx, "slot", []byte("payload")))

	second, err := repository.NewDiskvSnapshotRepository(dir)
	require.NoError(t, err)
	got, err := second.Read(ctx, "slot")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))
}
