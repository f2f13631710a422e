package remote

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/sitetrack-backend-go/internal/config"
	"github.com/jengzang/sitetrack-backend-go/internal/logger"
	"github.com/jengzang/sitetrack-backend-go/internal/models"
)

func newTestBackend(t *testing.T) (*RedisBackend, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	b := NewRedisBackend(rdb, "test", "segments", logger.Nop())
	t.Cleanup(func() { _ = b.Close() })
	return b, mr
}

func rec(name string, part models.Part, status models.Status, progress int) models.SegmentRecord {
	return models.SegmentRecord{
		ID:          models.NewRecordID(name, part),
		Name:        name,
		Part:        part,
		Status:      status,
		Progress:    progress,
		LastUpdated: time.Date(2025, 12, 8, 0, 0, 0, 0, time.UTC),
	}
}

func TestRedisBackend_PutAndLoad(t *testing.T) {
	b, mr := newTestBackend(t)
	ctx := context.Background()

	recs, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)

	a := rec("Segment 33", models.PartBaseSlab, models.StatusSuspended, 50)
	require.NoError(t, b.Put(ctx, a))

	recs, err = b.Load(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, a, recs[0])

	// document body is the record verbatim, keyed by id
	raw := mr.HGet("test:segments", a.ID)
	assert.Contains(t, raw, `"part":"Base Slab"`)
	assert.Contains(t, raw, `"status":"SUSPENDED"`)

	a.Progress = 80
	require.NoError(t, b.Put(ctx, a))
	recs, err = b.Load(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 80, recs[0].Progress)
}

func TestRedisBackend_DeleteByName(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()

	require.NoError(t, b.PutBatch(ctx, []models.SegmentRecord{
		rec("A", models.PartBlinding, models.StatusCompleted, 100),
		rec("A", models.PartWaterproofing, models.StatusRebar, 10),
		rec("B", models.PartBlinding, models.StatusNotStarted, 0),
	}))

	removed, err := b.DeleteByName(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	recs, err := b.Load(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "B", recs[0].Name)
	assert.Equal(t, models.PartBlinding, recs[0].Part)

	removed, err = b.DeleteByName(ctx, "A")
	require.NoError(t, err)
	assert.Zero(t, removed)

	// deleting an unknown name is a no-op
	removed, err = b.DeleteByName(ctx, "Z")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestRedisBackend_DeleteByNameSkipsStaleIndexEntries(t *testing.T) {
	b, mr := newTestBackend(t)
	ctx := context.Background()

	a := rec("A", models.PartBlinding, models.StatusCompleted, 100)
	require.NoError(t, b.Put(ctx, a))
	// the index still lists the id under a name the document no longer has
	_, err := mr.SAdd("test:segments:name:Old", a.ID)
	require.NoError(t, err)

	removed, err := b.DeleteByName(ctx, "Old")
	require.NoError(t, err)
	assert.Zero(t, removed)

	recs, err := b.Load(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "A", recs[0].Name)
}

func TestRedisBackend_LoadClampsProgress(t *testing.T) {
	b, mr := newTestBackend(t)
	ctx := context.Background()

	mr.HSet("test:segments", "x1", `{"id":"x1","name":" A ","part":"Blinding","status":"REBAR","progress":150}`)

	recs, err := b.Load(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 100, recs[0].Progress)
	assert.Equal(t, "A", recs[0].Name)
}

func TestRedisBackend_PutBatchIsIdempotentForSameIDs(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()

	batch := []models.SegmentRecord{
		rec("Segment 1", models.PartBlinding, models.StatusCompleted, 100),
		rec("Segment 1", models.PartTopSlab, models.StatusNotStarted, 0),
	}
	require.NoError(t, b.PutBatch(ctx, batch))
	require.NoError(t, b.PutBatch(ctx, batch))

	recs, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestRedisBackend_ChangesFollowWrites(t *testing.T) {
	b, mr := newTestBackend(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := b.Changes(ctx)
	require.NoError(t, err)

	// a write from another process
	other := NewRedisBackend(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}), "test", "segments", logger.Nop())
	defer other.Close()
	require.NoError(t, other.Put(ctx, rec("Segment 9", models.PartSideWall, models.StatusFormwork, 40)))

	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for change notification")
	}

	cancel()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-changes:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("change channel not closed after cancel")
		}
	}
}

func TestDialRejectsBadAddress(t *testing.T) {
	_, err := Dial(context.Background(), config.RemoteConfig{Addr: "nope", Project: "p"}, logger.Nop())
	assert.Error(t, err)
}

func TestDialPings(t *testing.T) {
	mr := miniredis.RunT(t)
	b, err := Dial(context.Background(), config.RemoteConfig{Addr: mr.Addr(), Project: "p", Collection: "segments"}, logger.Nop())
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, models.ModeLive, b.Mode())
}
