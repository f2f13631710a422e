package seed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/sitetrack-backend-go/internal/models"
)

func TestDatasetShape(t *testing.T) {
	now := time.Date(2025, 12, 8, 9, 0, 0, 0, time.UTC)
	recs := Dataset(now)

	// 30 segments with a top slab (33..62) and 17 without (63..79)
	require.Len(t, recs, 30*5+17*4)

	seen := make(map[models.RecordKey]bool)
	ids := make(map[string]bool)
	for _, r := range recs {
		require.NoError(t, r.Validate())
		assert.False(t, seen[r.Key()], "duplicate %v", r.Key())
		assert.False(t, ids[r.ID], "duplicate id %s", r.ID)
		seen[r.Key()] = true
		ids[r.ID] = true
		assert.Equal(t, now, r.LastUpdated)
		assert.Equal(t, models.NewRecordID(r.Name, r.Part), r.ID)
	}
}

func TestDatasetSiteLog(t *testing.T) {
	byKey := make(map[models.RecordKey]models.SegmentRecord)
	for _, r := range Dataset(time.Now()) {
		byKey[r.Key()] = r
	}

	slab33 := byKey[models.RecordKey{Name: "Segment 33", Part: models.PartBaseSlab}]
	assert.Equal(t, models.StatusSuspended, slab33.Status)
	assert.Equal(t, 50, slab33.Progress)

	wall33 := byKey[models.RecordKey{Name: "Segment 33", Part: models.PartSideWall}]
	assert.Equal(t, waitingForSlab, wall33.Remarks)

	wall75 := byKey[models.RecordKey{Name: "Segment 75", Part: models.PartSideWall}]
	assert.True(t, wall75.Done())

	_, hasTop := byKey[models.RecordKey{Name: "Segment 63", Part: models.PartTopSlab}]
	assert.False(t, hasTop)
}
