package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jengzang/sitetrack-backend-go/internal/config"
	"github.com/jengzang/sitetrack-backend-go/internal/logger"
	"github.com/jengzang/sitetrack-backend-go/internal/models"
	"github.com/jengzang/sitetrack-backend-go/internal/service"
	"github.com/jengzang/sitetrack-backend-go/internal/store"
)

func localEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SITETRACK_CONFIG_PATH", dir)
	t.Setenv("SITETRACK_LOCAL_DRIVER", "diskv")
	t.Setenv("SITETRACK_LOCAL_DISKV_PATH", filepath.Join(dir, "slots"))
	t.Setenv("SITETRACK_REMOTE_ADDR", "")
	t.Setenv("SITETRACK_REMOTE_PROJECT", "")
	t.Setenv("SITETRACK_LOG_MODE", "production")
	return dir
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := New()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestExport_WritesBundledDataset(t *testing.T) {
	dir := localEnv(t)

	recs, err := store.DecodeRecords([]byte(run(t, "export")))
	require.NoError(t, err)
	assert.Len(t, recs, 30*5+17*4)

	file := filepath.Join(dir, "backup.json")
	run(t, "export", "--out", file)
	payload, err := os.ReadFile(file)
	require.NoError(t, err)
	fromFile, err := store.DecodeRecords(payload)
	require.NoError(t, err)
	assert.Equal(t, recs, fromFile, "the slot persists between runs")
}

func TestMatrix_JSON(t *testing.T) {
	localEnv(t)

	var view service.MatrixView
	require.NoError(t, json.Unmarshal([]byte(run(t, "matrix", "--json", "--filter", "79")), &view))
	assert.Equal(t, models.ModeLocal, view.Mode)
	require.Len(t, view.Matrix.Rows, 1)
	assert.Equal(t, "79", view.Matrix.Rows[0].Label)
	assert.Equal(t, "done", view.Matrix.Rows[0].Cells[0].State)
}

func TestPrintView_JSON(t *testing.T) {
	var buf bytes.Buffer
	view := service.View(store.Snapshot{Mode: models.ModeLocal, Records: []models.SegmentRecord{
		{Name: "Segment 40", Part: models.PartBlinding, Status: models.StatusRebar, Progress: 10},
	}}, "")
	require.NoError(t, printView(&buf, view, true, false))
	assert.Contains(t, buf.String(), `"label": "40"`)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	cfg := &config.Config{
		Port:            "127.0.0.1:0",
		LogMode:         "production",
		Local:           config.LocalConfig{Driver: config.DriverDiskv, DiskvPath: filepath.Join(dir, "slots"), Slot: "site_segments_v3"},
		Auth:            config.AuthConfig{JWTSecret: "s", AdminPassword: "pw", SessionTTL: time.Hour},
		RateLimit:       10,
		RateLimitWindow: time.Minute,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg, logger.Nop()) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("serve did not stop after cancel")
	}
}
