package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/sitetrack-backend-go/internal/auth"
	"github.com/jengzang/sitetrack-backend-go/internal/config"
	"github.com/jengzang/sitetrack-backend-go/internal/logger"
	"github.com/jengzang/sitetrack-backend-go/internal/models"
	"github.com/jengzang/sitetrack-backend-go/internal/report"
	"github.com/jengzang/sitetrack-backend-go/internal/repository"
	"github.com/jengzang/sitetrack-backend-go/internal/service"
	"github.com/jengzang/sitetrack-backend-go/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubGenerator struct{ calls int }

func (g *stubGenerator) Enabled() bool { return true }

func (g *stubGenerator) Generate(_ context.Context, recs []models.SegmentRecord) string {
	g.calls++
	return "## Daily report"
}

func (g *stubGenerator) AnalyzeRisk(_ context.Context, rec models.SegmentRecord) string {
	return "Check formwork before pouring " + rec.Name
}

type testEnv struct {
	router *gin.Engine
	store  *store.Store
	gen    *stubGenerator
	token  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	log := logger.Nop()

	slots, err := repository.NewDiskvSnapshotRepository(t.TempDir())
	require.NoError(t, err)
	now := time.Date(2025, 12, 8, 9, 0, 0, 0, time.UTC)
	defaults := func() []models.SegmentRecord {
		return []models.SegmentRecord{
			models.NewSegmentRecord("Segment 10", models.PartBlinding, now),
			models.NewSegmentRecord("Segment 9", models.PartBlinding, now),
			models.NewSegmentRecord("Segment 9", models.PartWaterproofing, now),
		}
	}
	backend, err := store.NewLocalBackend(ctx, slots, "site_segments_v3", defaults, log)
	require.NoError(t, err)
	st := store.New(backend, store.Options{}, log)
	require.NoError(t, st.Load(ctx))

	cfg := &config.Config{RateLimit: 100, RateLimitWindow: time.Minute, CORSOrigins: []string{"http://localhost:5173"}}
	sessions, err := auth.NewSessions(config.AuthConfig{JWTSecret: "test", AdminPassword: "admin888", SessionTTL: time.Hour})
	require.NoError(t, err)

	gen := &stubGenerator{}
	segments := service.NewSegmentService(st, log)
	reports := service.NewReportService(segments, report.NewService(gen, log))

	sess, err := sessions.Unlock("admin888")
	require.NoError(t, err)

	return &testEnv{
		router: SetupRouter(Deps{Config: cfg, Log: log, Segments: segments, Reports: reports, Sessions: sessions}),
		store:  st,
		gen:    gen,
		token:  sess.Token,
	}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *testEnv) do(t *testing.T, method, path, body string, admin bool) (int, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if admin {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"mode":"local"`)
}

func TestGetMatrix(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodGet, "/api/v1/matrix", "", false)
	require.Equal(t, http.StatusOK, code)

	var view service.MatrixView
	require.NoError(t, json.Unmarshal(body.Data, &view))
	assert.Equal(t, models.ModeLocal, view.Mode)
	require.Len(t, view.Matrix.Rows, 2)
	assert.Equal(t, "Segment 9", view.Matrix.Rows[0].Name)
	assert.Len(t, view.Matrix.Rows[0].Cells, 5)
	assert.Equal(t, 3, view.Stats.Total)

	code, body = env.do(t, http.MethodGet, "/api/v1/matrix?q=10", "", false)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body.Data, &view))
	require.Len(t, view.Matrix.Rows, 1)
	assert.Equal(t, "Segment 10", view.Matrix.Rows[0].Name)
}

func TestCreateRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)

	code, _ := env.do(t, http.MethodPost, "/api/v1/segments", `{"name":"Segment 11","part":"Blinding"}`, false)
	assert.Equal(t, http.StatusUnauthorized, code)

	snap, _ := env.store.Latest()
	assert.Len(t, snap.Records, 3)
}

func TestCreateSegment(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodPost, "/api/v1/segments",
		`{"name":"Segment 11","part":"Base Slab","status":"REBAR","progress":30,"remarks":"rebar fixing"}`, true)
	require.Equal(t, http.StatusCreated, code)

	var rec models.SegmentRecord
	require.NoError(t, json.Unmarshal(body.Data, &rec))
	assert.Equal(t, models.PartBaseSlab, rec.Part)
	assert.Equal(t, models.StatusRebar, rec.Status)
	assert.NotEmpty(t, rec.ID)

	code, _ = env.do(t, http.MethodPost, "/api/v1/segments", `{"name":"Segment 11","part":"base slab"}`, true)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = env.do(t, http.MethodPost, "/api/v1/segments", `{"name":"Segment 11","part":"Roof"}`, true)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.do(t, http.MethodPost, "/api/v1/segments", `{"part":"Blinding"}`, true)
	assert.Equal(t, http.StatusBadRequest, code)

	snap, _ := env.store.Latest()
	assert.Len(t, snap.Records, 4)
}

func TestUpdateSegment(t *testing.T) {
	env := newTestEnv(t)
	id := models.NewRecordID("Segment 9", models.PartBlinding)

	code, body := env.do(t, http.MethodPut, "/api/v1/segments/"+id, `{"status":"COMPLETED","progress":100}`, true)
	require.Equal(t, http.StatusOK, code)
	var rec models.SegmentRecord
	require.NoError(t, json.Unmarshal(body.Data, &rec))
	assert.True(t, rec.Done())

	code, _ = env.do(t, http.MethodPut, "/api/v1/segments/unknown", `{"progress":10}`, true)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = env.do(t, http.MethodPut, "/api/v1/segments/"+id, `{"status":"PAINTING"}`, true)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestDeleteGroup(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodDelete, "/api/v1/groups/Segment%209", "", true)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"name":"Segment 9","deleted":2}`, string(body.Data))

	snap, _ := env.store.Latest()
	require.Len(t, snap.Records, 1)
	assert.Equal(t, "Segment 10", snap.Records[0].Name)
}

func TestReportEndpoints(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodGet, "/api/v1/report", "", false)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"enabled":true,"report":null}`, string(body.Data))

	code, _ = env.do(t, http.MethodPost, "/api/v1/report", "", false)
	require.Equal(t, http.StatusOK, code)
	code, _ = env.do(t, http.MethodPost, "/api/v1/report", `{"refresh":false}`, false)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, env.gen.calls)

	code, body = env.do(t, http.MethodPost, "/api/v1/report", `{"refresh":true}`, false)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2, env.gen.calls)
	assert.Contains(t, string(body.Data), "## Daily report")

	id := models.NewRecordID("Segment 10", models.PartBlinding)
	code, body = env.do(t, http.MethodPost, "/api/v1/segments/"+id+"/risk", "", false)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body.Data), "Check formwork before pouring Segment 10")

	code, _ = env.do(t, http.MethodPost, "/api/v1/segments/missing/risk", "", false)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestUnlock(t *testing.T) {
	env := newTestEnv(t)

	code, _ := env.do(t, http.MethodPost, "/api/v1/admin/unlock", `{"password":"nope"}`, false)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body := env.do(t, http.MethodPost, "/api/v1/admin/unlock", `{"password":"admin888"}`, false)
	require.Equal(t, http.StatusOK, code)
	var sess auth.Session
	require.NoError(t, json.Unmarshal(body.Data, &sess))
	assert.NotEmpty(t, sess.Token)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/segments", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}
