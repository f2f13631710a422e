package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/sitetrack-backend-go/internal/logger"
	"github.com/jengzang/sitetrack-backend-go/internal/models"
	"github.com/jengzang/sitetrack-backend-go/internal/service"
	"github.com/jengzang/sitetrack-backend-go/internal/store"
	"github.com/jengzang/sitetrack-backend-go/pkg/response"
)

const heartbeatInterval = 15 * time.Second

// SegmentHandler handles HTTP requests for segment records
type SegmentHandler struct {
	service *service.SegmentService
	log     *logger.Logger
}

// NewSegmentHandler creates a new segment handler
func NewSegmentHandler(service *service.SegmentService, log *logger.Logger) *SegmentHandler {
	return &SegmentHandler{service: service, log: log.With("handler", "SegmentHandler")}
}

// GetSegments handles GET /api/v1/segments
func (h *SegmentHandler) GetSegments(c *gin.Context) {
	snap, err := h.service.Snapshot(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"mode":    snap.Mode,
		"version": snap.Version,
		"records": snap.Records,
		"total":   len(snap.Records),
	})
}

// GetMatrix handles GET /api/v1/matrix?q=
func (h *SegmentHandler) GetMatrix(c *gin.Context) {
	var filter models.MatrixFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	view, err := h.service.Matrix(c.Request.Context(), filter.Query)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, view)
}

// GetStats handles GET /api/v1/stats
func (h *SegmentHandler) GetStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, stats)
}

// CreateSegment handles POST /api/v1/segments
func (h *SegmentHandler) CreateSegment(c *gin.Context) {
	var req models.CreateSegmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	rec, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, rec)
}

// UpdateSegment handles PUT /api/v1/segments/:id
func (h *SegmentHandler) UpdateSegment(c *gin.Context) {
	var req models.UpdateSegmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	rec, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, rec)
}

// DeleteGroup handles DELETE /api/v1/groups/:name
func (h *SegmentHandler) DeleteGroup(c *gin.Context) {
	name := c.Param("name")
	n, err := h.service.DeleteGroup(c.Request.Context(), name)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"name": name, "deleted": n})
}

// Stream handles GET /api/v1/stream?q=, pushing a "matrix" event for every
// snapshot. A slow client only ever gets the newest snapshot.
func (h *SegmentHandler) Stream(c *gin.Context) {
	var filter models.MatrixFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		response.InternalError(c, "Streaming unsupported")
		return
	}

	mailbox := make(chan store.Snapshot, 1)
	cancel := h.service.Subscribe(func(snap store.Snapshot) {
		// single producer: drop the stale snapshot, keep the newest
		select {
		case <-mailbox:
		default:
		}
		mailbox <- snap
	})
	defer cancel()

	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			h.log.Debug("stream closed", "error", ctx.Err())
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case snap := <-mailbox:
			payload, err := json.Marshal(service.View(snap, filter.Query))
			if err != nil {
				h.log.Warn("failed to marshal stream event", "error", err)
				continue
			}
			fmt.Fprintf(w, "id: %d\nevent: matrix\ndata: %s\n\n", snap.Version, payload)
			flusher.Flush()
		}
	}
}
