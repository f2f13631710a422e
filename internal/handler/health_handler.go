package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/sitetrack-backend-go/internal/service"
)

// HealthHandler reports liveness and the storage mode
type HealthHandler struct {
	segments *service.SegmentService
	reports  *service.ReportService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(segments *service.SegmentService, reports *service.ReportService) *HealthHandler {
	return &HealthHandler{segments: segments, reports: reports}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "SiteTrack API is running",
		"mode":    h.segments.Mode(),
		"report":  h.reports.Enabled(),
	})
}
