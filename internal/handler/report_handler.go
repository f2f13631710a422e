package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/sitetrack-backend-go/internal/models"
	"github.com/jengzang/sitetrack-backend-go/internal/service"
	"github.com/jengzang/sitetrack-backend-go/pkg/response"
)

// ReportHandler handles HTTP requests for generated site reports
type ReportHandler struct {
	service *service.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(service *service.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// GetReport handles GET /api/v1/report
func (h *ReportHandler) GetReport(c *gin.Context) {
	r, ok := h.service.Cached()
	if !ok {
		response.Success(c, gin.H{"enabled": h.service.Enabled(), "report": nil})
		return
	}
	response.Success(c, gin.H{"enabled": h.service.Enabled(), "report": r})
}

// GenerateReport handles POST /api/v1/report
func (h *ReportHandler) GenerateReport(c *gin.Context) {
	var req models.ReportRequest
	// an empty body means no refresh
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, "Invalid request body")
		return
	}

	r, err := h.service.Generate(c.Request.Context(), req.Refresh)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"enabled": h.service.Enabled(), "report": r})
}

// AnalyzeRisk handles POST /api/v1/segments/:id/risk
func (h *ReportHandler) AnalyzeRisk(c *gin.Context) {
	text, err := h.service.Risk(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"id": c.Param("id"), "risk": text})
}
