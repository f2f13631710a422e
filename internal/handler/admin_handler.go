package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/sitetrack-backend-go/internal/auth"
	"github.com/jengzang/sitetrack-backend-go/internal/logger"
	"github.com/jengzang/sitetrack-backend-go/internal/models"
	"github.com/jengzang/sitetrack-backend-go/pkg/response"
)

// AdminHandler handles admin session requests
type AdminHandler struct {
	sessions *auth.Sessions
	log      *logger.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(sessions *auth.Sessions, log *logger.Logger) *AdminHandler {
	return &AdminHandler{sessions: sessions, log: log.With("handler", "AdminHandler")}
}

// Unlock handles POST /api/v1/admin/unlock
func (h *AdminHandler) Unlock(c *gin.Context) {
	var req models.UnlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	sess, err := h.sessions.Unlock(req.Password)
	if err != nil {
		h.log.Warn("admin unlock failed", "client_ip", c.ClientIP())
		writeError(c, err)
		return
	}
	h.log.Info("admin unlocked", "client_ip", c.ClientIP(), "expires_at", sess.ExpiresAt)
	response.Success(c, sess)
}
