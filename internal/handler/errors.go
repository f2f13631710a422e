package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/sitetrack-backend-go/internal/auth"
	"github.com/jengzang/sitetrack-backend-go/internal/store"
	"github.com/jengzang/sitetrack-backend-go/pkg/response"
)

// writeError maps domain errors onto HTTP responses
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, store.ErrDuplicate):
		response.Conflict(c, "This part already exists for the segment")
	case errors.Is(err, store.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, store.ErrInvalidRecord):
		response.BadRequest(c, err.Error())
	case errors.Is(err, store.ErrBackend):
		response.ServiceUnavailable(c, "Storage unavailable, changes were not saved")
	case errors.Is(err, auth.ErrBadPassword), errors.Is(err, auth.ErrInvalidToken):
		response.Unauthorized(c, err.Error())
	default:
		response.InternalError(c, "Internal server error")
	}
}
