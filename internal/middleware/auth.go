package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/sitetrack-backend-go/internal/auth"
	"github.com/jengzang/sitetrack-backend-go/internal/logger"
	"github.com/jengzang/sitetrack-backend-go/pkg/response"
)

const claimsKey = "admin_claims"

// RequireAdmin rejects requests without a valid admin session token. The
// token is read from the Authorization bearer header, or from the "token"
// query parameter for clients that cannot set headers.
func RequireAdmin(sessions *auth.Sessions, log *logger.Logger) gin.HandlerFunc {
	log = log.With("middleware", "RequireAdmin")
	return func(c *gin.Context) {
		claims, err := sessions.Verify(extractToken(c))
		if err != nil {
			log.Debug("admin session rejected", "path", c.Request.URL.Path, "error", err)
			response.Unauthorized(c, "admin session required")
			c.Abort()
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return c.Query("token")
}
