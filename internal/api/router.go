package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/jengzang/sitetrack-backend-go/internal/auth"
	"github.com/jengzang/sitetrack-backend-go/internal/config"
	"github.com/jengzang/sitetrack-backend-go/internal/handler"
	"github.com/jengzang/sitetrack-backend-go/internal/logger"
	"github.com/jengzang/sitetrack-backend-go/internal/middleware"
	"github.com/jengzang/sitetrack-backend-go/internal/service"
)

// Deps are the services the HTTP API is built on
type Deps struct {
	Config   *config.Config
	Log      *logger.Logger
	Segments *service.SegmentService
	Reports  *service.ReportService
	Sessions *auth.Sessions
}

// SetupRouter 设置路由
func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(d.Log))
	r.Use(corsMiddleware(d.Config.CORSOrigins))

	segments := handler.NewSegmentHandler(d.Segments, d.Log)
	reports := handler.NewReportHandler(d.Reports)
	admin := handler.NewAdminHandler(d.Sessions, d.Log)
	health := handler.NewHealthHandler(d.Segments, d.Reports)

	requireAdmin := middleware.RequireAdmin(d.Sessions, d.Log)
	limiter := middleware.RateLimit(middleware.NewRateLimiter(d.Config.RateLimit, d.Config.RateLimitWindow))

	// 健康检查
	r.GET("/health", health.Health)

	// API 路由组
	api := r.Group("/api/v1")
	{
		// 看板数据
		api.GET("/segments", segments.GetSegments)
		api.GET("/matrix", segments.GetMatrix)
		api.GET("/stats", segments.GetStats)
		api.GET("/stream", segments.Stream)

		// 管理员解锁
		api.POST("/admin/unlock", limiter, admin.Unlock)

		// 编辑接口 (需要管理员会话)
		api.POST("/segments", requireAdmin, segments.CreateSegment)
		api.PUT("/segments/:id", requireAdmin, segments.UpdateSegment)
		api.DELETE("/groups/:name", requireAdmin, segments.DeleteGroup)

		// AI 报告
		api.GET("/report", reports.GetReport)
		api.POST("/report", limiter, reports.GenerateReport)
		api.POST("/segments/:id/risk", limiter, reports.AnalyzeRisk)
	}

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Requested-With"},
		MaxAge:       12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cors.New(cfg)
		}
	}
	cfg.AllowOrigins = origins
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	}
	return cors.New(cfg)
}
