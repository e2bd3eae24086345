package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"notesum-backend/internal/documents"
	"notesum-backend/internal/processing"
	"notesum-backend/internal/services/health"
	"notesum-backend/internal/shared/config"
	"notesum-backend/internal/shared/metrics"
	"notesum-backend/internal/shared/server/middleware"
	"notesum-backend/internal/shared/server/respond"
)

// RouterDeps are the handlers the router mounts. Nil handlers are skipped.
type RouterDeps struct {
	Config            config.Config
	DocumentsHandler  *documents.Handler
	ProcessingHandler *processing.Handler
	Health            *health.Service
	// Blobs serves signed local object store URLs.
	Blobs gin.HandlerFunc
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if !config.IsDevLike(deps.Config.Env) {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:    middleware.DefaultRateLimitRules(),
			GroupFor: middleware.ProcessingGroup,
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		report := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})
	if deps.Blobs != nil {
		api.GET("/blobs/*key", deps.Blobs)
	}
	registerMeRoutes(api)
	if deps.DocumentsHandler != nil {
		deps.DocumentsHandler.RegisterRoutes(api)
	}
	if deps.ProcessingHandler != nil {
		deps.ProcessingHandler.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
