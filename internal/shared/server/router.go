package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"triage-backend/internal/documents"
	"triage-backend/internal/search"
	"triage-backend/internal/services/health"
	"triage-backend/internal/shared/config"
	"triage-backend/internal/shared/metrics"
	"triage-backend/internal/shared/server/middleware"
	"triage-backend/internal/shared/server/respond"
	"triage-backend/internal/triage"
)

// RouterDeps holds handlers required to build the router.
type RouterDeps struct {
	Config           config.Config
	DocumentsHandler *documents.Handler
	TriageHandler    *triage.Handler
	SearchHandler    *search.Handler
	Health           *health.Service
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		metrics.Middleware(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		status := deps.Health.Status(c.Request.Context())
		code := http.StatusOK
		if !status.OK {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, status)
	})
	api.GET("/metrics", metrics.Handler())

	protected := api.Group("")
	protected.Use(middleware.AdminToken(deps.Config.AdminUploadToken))

	if deps.DocumentsHandler != nil {
		deps.DocumentsHandler.RegisterRoutes(api, protected)
	}
	if deps.TriageHandler != nil {
		deps.TriageHandler.RegisterRoutes(api, protected)
	}
	if deps.SearchHandler != nil {
		deps.SearchHandler.RegisterRoutes(api)
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
