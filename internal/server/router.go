package server

import (
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/focused-api/internal/handler"
	"github.com/noah-isme/focused-api/internal/middleware"
	"github.com/noah-isme/focused-api/internal/service"
	"github.com/noah-isme/focused-api/pkg/config"
	appErrors "github.com/noah-isme/focused-api/pkg/errors"
	"github.com/noah-isme/focused-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/focused-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/focused-api/pkg/middleware/requestid"
	"github.com/noah-isme/focused-api/pkg/response"
)

// Handlers groups the HTTP handlers mounted by NewRouter.
type Handlers struct {
	Observations *handler.ObservationHandler
	References   *handler.ReferenceHandler
	Exports      *handler.ExportHandler
	Metrics      *handler.MetricsHandler
}

// NewRouter builds the gin engine: probes and metrics at the root, the JSON
// API under cfg.APIPrefix and the SPA when its directory exists.
func NewRouter(cfg *config.Config, h Handlers, metrics *service.MetricsService, emailLimiter *middleware.RateLimiter, logr *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metrics))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	if cfg.TrustForwardedHeaders {
		api.Use(handler.TrustForwardedHeaders())
	}
	{
		api.GET("/observations", h.Observations.List)
		api.GET("/observations/export", h.Observations.Export)
		api.POST("/new", h.Observations.Create)
		api.GET("/observations/:id", h.Observations.Get)
		api.PUT("/observations/:id", h.Observations.Update)
		api.DELETE("/observations/:id", h.Observations.Delete)

		email := []gin.HandlerFunc{h.Observations.SendEmail}
		if emailLimiter != nil {
			email = append([]gin.HandlerFunc{emailLimiter.Handler()}, email...)
		}
		api.POST("/observations/:id/email", email...)

		api.GET("/pdf/:id", h.Exports.PDF)

		api.GET("/teachers", h.References.Teachers)
		api.GET("/departments", h.References.Departments)
		api.GET("/focus_areas", h.References.FocusAreas)
	}

	mountFrontend(r, cfg.FrontendDir, logr)
	r.NoRoute(func(c *gin.Context) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "route not found"))
	})
	return r
}

// mountFrontend serves the SPA assets and its entry pages. A missing
// directory only logs.
func mountFrontend(r *gin.Engine, dir string, logr *zap.Logger) {
	if dir == "" {
		return
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		logr.Info("frontend directory not found, skipping static assets", zap.String("dir", dir))
		return
	}
	r.Static("/frontend", dir)

	index := filepath.Join(dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		return
	}
	serveIndex := func(c *gin.Context) {
		c.Header("Cache-Control", "no-cache")
		c.File(index)
	}
	r.GET("/", serveIndex)
	r.GET("/new_observation", serveIndex)
}
