package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/focused-api/internal/handler"
	"github.com/noah-isme/focused-api/internal/middleware"
	"github.com/noah-isme/focused-api/internal/repository"
	"github.com/noah-isme/focused-api/internal/service"
	"github.com/noah-isme/focused-api/pkg/config"
	"github.com/noah-isme/focused-api/pkg/jobs"
	"github.com/noah-isme/focused-api/pkg/mailer"
	"github.com/noah-isme/focused-api/pkg/renderer"
)

const (
	shutdownTimeout        = 10 * time.Second
	limiterCleanupInterval = time.Minute
)

// Server owns the HTTP listener and the background notification queue.
type Server struct {
	cfg     *config.Config
	router  *gin.Engine
	queue   *jobs.Queue
	limiter *middleware.RateLimiter
	seeder  *service.SeedService
	logger  *zap.Logger
	http    *http.Server
}

// New wires repositories, services and handlers over db. redisClient may be
// nil, which disables the reference cache regardless of configuration.
func New(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient)
	}
	cache := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logger, cfg.Cache.Enabled)

	observations := repository.NewObservationRepository(db)
	references := repository.NewReferenceRepository(db)

	notifier := service.NewNotificationService(
		mailer.NewClient(cfg.Mailer, logger.Named("mailer")),
		metrics,
		cfg.APIPrefix,
		logger.Named("notifications"),
	)
	queue := jobs.NewQueue("notifications", notifier.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		Logger:     logger,
	})
	notifier.AttachQueue(queue)

	exportCfg := service.ExportConfig{}
	if cfg.Renderer.BaseURL != "" {
		exportCfg.Remote = renderer.NewClient(cfg.Renderer)
	}
	exports := service.NewExportService(observations, exportCfg, metrics, logger.Named("export"))
	logger.Info("pdf rendering configured", zap.String("strategy", exports.Strategy()))

	validate := validator.New()
	observationSvc := service.NewObservationService(observations, notifier, validate, logger)
	referenceSvc := service.NewReferenceService(references, cache, logger)
	limiter := middleware.NewRateLimiter(cfg.RateLimit.EmailRPS, cfg.RateLimit.EmailBurst, logger)

	router := NewRouter(cfg, Handlers{
		Observations: handler.NewObservationHandler(observationSvc, exports, logger),
		References:   handler.NewReferenceHandler(referenceSvc),
		Exports:      handler.NewExportHandler(exports),
		Metrics:      handler.NewMetricsHandler(metrics, db),
	}, metrics, limiter, logger)

	return &Server{
		cfg:     cfg,
		router:  router,
		queue:   queue,
		limiter: limiter,
		seeder:  service.NewSeedService(references, cache, logger),
		logger:  logger,
	}
}

// Router exposes the configured engine.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Seed fills empty reference tables.
func (s *Server) Seed(ctx context.Context) ([]service.SeedResult, error) {
	return s.seeder.Seed(ctx)
}

// Run starts the queue and the HTTP listener and blocks until ctx is
// cancelled or the listener fails, then shuts down.
func (s *Server) Run(ctx context.Context) error {
	// workers outlive ctx so requests drained by Shutdown can still enqueue
	s.queue.Start(context.WithoutCancel(ctx))
	go s.cleanupLimiter(ctx)

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.http.Addr), zap.String("env", s.cfg.Env))
		serverErrors <- s.http.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			s.queue.Stop()
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		s.logger.Info("shutdown requested")
	}

	return s.Shutdown(context.Background())
}

// Shutdown drains in-flight requests, then stops the notification queue.
// Jobs still buffered at that point are dropped.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	var shutdownErr error
	if s.http != nil {
		if err := s.http.Shutdown(ctx); err != nil {
			s.logger.Error("http server shutdown error", zap.Error(err))
			shutdownErr = err
		}
	}
	s.queue.Stop()
	s.logger.Info("server stopped")
	return shutdownErr
}

func (s *Server) cleanupLimiter(ctx context.Context) {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.limiter.Cleanup()
		}
	}
}
