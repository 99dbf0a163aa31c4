package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "github.com/noah-isme/focused-api/api/swagger"
	"github.com/noah-isme/focused-api/internal/server"
	"github.com/noah-isme/focused-api/pkg/cache"
	"github.com/noah-isme/focused-api/pkg/config"
	"github.com/noah-isme/focused-api/pkg/database"
	"github.com/noah-isme/focused-api/pkg/logger"
)

// @title FocusEd API
// @version 1.0.0
// @description Lesson observations, reference lists, mail notifications and PDF export
// @BasePath /api
// @schemes http

var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "focused-api",
		Short:         "FocusEd lesson observation service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withDatabase(func(_ *config.Config, db *sqlx.DB, logr *zap.Logger) error {
				return database.Migrate(db, logr)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Fill empty reference tables with default data and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDatabase(func(cfg *config.Config, db *sqlx.DB, logr *zap.Logger) error {
				redisClient := connectRedis(cmd.Context(), cfg, logr)
				if redisClient != nil {
					defer redisClient.Close() //nolint:errcheck
				}
				_, err := server.New(cfg, db, redisClient, logr).Seed(cmd.Context())
				return err
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("focused-api %s\n", version)
		},
	})

	return cmd
}

func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logr, nil
}

func withDatabase(fn func(cfg *config.Config, db *sqlx.DB, logr *zap.Logger) error) error {
	cfg, logr, err := bootstrap()
	if err != nil {
		return err
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close() //nolint:errcheck

	return fn(cfg, db, logr)
}

func serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return withDatabase(func(cfg *config.Config, db *sqlx.DB, logr *zap.Logger) error {
		if cfg.Env == config.EnvProduction {
			gin.SetMode(gin.ReleaseMode)
		}

		if cfg.Startup.Migrate {
			if err := database.Migrate(db, logr); err != nil {
				return err
			}
		}

		redisClient := connectRedis(ctx, cfg, logr)
		if redisClient != nil {
			defer redisClient.Close() //nolint:errcheck
		}

		srv := server.New(cfg, db, redisClient, logr)
		if cfg.Startup.Seed {
			if _, err := srv.Seed(ctx); err != nil {
				return fmt.Errorf("seed reference data: %w", err)
			}
		}
		return srv.Run(ctx)
	})
}

// connectRedis returns nil when caching is disabled or Redis cannot be
// reached; the service then runs uncached.
func connectRedis(ctx context.Context, cfg *config.Config, logr *zap.Logger) *redis.Client {
	if !cfg.Cache.Enabled {
		return nil
	}
	client, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, reference cache disabled", zap.Error(err))
		return nil
	}
	return client
}
