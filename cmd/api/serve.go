package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SergeiKhy/campaign-dashboard/internal/config"
	"github.com/SergeiKhy/campaign-dashboard/internal/engine"
	"github.com/SergeiKhy/campaign-dashboard/internal/handler"
	"github.com/SergeiKhy/campaign-dashboard/internal/metrics"
	"github.com/SergeiKhy/campaign-dashboard/internal/middleware"
	"github.com/SergeiKhy/campaign-dashboard/internal/repository"
	"github.com/SergeiKhy/campaign-dashboard/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.App.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func engineOptions(cfg *config.Config) ([]engine.Option, error) {
	loc, err := cfg.App.Location()
	if err != nil {
		return nil, err
	}
	opts := []engine.Option{
		engine.WithLocation(loc),
		engine.WithSessionTTL(cfg.Session.TTL),
		engine.WithBcryptCost(cfg.Auth.BcryptCost),
	}
	if cfg.Auth.AdminEmail != "" {
		seed := engine.DefaultAdmin
		seed.Email = cfg.Auth.AdminEmail
		if cfg.Auth.AdminPassword != "" {
			seed.Password = cfg.Auth.AdminPassword
		}
		if cfg.Auth.AdminName != "" {
			seed.Name = cfg.Auth.AdminName
		}
		opts = append(opts, engine.WithAdminSeed(seed))
	}
	return opts, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	// Загрузка конфига
	cfg, err := config.LoadFile(envFile)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logger.Sync()

	if !cfg.App.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	opts, err := engineOptions(cfg)
	if err != nil {
		return err
	}
	eng, err := engine.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to init engine: %w", err)
	}
	logger.Info("Engine ready", zap.String("timezone", eng.Location().String()))

	m := metrics.New()
	ctx := context.Background()
	svcOpts := service.Options{
		CacheTTL: cfg.Redis.CacheTTL,
		Metrics:  m,
		Logger:   logger,
	}

	// Подключение к БД (postgres)
	var writer service.SnapshotWriter
	if cfg.DB.Enabled {
		if err := repository.Migrate(cfg.DB.DSN()); err != nil {
			return err
		}
		db, err := repository.NewPostgresDB(ctx, cfg.DB)
		if err != nil {
			return err
		}
		defer db.Close()
		logger.Info("Connected to PostgreSQL")

		stateRepo := repository.NewStateRepository(db)
		writer = service.NewSnapshotWriter(stateRepo, service.WriterConfig{
			Workers: cfg.Snapshot.Workers,
			Buffer:  cfg.Snapshot.Buffer,
		}, m, logger)
		writer.Start()

		svcOpts.StateRepo = stateRepo
		svcOpts.Writer = writer
	} else {
		logger.Warn("PostgreSQL disabled, state is kept in memory only")
	}

	// Подключение к Redis
	if cfg.Redis.Enabled {
		redis, err := repository.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer redis.Close()
		logger.Info("Connected to Redis")
		svcOpts.Cache = repository.NewViewCache(redis)
	}

	svc := service.NewDashboardService(eng, svcOpts)
	if err := svc.LoadState(ctx); err != nil {
		return err
	}

	sweeper, err := service.NewSessionSweeper(svc, cfg.Session.SweepSpec, logger)
	if err != nil {
		return err
	}
	sweeper.Start()

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.RateLimit.BurstSize,
		CleanupInterval:   time.Minute,
	})
	defer rateLimiter.Stop()

	router := handler.NewRouter(svc, rateLimiter, m, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		logger.Error("Server failed", zap.Error(err))
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	sweeper.Stop(shutdownCtx)

	if writer != nil {
		writer.Stop()
	}
	if err := svc.Flush(shutdownCtx); err != nil {
		logger.Error("Final snapshot failed", zap.Error(err))
	}

	logger.Info("Server exited")
	return nil
}
