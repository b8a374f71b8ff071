package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"booking-gateway/core/cache"
	"booking-gateway/core/config"
	"booking-gateway/core/database"
	"booking-gateway/core/logger"
	"booking-gateway/core/middleware"
	"booking-gateway/core/queue"
	"booking-gateway/core/storage"
	"booking-gateway/modules/auth"
	"booking-gateway/modules/gateway"
	"booking-gateway/modules/notification"
	notifworker "booking-gateway/modules/notification/worker"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// Run boots the whole service: config, logger, Postgres, Redis, the asynq
// worker, and the HTTP surface. Configuration problems abort startup; the
// widget must never come up half-configured.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger.Init(cfg.Server.Env)
	defer logger.Sync()

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		return err
	}

	cacheClient, err := cache.NewCache(cfg.Redis)
	if err != nil {
		return err
	}
	defer cacheClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cacheClient.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	var uploader *storage.Uploader
	if cfg.AWS.Bucket != "" {
		uploader, err = storage.NewUploader(ctx, cfg.AWS)
		if err != nil {
			logger.Warn("Server:Run:S3Disabled", "error", err)
		}
	}

	enqueuer := queue.NewClient(cfg.Redis)
	defer enqueuer.Close()

	e := echo.New()
	e.HideBanner = true
	mw := middleware.NewMiddleware()
	e.Use(echomw.Recover())
	e.Use(mw.CORSMiddleware())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	notifSvc := notification.Init(e, db, uploader)
	oauthSvc := auth.Init(e, db, cacheClient)
	gateway.Init(e, cfg, cacheClient, oauthSvc, enqueuer)

	if err := oauthSvc.SeedFromConfig(ctx); err != nil {
		logger.Warn("Server:Run:SeedFromConfig:Error", "error", err)
	}

	worker := queue.NewServer(cfg.Redis)
	mux := asynq.NewServeMux()
	notifworker.NewHandler(notifSvc).Register(mux)
	if err := worker.Start(mux); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		logger.Info("Server:Run:Listening", "addr", addr, "env", cfg.Server.Env)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("Server:Run:HTTP:Error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Server:Run:ShuttingDown")

	worker.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
