package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/go-disaster-feed/internal/api"
	"github.com/mr1hm/go-disaster-feed/internal/assethost"
	"github.com/mr1hm/go-disaster-feed/internal/config"
	"github.com/mr1hm/go-disaster-feed/internal/feed"
	internalgrpc "github.com/mr1hm/go-disaster-feed/internal/grpc"
	"github.com/mr1hm/go-disaster-feed/internal/logging"
	"github.com/mr1hm/go-disaster-feed/internal/observability"
	"github.com/mr1hm/go-disaster-feed/internal/reports"
	"github.com/mr1hm/go-disaster-feed/internal/repository"
	"github.com/mr1hm/go-disaster-feed/internal/signup"
	"github.com/mr1hm/go-disaster-feed/internal/volunteer"
	"github.com/mr1hm/go-disaster-feed/internal/web"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)
	logger := slog.Default()

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port, "reports_url", cfg.Upstream.ReportsURL)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	// Volunteer sign-ups fan out to SSE subscribers
	broadcaster := internalgrpc.NewBroadcaster(32)
	volunteers := volunteer.NewService(db, broadcaster, metrics, clock, logger)

	if !cfg.AssetHost.Enabled() {
		slog.Warn("asset host not configured, image uploads will fail")
	}
	assets := assethost.NewClient(cfg.AssetHost.BaseURL, cfg.AssetHost.CloudName, cfg.AssetHost.UploadPreset, cfg.Upstream.Timeout, metrics, logger)
	uploader := signup.NewQueuedUploader(assets, cfg.Worker.Count, cfg.Worker.BufferSize)
	uploader.Start(ctx)

	registrar := signup.NewClient(cfg.Upstream.SignUpURL, cfg.Upstream.Timeout)
	loader := feed.NewLoader(reports.NewClient(cfg.Upstream.ReportsURL, cfg.Upstream.Timeout), metrics, logger)

	// Start gRPC health server
	grpcServer := internalgrpc.NewServer(db, 15*time.Second)
	go func() {
		grpcAddr := fmt.Sprintf(":%d", cfg.GRPC.Port)
		if err := grpcServer.Start(grpcAddr); err != nil {
			logging.Fatalf("gRPC server error: %v", err)
		}
	}()

	limiter := api.NewRateLimiter(cfg.Server.RateLimitRPS, 10*time.Minute)
	go limiter.Run(ctx, time.Minute)

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logging.Middleware(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))
	router.Use(limiter.Middleware())

	api.NewHandler(api.Options{
		Reports:       loader,
		Volunteers:    volunteers,
		Broadcaster:   broadcaster,
		Uploader:      uploader,
		Registrar:     registrar,
		Metrics:       metrics,
		Logger:        logger,
		MaxUploadSize: cfg.Server.MaxUploadSize,
		RedirectPath:  cfg.SignUp.RedirectPath,
		RedirectDelay: cfg.SignUp.RedirectDelay,
	}).RegisterRoutes(router)

	web.NewHandler(web.Options{
		Reports:       loader,
		Volunteers:    volunteers,
		Uploader:      uploader,
		Registrar:     registrar,
		Metrics:       metrics,
		Logger:        logger,
		Clock:         clock,
		MaxUploadSize: cfg.Server.MaxUploadSize,
		RedirectPath:  cfg.SignUp.RedirectPath,
		RedirectDelay: cfg.SignUp.RedirectDelay,
	}).RegisterRoutes(router)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	broadcaster.Close() // ends open SSE streams
	grpcServer.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// In-flight sign-ups still need the upload workers until Shutdown returns.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	uploader.Stop()
	cancel()

	slog.Info("shutdown complete")
}
