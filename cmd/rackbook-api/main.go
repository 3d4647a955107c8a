package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/rackbook-api/api/swagger"
	"github.com/noah-isme/rackbook-api/internal/handler"
	internalmiddleware "github.com/noah-isme/rackbook-api/internal/middleware"
	"github.com/noah-isme/rackbook-api/internal/repository"
	"github.com/noah-isme/rackbook-api/internal/service"
	"github.com/noah-isme/rackbook-api/pkg/cache"
	"github.com/noah-isme/rackbook-api/pkg/config"
	"github.com/noah-isme/rackbook-api/pkg/database"
	"github.com/noah-isme/rackbook-api/pkg/jobs"
	"github.com/noah-isme/rackbook-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/rackbook-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/rackbook-api/pkg/middleware/requestid"
	"github.com/noah-isme/rackbook-api/pkg/token"
)

// @title Rackbook API
// @version 1.0.0
// @description Booking, availability and allocation of shared training resources
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable; matrix cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close() //nolint:errcheck
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.MatrixTTL, logr, cacheRepo != nil)

	pools := repository.NewPoolRepository(db)
	policies := repository.NewPolicyRepository(db)
	bookings := repository.NewBookingRepository(db)
	allocations := repository.NewAllocationRepository(db)
	changes := repository.NewChangeRequestRepository(db)
	locks := repository.NewLockRepository(db)
	notifications := repository.NewNotificationRepository(db)
	tx := database.NewTransactor(db)
	validate := validator.New()

	notifier := service.NewNotificationService(notifications, logr)
	notifyQueue := jobs.NewQueue("notifications", notifier.Handle, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		MaxRetries: cfg.Notifications.Retries,
		Logger:     logr,
	})
	notifyQueue.Start(ctx)
	defer notifyQueue.Stop()
	notifier.AttachQueue(notifyQueue)

	hub := service.NewKioskHub(cfg.Kiosk.BufferSize, metrics, logr)
	kiosk := service.NewKioskService(pools, policies, bookings, hub, logr)
	gate := service.NewFreezeGate(locks, cfg.Freeze.ShortFreezeWindow)
	resolver := service.NewPolicyResolver(policies)

	bookingSvc := service.NewBookingService(bookings, pools, allocations, tx, gate, kiosk, validate, logr)
	availabilitySvc := service.NewAvailabilityService(bookings, pools, allocations, resolver, metrics, cfg.Availability.Workers, logr)
	approvalSvc := service.NewApprovalService(bookings, pools, allocations, tx, kiosk, metrics, validate, logr)
	changeSvc := service.NewChangeRequestService(service.ChangeRequestDeps{
		Changes:        changes,
		Bookings:       bookings,
		Pools:          pools,
		Allocations:    allocations,
		Tx:             tx,
		Gate:           gate,
		Notifier:       notifier,
		Kiosk:          kiosk,
		Metrics:        metrics,
		Validator:      validate,
		AdminRecipient: cfg.Notifications.AdminRecipient,
		Logger:         logr,
	})
	lockSvc := service.NewLockService(locks, metrics, logr)
	worklistSvc := service.NewWorklistService(bookings, allocations, kiosk, logr)
	matrixSvc := service.NewMatrixService(policies, pools, cacheSvc, cfg.Cache.MatrixTTL, logr)
	tokenSvc := service.NewTokenService(service.TokenConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		Expiry: cfg.JWT.Expiration,
	})
	kioskSigner := token.NewKioskSigner(cfg.Kiosk.TokenSecret, cfg.Kiosk.TokenTTL)

	if cfg.LockJob.Enabled {
		lockSvc.StartTicker(ctx, cfg.LockJob.Interval)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics, "/metrics", "/health", "/ready", "/api/v1/kiosk/stream/:token"))

	metricsHandler := handler.NewMetricsHandler(metrics, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	routes := handler.Routes{
		Bookings: handler.NewBookingHandler(bookingSvc, availabilitySvc, approvalSvc),
		Changes:  handler.NewChangeRequestHandler(changeSvc),
		Locks:    handler.NewLockHandler(lockSvc),
		Worklist: handler.NewWorklistHandler(worklistSvc),
		Matrix:   handler.NewMatrixHandler(matrixSvc),
		Kiosk: handler.NewKioskHandler(kiosk, hub, kioskSigner, handler.KioskStreamConfig{
			MaxLifetime: cfg.Kiosk.MaxConnLifetime,
			Heartbeat:   cfg.Kiosk.Heartbeat,
		}, logr),
		Inbox: handler.NewNotificationHandler(notifier),
	}
	routes.Register(r.Group(cfg.APIPrefix), internalmiddleware.JWT(tokenSvc))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}
