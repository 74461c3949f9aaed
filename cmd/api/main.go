package main

import (
	"context"
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

	_ "github.com/henok-g/staff-report-api/api/swagger"
	"github.com/henok-g/staff-report-api/internal/handler"
	"github.com/henok-g/staff-report-api/internal/middleware"
	"github.com/henok-g/staff-report-api/internal/models"
	"github.com/henok-g/staff-report-api/internal/repository"
	"github.com/henok-g/staff-report-api/internal/service"
	"github.com/henok-g/staff-report-api/pkg/cache"
	"github.com/henok-g/staff-report-api/pkg/config"
	"github.com/henok-g/staff-report-api/pkg/database"
	"github.com/henok-g/staff-report-api/pkg/jobs"
	"github.com/henok-g/staff-report-api/pkg/logger"
	corsmiddleware "github.com/henok-g/staff-report-api/pkg/middleware/cors"
	reqidmiddleware "github.com/henok-g/staff-report-api/pkg/middleware/requestid"
	"github.com/henok-g/staff-report-api/pkg/storage"
)

// @title Staff Report API
// @version 1.0.0
// @description Monthly staff reporting backend: roster, report workflow, college rollups, exports
// @BasePath /api/v1
// @schemes http

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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Reports.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Reports.CacheTTL, logr, true)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	staffRepo := repository.NewStaffRepository(db)
	reportRepo := repository.NewReportRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)

	validate := validator.New()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "staff-report-api",
	})
	userSvc := service.NewUserService(userRepo, logr)
	departmentSvc := service.NewDepartmentService(departmentRepo, cfg.College.Name, logr)
	staffSvc := service.NewStaffService(staffRepo, departmentRepo, userRepo, cfg.College.Name, logr)

	var notificationSvc *service.NotificationService
	notificationQueue := jobs.NewQueue("notifications", func(ctx context.Context, job jobs.Job) error {
		return notificationSvc.HandleDelivery(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		Logger:     logr,
	})
	notificationSvc = service.NewNotificationService(notificationRepo, service.NewLogNotifier(logr), notificationQueue, logr)
	notificationQueue.Start(ctx)
	defer notificationQueue.Stop()

	reportSvc := service.NewReportService(reportRepo, staffRepo, departmentRepo, notificationSvc, userRepo, cacheSvc, cfg.College.Name, logr)

	exportStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	var exportWorker *service.ExportWorker
	exportQueue := jobs.NewQueue("exports", func(ctx context.Context, job jobs.Job) error {
		return exportWorker.Handle(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	})
	exportSvc := service.NewExportService(exportJobRepo, reportRepo, exportQueue, exportStorage, signer, service.ExportConfig{
		APIPrefix:       cfg.APIPrefix,
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
		MaxRetries:      cfg.Exports.WorkerRetries,
	}, logr)
	exportWorker = service.NewExportWorker(exportJobRepo, exportSvc, cfg.Exports.WorkerRetries, logr)
	exportQueue.Start(ctx)
	defer exportQueue.Stop()
	exportSvc.RecoverPendingJobs(ctx)
	exportSvc.StartCleanup(ctx)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	departmentHandler := handler.NewDepartmentHandler(departmentSvc)
	staffHandler := handler.NewStaffHandler(staffSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	users := protected.Group("/users")
	users.Use(middleware.RBAC(models.RoleAdmin))
	{
		users.GET("", userHandler.List)
		users.GET("/:id", userHandler.Get)
		users.POST("", userHandler.Create)
		users.PATCH("/:id", userHandler.Update)
		users.DELETE("/:id", userHandler.Delete)
	}

	departments := protected.Group("/departments")
	{
		departments.GET("", departmentHandler.List)
		departments.GET("/:id", departmentHandler.Get)
		departments.POST("", middleware.RBAC(models.RoleAdmin), departmentHandler.Create)
		departments.PATCH("/:id", middleware.RBAC(models.RoleAdmin), departmentHandler.Update)
	}

	staff := protected.Group("/staff")
	{
		staff.GET("", staffHandler.List)
		staff.GET("/:id", staffHandler.Get)
		staff.POST("", middleware.RBAC(models.RoleAdmin, models.RoleDepartmentHead), staffHandler.Create)
		staff.PATCH("/:id", middleware.RBAC(models.RoleAdmin, models.RoleDepartmentHead), staffHandler.Update)
		staff.DELETE("/:id", middleware.RBAC(models.RoleAdmin, models.RoleDepartmentHead), staffHandler.Deactivate)
		staff.POST("/import", middleware.RBAC(models.RoleAdmin, models.RoleDepartmentHead), middleware.Audit(userRepo, models.AuditActionStaffImport, "staff"), staffHandler.Import)
	}

	reports := protected.Group("/reports")
	{
		reports.GET("", reportHandler.List)
		reports.POST("", middleware.RBAC(models.RoleAdmin, models.RoleDepartmentHead, models.RoleOversight), reportHandler.Generate)
		reports.POST("/rollup", middleware.RBAC(models.RoleAdmin, models.RoleOversight), reportHandler.Rollup)
		reports.GET("/:id", reportHandler.Get)
		reports.DELETE("/:id", reportHandler.Delete)
		reports.POST("/:id/submit", middleware.RBAC(models.RoleAdmin, models.RoleDepartmentHead), reportHandler.Submit)
		reports.POST("/:id/approve", middleware.RBAC(models.RoleAdmin, models.RoleOversight), reportHandler.Approve)
		reports.POST("/:id/reject", middleware.RBAC(models.RoleAdmin, models.RoleOversight), reportHandler.Reject)
		reports.GET("/:id/entries", reportHandler.ListEntries)
		reports.PATCH("/:id/entries/:entryId", reportHandler.UpdateEntry)
		reports.POST("/:id/export", exportHandler.Create)
	}

	exports := protected.Group("/exports")
	{
		exports.GET("/:id", exportHandler.Status)
	}

	// Download uses its own signed token, no session required.
	api.GET("/export/:token", exportHandler.Download)

	notifications := protected.Group("/notifications")
	{
		notifications.GET("", notificationHandler.List)
		notifications.POST("/:id/read", notificationHandler.MarkRead)
	}

	protected.GET("/status", middleware.RBAC(models.RoleAdmin), metricsHandler.Status)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down", zap.String("reason", "signal"))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
}
