// Package main runs the lecture video platform HTTP server with the
// background URL sweeper and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lecturelink/backend/config"
	"github.com/lecturelink/backend/internal/auth"
	"github.com/lecturelink/backend/internal/certificates"
	"github.com/lecturelink/backend/internal/health"
	"github.com/lecturelink/backend/internal/middleware"
	"github.com/lecturelink/backend/internal/refresh"
	"github.com/lecturelink/backend/internal/translation"
	"github.com/lecturelink/backend/internal/videos"
	"github.com/lecturelink/backend/internal/worker"
	"github.com/lecturelink/backend/pkg/database"
	"github.com/lecturelink/backend/pkg/queue"
	"github.com/lecturelink/backend/pkg/redis"
	"github.com/lecturelink/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// Object storage is not optional: every lecture URL is minted from it.
	s3Client, err := storage.NewS3(ctx, storage.S3Config{
		Region:               cfg.S3.Region,
		Endpoint:             cfg.S3.Endpoint,
		AccessKeyID:          cfg.S3.AccessKeyID,
		SecretAccessKey:      cfg.S3.SecretAccessKey,
		Bucket:               cfg.S3.Bucket,
		PresignExpireSeconds: cfg.S3.PresignExpireSeconds,
	}, logger)
	if err != nil {
		logger.Fatal("s3", zap.Error(err))
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	authHandler := auth.NewHandler(jwtService, cfg.Admin, logger)

	// Videos + URL refresh
	videoRepo := videos.NewRepository(pool)
	refresher := refresh.NewRefresher(s3Client, videoRepo, s3Client.PresignExpire(), logger)
	sweeper := refresh.NewSweeper(videoRepo, refresher, cfg.Refresh.SweepInterval(), cfg.Refresh.SweepMargin(), logger)
	refreshHandler := refresh.NewHandler(sweeper, logger)

	translationRepo := translation.NewRepository(pool)
	translationSvc := translation.NewService(translation.NewGoogleTranslator(), translation.DefaultPace, logger)
	uploadSvc := videos.NewService(s3Client, videoRepo, translationRepo, translationSvc, cfg.App.BaseURL, logger)
	videoHandler := videos.NewHandler(videoRepo, translationRepo, refresher, uploadSvc, cfg.Refresh.OnDemandMargin(), logger)

	// Certificates
	jobQueue := queue.NewQueue(rdb.Client, logger)
	certRepo := certificates.NewRepository(pool)
	certHandler := certificates.NewHandler(certRepo, jobQueue, logger)
	exporter := worker.NewCertificateExporter(certRepo, s3Client, jobQueue, logger)

	healthHandler := health.NewHandler(pool, s3Client, sweeper)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.BodyLimit(cfg.App.MaxUploadBytes()))

	router.GET("/health", healthHandler.Check)
	router.GET("/watch/:id", videoHandler.Watch)

	api := router.Group("/api")
	{
		api.POST("/admin/login", authHandler.Login)
		api.GET("/videos/:id", videoHandler.GetByID)
		api.POST("/create_certificate", certHandler.Create)
		api.POST("/add_certificate_to_master", certHandler.Export)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AdminJWT(jwtService, cfg.Admin.Email))
	{
		admin.POST("/upload", videoHandler.Upload)
		admin.POST("/refresh-urls", refreshHandler.TriggerSweep)
		admin.GET("/scheduler-status", refreshHandler.SchedulerStatus)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	sweeper.Start()
	defer sweeper.Stop()

	// Background worker (certificate exports); a dedicated worker binary can
	// run alongside and share the queue.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go exporter.Run(workerCtx)
	logger.Info("certificate worker started")

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
