// Package main runs the floor-plan and table-allocation HTTP server.
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

	"github.com/dinefloor/backend/config"
	"github.com/dinefloor/backend/internal/floorplan"
	"github.com/dinefloor/backend/internal/middleware"
	"github.com/dinefloor/backend/internal/realtime"
	"github.com/dinefloor/backend/pkg/database"
	"github.com/dinefloor/backend/pkg/redis"
	"github.com/dinefloor/backend/pkg/response"
	"github.com/dinefloor/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	store := floorplan.NewRepository(pool)
	layoutSvc := floorplan.NewService(store, logger)

	// Seed the starter room once, explicitly, so reads stay side-effect free.
	if err := layoutSvc.EnsureDefaultRoom(ctx); err != nil {
		logger.Fatal("ensure default room", zap.Error(err))
	}

	// Layout change feed; Redis fan-out is optional.
	var hub *realtime.Hub
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
		pubsub := realtime.NewRedisPubSub(rdb.Client, logger)
		hub = realtime.NewHub(logger, pubsub, pubsub)
	} else {
		hub = realtime.NewHub(logger, nil, nil)
	}
	defer hub.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			FloorPlansBucket:     cfg.AWS.FloorPlansBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	layoutHandler := floorplan.NewHandler(layoutSvc, hub, s3Client, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Layout engine API. Authorization lives in the upstream gateway.
	router.GET("/layout/overview", layoutHandler.Overview)
	router.POST("/layout/suggest", layoutHandler.Suggest)

	router.POST("/rooms", layoutHandler.CreateRoom)
	router.PUT("/rooms/:id", layoutHandler.UpdateRoom)
	router.DELETE("/rooms/:id", layoutHandler.DeleteRoom)
	router.POST("/rooms/:id/background", layoutHandler.UploadBackground)
	router.GET("/rooms/:id/background-url", layoutHandler.BackgroundURL)

	router.POST("/tables", layoutHandler.CreateTable)
	router.PUT("/tables/:id", layoutHandler.UpdateTable)
	router.DELETE("/tables/:id", layoutHandler.DeleteTable)
	router.POST("/tables/bulk", layoutHandler.BulkCreateTables)
	router.PUT("/tables/positions", layoutHandler.UpdatePositions)
	router.POST("/tables/merge", layoutHandler.MergeTables)
	router.POST("/tables/split", layoutHandler.SplitTables)

	// WebSocket layout change feed
	router.GET("/ws", realtime.ServeWs(hub, logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

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
