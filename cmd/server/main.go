package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"hours-reconciliation-backend/internal/cache"
	"hours-reconciliation-backend/internal/config"
	handler "hours-reconciliation-backend/internal/handlers"
	"hours-reconciliation-backend/internal/middleware"
	"hours-reconciliation-backend/internal/models"
	"hours-reconciliation-backend/internal/repository"
	"hours-reconciliation-backend/internal/routes"
	service "hours-reconciliation-backend/internal/services/reconciliation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat)

	store, err := openStore(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("open record store")
	}

	opts := []service.Option{service.WithJoinPolicy(cfg.JoinPolicy())}
	if cfg.Redis.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		cancel()
		if err != nil {
			logger.WithError(err).Warn("summary cache disabled")
		} else {
			opts = append(opts, service.WithSummaryCache(cache.NewSummaryCache(rdb, cfg.Redis.TTL)))
			logger.WithField("addr", cfg.Redis.Addr).Info("summary cache enabled")
		}
	}

	reconService := service.NewReconciliationService(store, logger, opts...)
	reconHandler := handler.NewReconciliationHandler(reconService, cfg.MaxUploadBytes())

	r := gin.New()
	r.MaxMultipartMemory = cfg.MaxUploadBytes()
	r.Use(middleware.RequestLogger(logger), gin.Recovery())
	// CORS config
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, reconHandler)

	logger.WithFields(logrus.Fields{"port": cfg.Port, "store": cfg.StoreDriver, "joinPolicy": cfg.DualJoinPolicy}).
		Info("hours reconciliation server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}

func openStore(cfg *config.Config, logger *logrus.Logger) (service.Store, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn("using in-memory store; runs are lost on restart")
		return repository.NewMemoryStore(), nil
	}

	db, err := config.InitDB(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(
		&models.ReconciliationRun{},
		&models.ReconciliationRow{},
	); err != nil {
		return nil, err
	}
	return repository.NewStore(db), nil
}
