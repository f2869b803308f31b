package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-service/config"
	"github.com/oksasatya/user-service/internal/application"
	"github.com/oksasatya/user-service/internal/domain/repository"
	"github.com/oksasatya/user-service/internal/infrastructure/memory"
	"github.com/oksasatya/user-service/internal/infrastructure/messaging"
	pginfra "github.com/oksasatya/user-service/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/user-service/internal/interface/http"
	"github.com/oksasatya/user-service/internal/interface/middleware"
	"github.com/oksasatya/user-service/internal/router"
	"github.com/oksasatya/user-service/internal/router/modules"
	"github.com/oksasatya/user-service/pkg/helpers"
	"github.com/oksasatya/user-service/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()

	repo, health, closeStore := openStore(ctx, cfg, logger)
	defer closeStore()

	// RabbitMQ publisher with confirms; the topology is declared up front
	rmq, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, messaging.UserCreatedTopology(cfg), cfg.RabbitMQPublishTimeout)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to rabbitmq")
	}
	defer rmq.Close()

	// Redis is optional: without it rate limiting is off
	var rdb *redis.Client
	if client, err := helpers.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); err != nil {
		logger.WithError(err).Warn("redis unavailable; rate limiting disabled")
		_ = client.Close()
	} else {
		rdb = client
		defer func() { _ = rdb.Close() }()
	}

	publisher := messaging.NewUserEventPublisher(rmq, cfg.RabbitMQUserCreatedRoutingKey, logger)
	svc := application.NewService(repo, publisher, logger)
	userHandler := handlers.NewUserHandler(svc, logger)

	// Gin engine and global middleware
	r := gin.New()
	if err := middleware.ConfigureClientIP(r, cfg.TrustedProxyList(), cfg.TrustedPlatform); err != nil {
		logger.WithError(err).Fatal("invalid client IP settings")
	}
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(cors.New(corsConfig(cfg)))
	if cfg.HTTPLogEnabled {
		r.Use(middleware.AccessLog(logger))
	} else if cfg.Env == "development" {
		r.Use(gin.Logger())
	}

	reg := router.NewRegistry(r)
	reg.Use(middleware.RealIP())
	router.InitModules(reg, router.Deps{
		UserHandler:  userHandler,
		Redis:        rdb,
		Logger:       logger,
		CreatePerMin: cfg.RateLimitCreatePerMin,
		ReadPerMin:   cfg.RateLimitReadPerMin,
		DebugMetrics: cfg.DebugMetricsEnabled,
		Health:       health,
	})
	reg.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.WithError(err).Error("server forced to shutdown")
		return
	}
	logger.Info("server exited properly")
}

// openStore builds the user repository selected by STORE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (repository.UserRepository, modules.HealthCheck, func()) {
	if cfg.StoreDriver == "memory" {
		logger.Warn("STORE_DRIVER=memory: users are kept in process memory only")
		return memory.NewUserRepository(), nil, func() {}
	}

	pool, err := pginfra.NewPool(ctx, pginfra.PoolConfig{
		DSN:         cfg.PostgresDSN(),
		MaxConns:    cfg.DBMaxConns,
		MinConns:    cfg.DBMinConns,
		MaxConnLife: cfg.DBMaxConnLife,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to postgres")
	}
	if err := pginfra.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		pool.Close()
		logger.WithError(err).Fatal("migration failed")
	}
	return pginfra.NewUserRepository(pool), pool.Ping, pool.Close
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:        12 * time.Hour,
	}
	if origins := cfg.CORSOrigins(); len(origins) > 0 {
		c.AllowOrigins = origins
		c.AllowCredentials = true
	} else {
		c.AllowAllOrigins = true
	}
	return c
}
