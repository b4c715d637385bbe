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

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"carbon-scribe/blue-carbon-verifier/internal/config"
	"carbon-scribe/blue-carbon-verifier/internal/notifications"
	"carbon-scribe/blue-carbon-verifier/internal/projects"
	"carbon-scribe/blue-carbon-verifier/internal/verification"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := cfg.Logging.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Verification engine
	engineCfg, err := cfg.Verification.EngineConfig()
	if err != nil {
		logger.Fatal("Failed to load verification config", zap.Error(err))
	}
	engine, err := verification.NewEngine(engineCfg, logger)
	if err != nil {
		logger.Fatal("Invalid verification config", zap.Error(err))
	}

	// Connect to database
	dbURL := cfg.Database.GetDatabaseURL()
	logger.Info("Connecting to database",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName))

	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxConnections)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to open gorm session", zap.Error(err))
	}
	if err := projects.Migrate(gormDB); err != nil {
		logger.Fatal("Failed to migrate project tables", zap.Error(err))
	}

	// Result cache
	var cache verification.ResultCache
	if cfg.Redis.Addr != "" {
		redisCache := verification.NewRedisCache(redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}), cfg.Redis.ResultTTL)
		if err := redisCache.Ping(ctx); err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		cache = redisCache
	} else {
		memoryCache := verification.NewMemoryCache(cfg.Redis.ResultTTL)
		defer memoryCache.Close()
		cache = memoryCache
		logger.Info("Redis not configured, using in-memory result cache")
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := verification.NewMetrics(registry)

	// Notifications
	channel, err := notifications.NewChannel(ctx, notifications.ChannelConfig{
		Provider: cfg.Notifications.Provider,
		Region:   cfg.Notifications.Region,
		Sender:   cfg.Notifications.Sender,
		TopicARN: cfg.Notifications.TopicARN,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create notification channel", zap.Error(err))
	}
	dispatcher := notifications.NewDispatcher(channel, logger, cfg.Notifications.QueueSize)
	dispatcher.Start(ctx)
	defer dispatcher.Close()

	// Initialize Projects Module
	projectsService := projects.NewService(projects.NewGormRepository(gormDB), logger)
	projectsHandler := projects.NewHandler(projectsService, logger)

	// Initialize Verification Module
	verificationService := verification.NewService(engine, verification.NewPostgresRepository(db), logger,
		verification.WithCache(cache),
		verification.WithNotifier(dispatcher),
		verification.WithStatusRecorder(projectsService),
		verification.WithMetrics(metrics),
	)
	verificationHandler := verification.NewHandler(verificationService, logger)

	// Setup Router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	// CORS Middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Register Routes
	api := router.Group("/api/v1")
	{
		verificationHandler.RegisterRoutes(api)
		projectsHandler.RegisterRoutes(api)
	}

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(pingCtx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Start Server
	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", srv.Addr))

	// Graceful Shutdown
	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}
