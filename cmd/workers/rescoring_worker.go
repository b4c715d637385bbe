package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"carbon-scribe/blue-carbon-verifier/internal/config"
	"carbon-scribe/blue-carbon-verifier/internal/projects"
	"carbon-scribe/blue-carbon-verifier/internal/rescoring"
	"carbon-scribe/blue-carbon-verifier/internal/verification"
)

func main() {
	cfg, err := config.LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := cfg.Logging.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	engineCfg, err := cfg.Verification.EngineConfig()
	if err != nil {
		logger.Fatal("Failed to load verification config", zap.Error(err))
	}
	engine, err := verification.NewEngine(engineCfg, logger)
	if err != nil {
		logger.Fatal("Invalid verification config", zap.Error(err))
	}

	db, err := sqlx.Connect("postgres", cfg.Database.GetDatabaseURL())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to open gorm session", zap.Error(err))
	}
	if err := projects.Migrate(gormDB); err != nil {
		logger.Fatal("Failed to migrate project tables", zap.Error(err))
	}

	// Rescored results update project status and history; no notices are sent
	projectsService := projects.NewService(projects.NewGormRepository(gormDB), logger)
	service := verification.NewService(engine, verification.NewPostgresRepository(db), logger,
		verification.WithStatusRecorder(projectsService),
	)

	scheduler, err := rescoring.NewScheduler(service, logger, rescoring.Config{
		Schedule:  cfg.Workers.RescoreSchedule,
		BatchSize: cfg.Workers.RescoreBatchSize,
	})
	if err != nil {
		logger.Fatal("Failed to create rescoring scheduler", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := scheduler.Start(ctx); err != nil {
		logger.Fatal("Failed to start rescoring scheduler", zap.Error(err))
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("Received shutdown signal")
	cancel()
	scheduler.Stop()
	logger.Info("Rescoring worker stopped")
}
