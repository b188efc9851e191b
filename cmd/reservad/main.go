package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/campuskit/reservas/internal/app"
	"github.com/campuskit/reservas/internal/config"
	"github.com/campuskit/reservas/internal/repository"
	"github.com/campuskit/reservas/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create connection pool", zap.Error(err))
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	migrator.Close()

	store := repository.NewStore(pool)
	notifier := service.NewLogNotifier(logger)
	reservations := service.NewReservationService(
		store.Reservations(),
		store.Resources(),
		store.History(),
		store,
		notifier,
		logger,
	)

	sweeper := app.NewSweeper(reservations, cfg.SweepInterval, logger)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	logger.Info("Reservation daemon started",
		zap.String("environment", cfg.Environment),
		zap.Duration("sweep_interval", cfg.SweepInterval),
	)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("Shutting down")
}
