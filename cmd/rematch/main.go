package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cardwise/cardwise-api/internal/config"
	"github.com/cardwise/cardwise-api/internal/domain/reconcile"
	"github.com/cardwise/cardwise-api/internal/pkg/database"
	"github.com/cardwise/cardwise-api/internal/pkg/logger"
	"github.com/cardwise/cardwise-api/internal/pkg/refcache"
)

// One-shot batch rematch over every user with synced transactions.
// Meant for cron and for backfills after credit catalog changes.
func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	svc := reconcile.NewService(reconcile.NewRepository(db), refcache.New(nil, cfg.RefCacheTTL))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	summary, err := svc.RematchAll(ctx, cfg.RematchWorkers)
	if err != nil {
		log.Fatal().Err(err).Msg("Batch rematch failed")
	}

	if len(summary.Errors) > 0 {
		os.Exit(1)
	}
}
