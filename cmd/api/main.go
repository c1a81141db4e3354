package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/cardwise/cardwise-api/internal/config"
	"github.com/cardwise/cardwise-api/internal/domain/allocation"
	"github.com/cardwise/cardwise-api/internal/domain/billing"
	"github.com/cardwise/cardwise-api/internal/domain/card"
	"github.com/cardwise/cardwise-api/internal/domain/category"
	"github.com/cardwise/cardwise-api/internal/domain/rates"
	"github.com/cardwise/cardwise-api/internal/domain/reconcile"
	"github.com/cardwise/cardwise-api/internal/middleware"
	"github.com/cardwise/cardwise-api/internal/pkg/database"
	"github.com/cardwise/cardwise-api/internal/pkg/logger"
	"github.com/cardwise/cardwise-api/internal/pkg/refcache"
	pkgresponse "github.com/cardwise/cardwise-api/internal/pkg/response"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting cardwise API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	cache := refcache.New(redis, cfg.RefCacheTTL)

	// ---------- Repositories ----------
	categoryRepo := category.NewRepository(db)
	cardRepo := card.NewRepository(db)
	reconcileRepo := reconcile.NewRepository(db)

	// ---------- Services ----------
	categoryService := category.NewService(categoryRepo, cache)
	cardService := card.NewService(cardRepo, cache)
	ratesService := rates.NewService(cardService, categoryService, rates.NewResolver())
	allocationService := allocation.NewService(cardService, categoryService, allocation.NewAllocator(rates.NewResolver()))
	reconcileService := reconcile.NewService(reconcileRepo, cache)

	// ---------- Handlers ----------
	categoryHandler := category.NewHandler(categoryService)
	cardHandler := card.NewHandler(cardService)
	ratesHandler := rates.NewHandler(ratesService)
	billingHandler := billing.NewHandler()
	allocationHandler := allocation.NewHandler(allocationService)
	reconcileHandler := reconcile.NewHandler(reconcileService)

	// ---------- Background worker ----------
	rematchWorker := reconcile.NewWorker(reconcileService, 6*time.Hour, cfg.RematchWorkers)
	rematchWorker.Start()
	defer rematchWorker.Stop()

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))
	r.Use(chimw.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/categories", categoryHandler.Routes())

		r.Group(func(r chi.Router) {
			r.Use(middleware.Identity)

			r.Route("/cards", func(r chi.Router) {
				r.Get("/", cardHandler.ListWallet)
				r.Get("/{cardID}/rate", ratesHandler.CardRate)
			})

			r.Mount("/billing", billingHandler.Routes())
			r.Mount("/allocation", allocationHandler.Routes())
			r.Mount("/reconcile", reconcileHandler.Routes())
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
