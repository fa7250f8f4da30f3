package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/trustpooler/pool-engine/internal/config"
	"github.com/trustpooler/pool-engine/internal/desk"
	"github.com/trustpooler/pool-engine/internal/limits"
	"github.com/trustpooler/pool-engine/internal/metrics"
	"github.com/trustpooler/pool-engine/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: ./config.yaml if present)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Log.Level)}))
	slog.SetDefault(logger)

	// --- Initialize settlement journal ---
	var st store.Store
	var cleanup []func()

	if cfg.Database.URL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.Database.URL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)

		pg := store.NewPostgresStore(pool)
		if err := pg.EnsureSchema(context.Background()); err != nil {
			slog.Error("schema migration failed", "err", err)
			os.Exit(1)
		}
		st = pg
		slog.Info("connected to PostgreSQL")

		// Wrap with Redis read-through cache if configured.
		if cfg.Redis.URL != "" {
			opt, err := redis.ParseURL(cfg.Redis.URL)
			if err != nil {
				slog.Error("invalid redis url", "err", err)
				os.Exit(1)
			}
			rdb := redis.NewClient(opt)
			cleanup = append(cleanup, func() { rdb.Close() })
			st = store.NewCachedStore(st, rdb, cfg.Redis.TTL)
			slog.Info("Redis cache enabled", "ttl", cfg.Redis.TTL.String())
		}
	} else {
		slog.Warn("database.url not set, using in-memory journal (settlements will not persist)")
		st = store.NewMemoryStore()
	}

	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- Pools ---
	registry := desk.NewRegistry()
	if err := registry.Seed(cfg); err != nil {
		slog.Error("pool seeding failed", "err", err)
		os.Exit(1)
	}
	for _, b := range registry.List() {
		s := b.Summary()
		slog.Info("pool loaded",
			"pool", s.ID,
			"kind", s.Kind,
			"stakes", s.Stakes,
			"total_pool", s.TotalPool.String(),
			"fee_rate", s.FeeRate.String(),
		)
	}

	// --- Quote limits ---
	limiter := limits.NewExposureLimiter(
		decimal.NewFromFloat(cfg.Limits.MaxQuoteAmount),
		decimal.NewFromFloat(cfg.Limits.MaxCategoryExposure),
	)

	// --- WebSocket hub ---
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	wsHub := desk.NewWSHub()
	go wsHub.Run(hubCtx)

	// --- Desk service ---
	deskSvc := desk.NewService(registry, st, limiter, wsHub)

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"pool-engine"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket endpoint for settlement events.
		r.Get("/ws", wsHub.HandleWS)

		// Pool reporting.
		r.Get("/pools", deskSvc.ListPools)
		r.Get("/pools/{poolID}", deskSvc.GetPool)
		r.Get("/pools/{poolID}/winning", deskSvc.GetWinning)

		// Pro-forma valuation.
		r.Post("/pools/{poolID}/quote", deskSvc.Quote)
		r.Post("/pools/{poolID}/curve", deskSvc.Curve)

		// Settlement and journal.
		r.Post("/pools/{poolID}/settle", deskSvc.Settle)
		r.Get("/pools/{poolID}/settlements", deskSvc.ListSettlements)
		r.Get("/settlements/{settlementID}", deskSvc.GetSettlement)
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("pool-engine listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down pool-engine...")
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	stopHub()
	fmt.Println("pool-engine stopped")
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
