package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/OceanLab-Technology/masterJGS/internal/brokerage"
	"github.com/OceanLab-Technology/masterJGS/internal/metrics"
	"github.com/OceanLab-Technology/masterJGS/internal/notify"
	"github.com/OceanLab-Technology/masterJGS/internal/position"
	"github.com/OceanLab-Technology/masterJGS/internal/store"
	"github.com/OceanLab-Technology/masterJGS/internal/user"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// --- Initialize store ---
	var st store.Store
	var cleanup []func()

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := pgxpool.New(context.Background(), dbURL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)
		st = store.NewPostgresStore(pool)
		slog.Info("connected to PostgreSQL")

		// Wrap with Redis read-through cache if configured.
		if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
			opt, err := redis.ParseURL(redisURL)
			if err != nil {
				slog.Error("invalid REDIS_URL", "err", err)
				os.Exit(1)
			}
			rdb := redis.NewClient(opt)
			cleanup = append(cleanup, func() { rdb.Close() })
			st = store.NewCachedStore(st, rdb, 30*time.Second)
			slog.Info("Redis cache enabled")
		}
	} else {
		slog.Warn("DATABASE_URL not set, serving seeded in-memory data (changes will not persist)")
		st = store.NewSeededMemoryStore()
	}

	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- WebSocket hub ---
	hub := notify.NewHub()
	go hub.Run()

	// --- Services ---
	brokerageSvc := brokerage.NewService(st, hub)
	positionSvc := position.NewService(st)
	userSvc := user.NewService(st)

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	// CORS middleware for console cross-origin requests.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"masterjgs"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		// WebSocket endpoint for config-change events.
		r.Get("/ws", hub.HandleWS)

		// Positions and trade history.
		r.Get("/positions", positionSvc.List)
		r.Get("/positions/detailed", positionSvc.ListDetailed)
		r.Get("/positions/summary", positionSvc.Summary)
		r.Get("/positions/stock/{stockID}", positionSvc.ListByStock)
		r.Post("/positions/{positionID}/close", positionSvc.Close)
		r.Post("/positions/square-off", positionSvc.SquareOff)
		r.Get("/clients/{clientID}/trades", positionSvc.ClientTrades)
		r.Get("/clients/{clientID}/trades/summary", positionSvc.ClientTradeSummary)

		// Brokerage rate configuration.
		r.Get("/brokerage/segment", brokerageSvc.ListSegments)
		r.Patch("/brokerage/segment", brokerageSvc.BatchUpdateSegments)
		r.Post("/brokerage/segment/{id}/block", brokerageSvc.ToggleSegmentBlock)
		r.Get("/brokerage/scripts", brokerageSvc.ListScripts)
		r.Post("/brokerage/scripts", brokerageSvc.CreateScript)
		r.Put("/brokerage/scripts/{id}", brokerageSvc.UpdateScript)
		r.Delete("/brokerage/scripts/{id}", brokerageSvc.DeleteScript)
		r.Post("/brokerage/scripts/bulk-delete", brokerageSvc.BulkDeleteScripts)
		r.Post("/brokerage/scripts/{id}/block", brokerageSvc.ToggleScriptBlock)
		r.Get("/brokerage/clients/{clientID}/rates", brokerageSvc.ListClientRates)
		r.Post("/brokerage/clients/{clientID}/rates", brokerageSvc.CreateClientRate)
		r.Put("/brokerage/clients/{clientID}/rates/{id}", brokerageSvc.UpdateClientRate)
		r.Delete("/brokerage/clients/{clientID}/rates/{id}", brokerageSvc.DeleteClientRate)
		r.Post("/brokerage/clients/{clientID}/rates/bulk-delete", brokerageSvc.BulkDeleteClientRates)
		r.Get("/brokerage/resolve", brokerageSvc.ResolveRate)

		// User management.
		r.Get("/users", userSvc.List)
		r.Post("/users", userSvc.Create)
		r.Put("/users/{id}", userSvc.Update)
		r.Post("/users/{id}/change-password", userSvc.ChangePassword)
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("masterjgs backend listening", "port", port)
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

	slog.Info("shutting down...")
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("masterjgs backend stopped")
}
