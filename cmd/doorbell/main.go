package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/JuanAmorAKD/digital-doorbell-chat/internal/api"
	"github.com/JuanAmorAKD/digital-doorbell-chat/internal/cache"
	"github.com/JuanAmorAKD/digital-doorbell-chat/internal/client"
	"github.com/JuanAmorAKD/digital-doorbell-chat/internal/config"
	"github.com/JuanAmorAKD/digital-doorbell-chat/internal/relay"
	"github.com/JuanAmorAKD/digital-doorbell-chat/internal/repo"
	"github.com/JuanAmorAKD/digital-doorbell-chat/internal/session"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	cfg, err := config.LoadAll()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.Database.PostgresURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := repo.NewPostgresStore(pool)
	if err := store.Ping(ctx); err != nil {
		logger.Error("postgres ping failed", "err", err)
		os.Exit(1)
	}

	var (
		bus   relay.Bus
		guard cache.DispatchGuard
	)
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		bus = relay.NewRedisBus(rdb)
		guard = cache.NewRedisGuard(rdb, cfg.Redis.NotifiedTTL)
	} else {
		// Single-process fan-out only; acceptable for one instance.
		bus = relay.NewMemoryBus()
	}

	rly := relay.New(store, bus, logger)
	dispatcher := client.NewDispatcher(cfg.Webhook.ChatOrigin, guard, logger)
	manager := session.NewManager(store, store, rly, dispatcher, cfg.Session.Window, logger)

	go pruneLoop(ctx, manager, cfg.Session.PruneInterval, logger)

	handler := api.NewHandler(manager, rly, store, logger)
	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: api.Router(handler),
	}

	go func() {
		logger.Info("doorbell server started",
			"addr", cfg.Server.Address,
			"window", cfg.Session.Window.String(),
			"redis", cfg.Redis.Enabled,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "err", err)
	} else {
		logger.Info("server exited cleanly")
	}
}

func pruneLoop(ctx context.Context, manager *session.Manager, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := manager.PruneIdle(); n > 0 {
				logger.Info("pruned idle sessions", "count", n)
			}
		}
	}
}
