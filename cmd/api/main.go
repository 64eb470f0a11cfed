package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/reloop-app/reloop-backend/config"
	"github.com/reloop-app/reloop-backend/internal/api/http/middleware"
	"github.com/reloop-app/reloop-backend/internal/auth"
	"github.com/reloop-app/reloop-backend/internal/bootstrap"
	"github.com/reloop-app/reloop-backend/internal/dashboard"
	dashboardhttp "github.com/reloop-app/reloop-backend/internal/dashboard/http"
	itemshttp "github.com/reloop-app/reloop-backend/internal/items/http"
	"github.com/reloop-app/reloop-backend/internal/items/repository"
	"github.com/reloop-app/reloop-backend/internal/items/service"
	"github.com/reloop-app/reloop-backend/internal/logging"
	"github.com/reloop-app/reloop-backend/internal/maintenance"
	"github.com/reloop-app/reloop-backend/internal/storage/postgres"
	"github.com/reloop-app/reloop-backend/internal/users"
	usershttp "github.com/reloop-app/reloop-backend/internal/users/http"
	"github.com/reloop-app/reloop-backend/internal/webhooks"
	webhookshttp "github.com/reloop-app/reloop-backend/internal/webhooks/http"
)

const serviceName = "reloop-backend"

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logging.New(os.Stdout, cfg.App.Environment, cfg.App.LogLevel)
	slog.SetDefault(log)
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{
		DSN:      postgres.DSN(&cfg.Database),
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return err
	}
	defer pool.Close()
	db := postgres.NewSQLDB(pool)

	var dedupe webhooks.Deduper = webhooks.NoopDeduper{}
	rdb, err := bootstrap.OpenRedis(ctx, cfg.Redis)
	switch {
	case err != nil:
		log.Warn("redis unavailable, webhook replay protection disabled", "error", err)
	case rdb != nil:
		defer rdb.Close()
		dedupe = webhooks.NewRedisDeduper(rdb, cfg.Webhooks.DedupeTTL)
	}

	verifier, err := auth.NewVerifier(ctx, &cfg.Auth)
	if err != nil {
		return err
	}

	userRepo := users.NewRepo(db)
	itemRepo := repository.NewItemRepository(db)

	webhookHandler, err := webhookshttp.New(webhooks.NewService(userRepo), dedupe, webhooks.Secrets{
		UserCreated: cfg.Webhooks.CreateUserSecret,
		UserUpdated: cfg.Webhooks.UpdateUserSecret,
		UserDeleted: cfg.Webhooks.DeleteUserSecret,
	})
	if err != nil {
		return err
	}

	limiter := middleware.NewIPRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    serviceName,
		Version:        cfg.App.Version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         log,
		DB:             pool,
		Verifier:       verifier,
		Limiter:        limiter,
		Items:          itemshttp.New(service.NewItemService(userRepo, itemRepo)),
		Webhooks:       webhookHandler,
		Dashboard: dashboardhttp.New(
			dashboard.NewService(userRepo, itemRepo, dashboard.NewRepository(db)),
		),
		Users: usershttp.New(users.NewService(userRepo)),
	})

	scheduler := maintenance.NewScheduler(itemRepo, limiter, log)
	if err := scheduler.Start(cfg.Maintenance.SweepSchedule); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", srv.Addr, "env", cfg.App.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	scheduler.Stop(shutdownCtx)
	return srv.Shutdown(shutdownCtx)
}
