// Command user runs the user service: end-user accounts, authentication,
// and the permission set carried in minted bearer tokens.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/example/scheduling-platform/internal/authn"
	"github.com/example/scheduling-platform/internal/config"
	"github.com/example/scheduling-platform/internal/eventbus"
	"github.com/example/scheduling-platform/internal/httpkit"
	"github.com/example/scheduling-platform/internal/sqlitestore"
	"github.com/example/scheduling-platform/internal/user"
	migrations "github.com/example/scheduling-platform/migrations/user"
)

const serviceName = "user"

func main() {
	logger := newLogger()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(8082, "user.db")
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if cfg.TenantServiceURL == "" {
		logger.Error("TENANT_SERVICE_URL is required")
		os.Exit(1)
	}

	db, err := sqlitestore.Open(sqlitestore.DefaultConfig(cfg.SQLiteDSN))
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := sqlitestore.Migrate(ctx, db, migrations.FS); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Error("failed to parse REDIS_URL", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	signer, err := authn.NewSigner(cfg.SecretKey, cfg.JWTAlgorithm, time.Duration(cfg.AccessTokenExpireHours)*time.Hour)
	if err != nil {
		logger.Error("failed to construct token signer", "error", err)
		os.Exit(1)
	}
	tokenSource, err := authn.NewServiceTokenSource(signer, serviceName)
	if err != nil {
		logger.Error("failed to mint service token", "error", err)
		os.Exit(1)
	}

	bus := eventbus.NewRedisBus(redisClient, logger)
	tenants := user.NewTenantHTTPClient(cfg.TenantServiceURL).WithServiceToken(tokenSource.Token)

	repo := user.NewSQLiteRepository(db)
	service := user.NewService(repo, tenants, signer, bus, time.Now, nil)
	responder := httpkit.NewResponder(logger)
	handlers := user.NewHandlers(service, responder)

	go runSubscriber(ctx, logger, bus, eventbus.StreamDeletionEvents, "user-service", serviceName, user.TenantDeletedHandler(service))

	requireAuth := httpkit.RequireAuth(signer, responder)
	requireAdmin := httpkit.RequireAdmin(responder)

	router := chi.NewRouter()
	router.Use(httpkit.RequestLogger(logger))
	router.Get("/health", healthHandler)
	handlers.Mount(router, requireAuth, requireAdmin)

	runServer(ctx, logger, cfg.HTTPPort, router)
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func runSubscriber(ctx context.Context, logger *slog.Logger, bus eventbus.Subscriber, stream eventbus.Stream, group, consumer string, handler eventbus.Handler) {
	if err := bus.Subscribe(ctx, stream, group, consumer, handler); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("event subscriber stopped", "stream", stream, "group", group, "error", err)
	}
}

func runServer(ctx context.Context, logger *slog.Logger, port int, handler http.Handler) {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shut down server", "error", err)
		}
	}()

	logger.Info(serviceName+" service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}
