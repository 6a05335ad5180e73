// Command booking runs the booking service: the admission pipeline,
// recurrence expansion, and cascade consumers for resource/user/tenant
// deletion events.
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
	"github.com/example/scheduling-platform/internal/booking"
	"github.com/example/scheduling-platform/internal/cache"
	"github.com/example/scheduling-platform/internal/config"
	"github.com/example/scheduling-platform/internal/eventbus"
	"github.com/example/scheduling-platform/internal/httpkit"
	"github.com/example/scheduling-platform/internal/sqlitestore"
	"github.com/example/scheduling-platform/internal/tenant"
	migrations "github.com/example/scheduling-platform/migrations/booking"
)

const serviceName = "booking"

func main() {
	logger := newLogger()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(8084, "booking.db")
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if cfg.TenantServiceURL == "" || cfg.ResourceServiceURL == "" {
		logger.Error("TENANT_SERVICE_URL and RESOURCE_SERVICE_URL are required")
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

	settingsFetcher := tenant.NewHTTPClient(cfg.TenantServiceURL).WithServiceToken(tokenSource.Token)
	settingsStore := cache.NewTTLStore(redisClient, logger)
	settings := cache.NewSettingsSupplier(settingsStore, settingsFetcher, cfg.CacheTTLSettings)

	resourceClient := booking.NewResourceHTTPClient(cfg.ResourceServiceURL).WithServiceToken(tokenSource.Token)

	repo := booking.NewSQLiteRepository(db)
	service := booking.NewService(db, repo, settings, resourceClient, bus, time.Now, nil)
	responder := httpkit.NewResponder(logger)
	cancellationHours := func(tenantID string) int {
		s, err := settings.Get(context.Background(), tenantID)
		if err != nil {
			return 24
		}
		return s.CancellationHours
	}
	handlers := booking.NewHandlers(service, responder, cancellationHours)

	deletionHandler := chainHandlers(
		booking.ResourceDeletedHandler(service),
		booking.UserDeletedHandler(service),
		booking.TenantDeletedHandler(service),
	)
	go runSubscriber(ctx, logger, bus, eventbus.StreamDeletionEvents, "booking-service", serviceName, deletionHandler)

	requireAuth := httpkit.RequireAuth(signer, responder)
	requireAdmin := httpkit.RequireAdmin(responder)
	requireCanBook := httpkit.RequireCanBook(responder)

	router := chi.NewRouter()
	router.Use(httpkit.RequestLogger(logger))
	router.Get("/health", healthHandler)
	handlers.Mount(router, requireAuth, requireAdmin, requireCanBook)

	runServer(ctx, logger, cfg.HTTPPort, router)
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// chainHandlers combines handlers that each only act on one event.Type
// (returning nil for any other) into a single handler, since a Redis
// Streams consumer group delivers each message to exactly one consumer —
// registering three separate consumers in the same group would split
// deletion-events between them instead of letting each see every message.
func chainHandlers(handlers ...eventbus.Handler) eventbus.Handler {
	return func(ctx context.Context, event eventbus.Event) error {
		for _, h := range handlers {
			if err := h(ctx, event); err != nil {
				return err
			}
		}
		return nil
	}
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
