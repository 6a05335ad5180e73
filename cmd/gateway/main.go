// Command gateway is the public entrypoint: a path-prefix reverse proxy
// fronting the tenant, user, resource, and booking services so clients only
// need one base URL and one CORS-configured origin.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/example/scheduling-platform/internal/config"
	"github.com/example/scheduling-platform/internal/httpkit"
)

const serviceName = "gateway"

type route struct {
	prefix string
	target *url.URL
}

func main() {
	logger := newLogger()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(8080, "")
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	routes, err := buildRoutes(cfg)
	if err != nil {
		logger.Error("failed to configure upstream routes", "error", err)
		os.Exit(1)
	}

	handler := httpkit.RequestLogger(logger)(newProxyHandler(routes, logger))
	if len(cfg.CORSOrigins) > 0 {
		handler = httpkit.CORS(cfg.CORSOrigins, cfg.CORSAllowCredentials)(handler)
	}

	runServer(ctx, logger, cfg.HTTPPort, handler)
}

// buildRoutes maps each path prefix spec.md §6 defines to its upstream
// service URL. No prefix is a prefix of another, so the order of the list
// does not change which route a path matches.
func buildRoutes(cfg config.Config) ([]route, error) {
	specs := []struct {
		prefix string
		rawURL string
	}{
		{"/tenants", cfg.TenantServiceURL},
		{"/users", cfg.UserServiceURL},
		{"/categories", cfg.ResourceServiceURL},
		{"/resources", cfg.ResourceServiceURL},
		{"/bookings", cfg.BookingServiceURL},
	}

	routes := make([]route, 0, len(specs))
	for _, s := range specs {
		if strings.TrimSpace(s.rawURL) == "" {
			return nil, fmt.Errorf("gateway: no upstream configured for prefix %s", s.prefix)
		}
		target, err := url.Parse(s.rawURL)
		if err != nil {
			return nil, fmt.Errorf("gateway: parse upstream for %s: %w", s.prefix, err)
		}
		routes = append(routes, route{prefix: s.prefix, target: target})
	}
	return routes, nil
}

func newProxyHandler(routes []route, logger *slog.Logger) http.Handler {
	proxies := make(map[string]*httputil.ReverseProxy, len(routes))
	for _, r := range routes {
		target := r.target
		proxy := httputil.NewSingleHostReverseProxy(target)
		proxy.ErrorHandler = func(w http.ResponseWriter, req *http.Request, err error) {
			logger.ErrorContext(req.Context(), "upstream request failed", "target", target.String(), "error", err)
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`{"message":"upstream service unavailable"}`))
		}
		proxies[r.prefix] = proxy
	}

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == "/health" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
			return
		}

		for _, r := range routes {
			if req.URL.Path == r.prefix || strings.HasPrefix(req.URL.Path, r.prefix+"/") {
				proxies[r.prefix].ServeHTTP(w, req)
				return
			}
		}

		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"no route for this path"}`))
	})
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
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

	logger.Info(serviceName+" listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}
