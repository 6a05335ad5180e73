// Package config loads process configuration from the environment, the way
// the teacher's internal/config/loader.go does: explicit defaults, required
// fields collected into one aggregated error rather than failing on the
// first missing variable.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures the environment-driven values shared across every
// service in spec.md §6, plus the DSN each service resolves for itself.
type Config struct {
	HTTPPort    int
	Environment string

	SecretKey              string
	JWTAlgorithm           string
	AccessTokenExpireHours int

	SQLiteDSN string

	RedisURL             string
	CacheTTLSettings     time.Duration
	CacheTTLAvailability time.Duration

	TenantServiceURL  string
	UserServiceURL    string
	ResourceServiceURL string
	BookingServiceURL string

	CORSOrigins          []string
	CORSAllowCredentials bool
}

// Load reads Config from the process environment. defaultDSN and
// defaultPort let each cmd/<service> supply a service-specific fallback
// without duplicating the rest of the loader.
func Load(defaultPort int, defaultDSN string) (Config, error) {
	cfg := Config{
		HTTPPort:               defaultPort,
		Environment:            "development",
		JWTAlgorithm:           "HS256",
		AccessTokenExpireHours: 24,
		SQLiteDSN:              defaultDSN,
		RedisURL:               "redis://127.0.0.1:6379/0",
		CacheTTLSettings:       300 * time.Second,
		CacheTTLAvailability:   300 * time.Second,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 4)

	if v := strings.TrimSpace(os.Getenv("HTTP_PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 {
			invalid = append(invalid, "HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if v := strings.TrimSpace(os.Getenv("ENVIRONMENT")); v != "" {
		cfg.Environment = v
	}

	if v := strings.TrimSpace(os.Getenv("SECRET_KEY")); v == "" {
		missing = append(missing, "SECRET_KEY")
	} else {
		cfg.SecretKey = v
	}

	if v := strings.TrimSpace(os.Getenv("JWT_ALGORITHM")); v != "" {
		cfg.JWTAlgorithm = v
	}

	if v := strings.TrimSpace(os.Getenv("ACCESS_TOKEN_EXPIRE_HOURS")); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil || hours <= 0 {
			invalid = append(invalid, "ACCESS_TOKEN_EXPIRE_HOURS")
		} else {
			cfg.AccessTokenExpireHours = hours
		}
	}

	if v := strings.TrimSpace(os.Getenv("SQLITE_DSN")); v != "" {
		cfg.SQLiteDSN = v
	}

	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		cfg.RedisURL = v
	}

	if v := strings.TrimSpace(os.Getenv("CACHE_TTL_SETTINGS")); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil || seconds <= 0 {
			invalid = append(invalid, "CACHE_TTL_SETTINGS")
		} else {
			cfg.CacheTTLSettings = time.Duration(seconds) * time.Second
		}
	}

	if v := strings.TrimSpace(os.Getenv("CACHE_TTL_AVAILABILITY")); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil || seconds <= 0 {
			invalid = append(invalid, "CACHE_TTL_AVAILABILITY")
		} else {
			cfg.CacheTTLAvailability = time.Duration(seconds) * time.Second
		}
	}

	cfg.TenantServiceURL = strings.TrimSpace(os.Getenv("TENANT_SERVICE_URL"))
	cfg.UserServiceURL = strings.TrimSpace(os.Getenv("USER_SERVICE_URL"))
	cfg.ResourceServiceURL = strings.TrimSpace(os.Getenv("RESOURCE_SERVICE_URL"))
	cfg.BookingServiceURL = strings.TrimSpace(os.Getenv("BOOKING_SERVICE_URL"))

	if v := strings.TrimSpace(os.Getenv("CORS_ORIGINS")); v != "" {
		parts := strings.Split(v, ",")
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, p)
			}
		}
	}
	cfg.CORSAllowCredentials = strings.EqualFold(strings.TrimSpace(os.Getenv("CORS_ALLOW_CREDENTIALS")), "true")

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
