package app

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the gateway and the worker.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	BackendURL      string        `envconfig:"BACKEND_URL" default:"http://localhost:8000/api"`
	BackendTimeout  time.Duration `envconfig:"BACKEND_TIMEOUT" default:"30s"`
	BackendEmail    string        `envconfig:"BACKEND_EMAIL"`
	BackendPassword string        `envconfig:"BACKEND_PASSWORD"`

	// PGDSN is optional; without it the audit journal lives in memory.
	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr  string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"720h"`

	DashboardCacheTTL  time.Duration `envconfig:"DASHBOARD_CACHE_TTL" default:"5m"`
	RateLimitPerMinute int           `envconfig:"RATE_LIMIT_PER_MINUTE" default:"60"`
	WarmupSchedule     string        `envconfig:"WARMUP_SCHEDULE" default:"*/15 * * * *"`

	// OverdueActorID is the account the overdue sweep acts as; zero disables
	// the sweep.
	OverdueActorID  int64  `envconfig:"OVERDUE_ACTOR_ID"`
	OverdueSchedule string `envconfig:"OVERDUE_SCHEDULE" default:"0 1 * * *"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend url %q must be absolute", c.BackendURL)
	}
	if c.RateLimitPerMinute <= 0 {
		return errors.New("rate limit must be positive")
	}
	if c.BackendTimeout <= 0 {
		return errors.New("backend timeout must be positive")
	}
	if (c.BackendEmail == "") != (c.BackendPassword == "") {
		return errors.New("backend email and password must be set together")
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
