// Package config loads service configuration from the environment and an
// optional YAML features file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the runtime configuration for the platform service.
type Config struct {
	HTTP struct {
		Port            int           `env:"HTTP_PORT,default=5173"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT,default=15s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT,default=30s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT,default=10s"`
		AllowedOrigins  string        `env:"CORS_ALLOWED_ORIGINS,default=*"`
	}

	Database struct {
		DSN          string        `env:"DATABASE_URL"`
		MaxOpenConns int           `env:"DATABASE_MAX_OPEN_CONNS,default=20"`
		MaxIdleConns int           `env:"DATABASE_MAX_IDLE_CONNS,default=5"`
		ConnLifetime time.Duration `env:"DATABASE_CONN_LIFETIME,default=30m"`
	}

	Redis struct {
		Addr     string        `env:"REDIS_ADDR"`
		Password string        `env:"REDIS_PASSWORD"`
		DB       int           `env:"REDIS_DB,default=0"`
		TTL      time.Duration `env:"REDIS_CACHE_TTL,default=5m"`
	}

	Auth struct {
		JWTSecret string        `env:"JWT_SECRET"`
		TokenTTL  time.Duration `env:"JWT_TOKEN_TTL,default=24h"`
	}

	Ingest struct {
		FeedURL         string        `env:"STATS_FEED_URL"`
		FeedAPIKey      string        `env:"STATS_FEED_KEY"`
		RefreshInterval time.Duration `env:"STATS_REFRESH_INTERVAL,default=60s"`
		SyncSchedule    string        `env:"STATS_SYNC_SCHEDULE,default=0 4 * * *"`
	}

	RateLimit struct {
		RequestsPerSecond int `env:"RATE_LIMIT_RPS,default=20"`
		Burst             int `env:"RATE_LIMIT_BURST,default=40"`
	}
}

// Load reads .env when present, then decodes the environment. A missing .env
// file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	return &cfg, nil
}

// Features toggles optional components of the service.
type Features struct {
	Services map[string]*FeatureSettings `yaml:"services"`
}

// FeatureSettings configures one optional component.
type FeatureSettings struct {
	Enabled     bool   `yaml:"enabled"`
	Description string `yaml:"description"`
}

// Enabled reports whether the named feature is switched on. Unknown features
// default to enabled so a missing file never disables the platform.
func (f *Features) Enabled(name string) bool {
	if f == nil || f.Services == nil {
		return true
	}
	settings, ok := f.Services[name]
	if !ok {
		return true
	}
	return settings.Enabled
}

// LoadFeatures parses the YAML features file at path.
func LoadFeatures(path string) (*Features, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read features config: %w", err)
	}

	var f Features
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse features config: %w", err)
	}
	return &f, nil
}

// LoadFeaturesOrDefault returns the parsed features file or the default
// (everything enabled) when the file is absent.
func LoadFeaturesOrDefault(path string) *Features {
	f, err := LoadFeatures(path)
	if err != nil {
		return DefaultFeatures()
	}
	return f
}

// DefaultFeatures enables every optional component.
func DefaultFeatures() *Features {
	return &Features{
		Services: map[string]*FeatureSettings{
			"ingest":      {Enabled: true, Description: "External stats feed ingestion"},
			"live-scores": {Enabled: true, Description: "Live score websocket hub"},
			"projections": {Enabled: true, Description: "Projection engine"},
		},
	}
}
