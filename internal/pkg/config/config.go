// Package config loads process configuration from the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"

	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

type Config struct {
	Port            string        `env:"PORT,             default=8080"`
	Env             string        `env:"ENV,              default=development"`
	LogLevel        string        `env:"LOG_LEVEL,        default=info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=15s"`
	// StorageBackend selects where principals and audit entries live.
	StorageBackend  string        `env:"STORAGE_BACKEND,  default=mongo"`

	Auth      AuthConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Audit     AuditConfig
	Mongo     MongoConfig
	Redis     RedisConfig
}

type AuthConfig struct {
	JWTSecret     string        `env:"JWT_SECRET, required"`
	Issuer        string        `env:"JWT_ISSUER,             default=realtyhub"`
	Audience      string        `env:"JWT_AUDIENCE,           default=realtyhub-users"`
	AccessTTL     time.Duration `env:"JWT_EXPIRES_IN,         default=24h"`
	RefreshTTL    time.Duration `env:"JWT_REFRESH_EXPIRES_IN, default=168h"`
	BcryptCost    int           `env:"BCRYPT_COST,            default=12"`
	SecureCookies bool          `env:"SECURE_COOKIES,         default=false"`
}

type RateLimitConfig struct {
	Backend       string        `env:"RATE_LIMIT_BACKEND,        default=memory"`
	SweepInterval time.Duration `env:"RATE_LIMIT_SWEEP_INTERVAL, default=1m"`
}

type CORSConfig struct {
	ProductionOrigins  []string `env:"CORS_ORIGINS_PRODUCTION,  delimiter=;, default=https://realtyhub.com;https://www.realtyhub.com"`
	DevelopmentOrigins []string `env:"CORS_ORIGINS_DEVELOPMENT, delimiter=;, default=http://localhost:3000;http://localhost:5173"`
}

type AuditConfig struct {
	Workers   int           `env:"AUDIT_WORKERS,   default=4"`
	Buffer    int           `env:"AUDIT_BUFFER,    default=256"`
	Retention time.Duration `env:"AUDIT_RETENTION, default=2160h"`
}

type MongoConfig struct {
	URI      string        `env:"MONGO_URI,     default=mongodb://localhost:27017"`
	Database string        `env:"MONGO_DB,      default=realtyhub"`
	Timeout  time.Duration `env:"MONGO_TIMEOUT, default=10s"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// IsDevelopment reports whether the process runs outside production.
func (c *Config) IsDevelopment() bool { return c.Env == EnvDevelopment }

// AllowedOrigins returns the CORS origin list for the running environment.
func (c *Config) AllowedOrigins() []string {
	if c.Env == EnvProduction {
		return c.CORS.ProductionOrigins
	}
	return c.CORS.DevelopmentOrigins
}

// Load reads configuration from the process environment. In development a
// .env file in the working directory is applied first; variables already set
// take precedence over it.
func Load(ctx context.Context) (*Config, error) {
	if env := os.Getenv("ENV"); env == "" || env == EnvDevelopment {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: read .env: %w", err)
		}
	}
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration through l and validates it.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	switch c.Env {
	case EnvDevelopment, EnvProduction, EnvTest, "staging":
	default:
		return fmt.Errorf("ENV %q is not one of development, staging, production, test", c.Env)
	}

	c.RateLimit.Backend = strings.ToLower(strings.TrimSpace(c.RateLimit.Backend))
	if c.RateLimit.Backend != BackendMemory && c.RateLimit.Backend != BackendRedis {
		return fmt.Errorf("RATE_LIMIT_BACKEND %q must be %q or %q", c.RateLimit.Backend, BackendMemory, BackendRedis)
	}
	c.StorageBackend = strings.ToLower(strings.TrimSpace(c.StorageBackend))
	if c.StorageBackend != BackendMongo && c.StorageBackend != BackendMemory {
		return fmt.Errorf("STORAGE_BACKEND %q must be %q or %q", c.StorageBackend, BackendMongo, BackendMemory)
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST %d is outside 4..31", c.Auth.BcryptCost)
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		return errors.New("JWT_EXPIRES_IN and JWT_REFRESH_EXPIRES_IN must be positive")
	}
	return nil
}
