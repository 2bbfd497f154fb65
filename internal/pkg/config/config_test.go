package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realtyhub/marketplace-api/internal/core/service"
)

func load(t *testing.T, env map[string]string) (*Config, error) {
	t.Helper()
	return LoadFrom(context.Background(), envconfig.MapLookuper(env))
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(t, map[string]string{"JWT_SECRET": "s3cret"})
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, 24*time.Hour, cfg.Auth.AccessTTL)
	assert.Equal(t, BackendMemory, cfg.RateLimit.Backend)
	assert.Equal(t, BackendMongo, cfg.StorageBackend)
	assert.Equal(t, 4, cfg.Audit.Workers)
	assert.Equal(t, "realtyhub", cfg.Mongo.Database)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.AllowedOrigins())
}

func TestLoad_TokenDefaultsMatchCredentialService(t *testing.T) {
	cfg, err := load(t, map[string]string{"JWT_SECRET": "s3cret"})
	require.NoError(t, err)

	assert.Equal(t, service.DefaultIssuer, cfg.Auth.Issuer)
	assert.Equal(t, service.DefaultAudience, cfg.Auth.Audience)
	assert.Equal(t, service.DefaultBcryptCost, cfg.Auth.BcryptCost)
}

func TestLoad_RequiresSecret(t *testing.T) {
	_, err := load(t, map[string]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_ProductionOrigins(t *testing.T) {
	cfg, err := load(t, map[string]string{
		"JWT_SECRET":              "s3cret",
		"ENV":                     "Production",
		"CORS_ORIGINS_PRODUCTION": "https://a.example;https://b.example",
	})
	require.NoError(t, err)

	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins())
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown env":     {"ENV": "qa"},
		"unknown backend": {"RATE_LIMIT_BACKEND": "memcached"},
		"unknown storage": {"STORAGE_BACKEND": "postgres"},
		"bcrypt too low":  {"BCRYPT_COST": "3"},
		"zero ttl":        {"JWT_EXPIRES_IN": "0s"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			env["JWT_SECRET"] = "s3cret"
			_, err := load(t, env)
			assert.Error(t, err)
		})
	}
}
