package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseEnv() map[string]string {
	return map[string]string{
		"DB_USER":            "app",
		"DB_NAME":            "recipes",
		"JWT_ACCESS_SECRET":  "access",
		"JWT_REFRESH_SECRET": "refresh",
	}
}

func load(t *testing.T, env map[string]string) (Config, error) {
	t.Helper()
	return LoadWith(context.Background(), envconfig.MapLookuper(env))
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(t, baseEnv())
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 168*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, time.Hour, cfg.ResetTokenTTL)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, 5<<20, cfg.Storage.MaxImageBytes)
	assert.Equal(t, "log", cfg.Mail.Transport)
	assert.True(t, cfg.Mail.SMTPTLS)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.CORSOrigins)
	assert.Equal(t, map[string]bool{"GET": true}, cfg.Cache.MethodSet())
	assert.False(t, cfg.IsProd())
}

func TestLoadRejectsInvalid(t *testing.T) {
	env := baseEnv()
	delete(env, "DB_USER")
	_, err := load(t, env)
	assert.Error(t, err)

	env = baseEnv()
	env["JWT_REFRESH_SECRET"] = env["JWT_ACCESS_SECRET"]
	_, err = load(t, env)
	assert.ErrorContains(t, err, "must differ")

	env = baseEnv()
	env["STORAGE_BACKEND"] = "s3"
	_, err = load(t, env)
	assert.ErrorContains(t, err, "S3_BUCKET")

	env = baseEnv()
	env["MAIL_TRANSPORT"] = "smtp"
	_, err = load(t, env)
	assert.ErrorContains(t, err, "SMTP_HOST")

	env = baseEnv()
	env["MAIL_TRANSPORT"] = "pigeon"
	_, err = load(t, env)
	assert.Error(t, err)
}

func TestRateLimitNormalize(t *testing.T) {
	rl := RateLimitConfig{Burst: 5, RefillEvery: 2 * time.Second, TTL: time.Second}.normalize()
	assert.Equal(t, 5, rl.Capacity)
	assert.Equal(t, 1, rl.RefillTokens)
	assert.Equal(t, 2*time.Second, rl.RefillInterval)
	assert.Equal(t, 10*time.Second, rl.TTL)

	rl = RateLimitConfig{}.normalize()
	assert.Equal(t, 1, rl.Capacity)
	assert.Equal(t, time.Second, rl.RefillInterval)
	assert.Equal(t, 5*time.Second, rl.TTL)
}

func TestRedisAddress(t *testing.T) {
	assert.Equal(t, "cache:6380", RedisConfig{Host: "cache", Port: "6380", Addr: "ignored:1"}.Address())
	assert.Equal(t, "localhost:6379", RedisConfig{Addr: "localhost:6379"}.Address())
}
