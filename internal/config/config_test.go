package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_MemoryDriverNeedsNoDatabase(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("ADMIN_USERNAME", "admin")
	t.Setenv("ADMIN_PASSWORD", "s3cret")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
	assert.Equal(t, "logs/tickets.log", cfg.AuditLogPath)
	assert.True(t, cfg.AdminConfigured())
}

func TestFromEnv_MySQLReportsEveryMissingVar(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mysql")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "")
	t.Setenv("DB_NAME", "")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_USER")
	assert.Contains(t, err.Error(), "DB_PORT")
	assert.Contains(t, err.Error(), "DB_NAME")
	assert.NotContains(t, err.Error(), "DB_HOST")
}

func TestFromEnv_UnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	_, err := FromEnv()
	assert.ErrorContains(t, err, "STORE_DRIVER")
}

func TestFromEnv_AdminWithoutPasswordIsUnconfigured(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("ADMIN_USERNAME", "admin")
	t.Setenv("ADMIN_PASSWORD", "")
	t.Setenv("ADMIN_PASSWORD_HASH", "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.False(t, cfg.AdminConfigured())
}

func TestLoadRateLimitConfig_Clamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.Equal(t, 2*time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Second, cfg.TTL)
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head ,")
	t.Setenv("CACHE_ENABLED", "off")

	cfg := LoadCacheConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cfg.Methods)
	assert.Equal(t, "bus:cache", cfg.Prefix)
}

func TestLoadRedisConfig_HostPortWinsOverAddr(t *testing.T) {
	t.Setenv("REDIS_ADDR", "elsewhere:1")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_TLS", "1")

	cfg := LoadRedisConfig()
	assert.Equal(t, "cache:6380", cfg.Addr)
	assert.True(t, cfg.TLS)
	assert.Nil(t, NewRedisClient(RedisConfig{Enabled: false}))
}
