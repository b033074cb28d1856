package configs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8084", cfg.AppPort)
	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, 1000, cfg.CacheMaxEntries)
	assert.Equal(t, "interactions.events", cfg.KafkaTopic)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("RECO_APP_PORT", ":9999")
	t.Setenv("RECO_DB_HOST", "pg.internal")
	t.Setenv("RECO_CACHE_MAX_ENTRIES", "250")
	t.Setenv("RECO_AUTO_MIGRATE", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.AppPort)
	assert.Equal(t, "pg.internal", cfg.DBHost)
	assert.Equal(t, 250, cfg.CacheMaxEntries)
	assert.False(t, cfg.AutoMigrate)
}

func TestDSN(t *testing.T) {
	cfg := Config{
		DBHost: "h", DBPort: "5433", DBUser: "u", DBPass: "p", DBName: "d",
	}
	assert.Equal(t, "host=h port=5433 user=u password=p dbname=d sslmode=disable", cfg.DSN())
}

func TestRedisAddr(t *testing.T) {
	cfg := Config{RedisHost: "r", RedisPort: "6380"}
	assert.Equal(t, "r:6380", cfg.RedisAddr())
}
