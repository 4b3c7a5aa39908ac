package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := parse(envFrom(map[string]string{
		"DATABASE_URL": "postgres://localhost/oink",
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, int64(1000), cfg.DefaultBalance)
	assert.Equal(t, int64(10), cfg.CheckinReward)
	assert.Equal(t, "guest_", cfg.GuestFIDPrefix)
	assert.Equal(t, 5*time.Second, cfg.DBTimeout)
	assert.Equal(t, time.Minute, cfg.APIRateWindow)
	assert.False(t, cfg.StreakBonusEnabled)
	assert.Empty(t, cfg.JWTSecret)
}

func TestParse_RequiresDatabaseURL(t *testing.T) {
	_, err := parse(envFrom(map[string]string{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestParse_Overrides(t *testing.T) {
	cfg, err := parse(envFrom(map[string]string{
		"DATABASE_URL":         "postgres://localhost/oink",
		"APP_PORT":             "9090",
		"DEFAULT_BALANCE":      "0",
		"CHECKIN_REWARD":       "25",
		"STREAK_BONUS_ENABLED": "true",
		"GUEST_FID_PREFIX":     "anon-",
		"DB_TIMEOUT_SECONDS":   "2",
		"REDIS_DB":             "3",
		"LOG_LEVEL":            "DEBUG",
	}))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.AppPort)
	assert.Equal(t, int64(0), cfg.DefaultBalance)
	assert.Equal(t, int64(25), cfg.CheckinReward)
	assert.True(t, cfg.StreakBonusEnabled)
	assert.Equal(t, "anon-", cfg.GuestFIDPrefix)
	assert.Equal(t, 2*time.Second, cfg.DBTimeout)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestParse_RejectsInvalidNumbers(t *testing.T) {
	cases := map[string]string{
		"CHECKIN_REWARD":     "0",
		"DEFAULT_BALANCE":    "-5",
		"DB_TIMEOUT_SECONDS": "soon",
		"API_RATE_LIMIT":     "0",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			_, err := parse(envFrom(map[string]string{
				"DATABASE_URL": "postgres://localhost/oink",
				key:            value,
			}))
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}
