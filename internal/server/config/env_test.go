package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseEnv_OverridesDefaults(t *testing.T) {
	t.Setenv("ADDRESS", ":9090")
	t.Setenv("STORAGE_BACKEND", "postgres")
	t.Setenv("JWT_SECRET", "env-access-secret-0123456789-0123456789")
	t.Setenv("JWT_REFRESH_SECRET", "env-refresh-secret-0123456789-0123456789")
	t.Setenv("JWT_EXPIRES_IN", "5m")
	t.Setenv("JWT_REFRESH_EXPIRES_IN", "240h")
	t.Setenv("BCRYPT_ROUNDS", "10")
	t.Setenv("SWEEP_INTERVAL", "30m")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	require.Equal(t, ":9090", cfg.EndpointAddr)
	require.Equal(t, "postgres", cfg.StorageBackend)
	require.Equal(t, "env-access-secret-0123456789-0123456789", cfg.AccessSecret)
	require.Equal(t, "env-refresh-secret-0123456789-0123456789", cfg.RefreshSecret)
	require.Equal(t, 5*time.Minute, cfg.AccessTokenValidityDuration)
	require.Equal(t, 240*time.Hour, cfg.RefreshTokenValidityDuration)
	require.Equal(t, 10, cfg.BcryptCost)
	require.Equal(t, 30*time.Minute, cfg.SweepInterval)
}

func TestParseEnv_IgnoresEmptyAndInvalid(t *testing.T) {
	t.Setenv("ADDRESS", "")
	t.Setenv("JWT_EXPIRES_IN", "not-a-duration")
	t.Setenv("BCRYPT_ROUNDS", "twelve")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	require.Equal(t, ":8080", cfg.EndpointAddr, "empty value must not override the default")
	require.Equal(t, 15*time.Minute, cfg.AccessTokenValidityDuration, "invalid duration must not override")
	require.Equal(t, 12, cfg.BcryptCost, "invalid int must not override")
}
