package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config values from the environment. A .env file in the
// working directory is loaded first if present (it never overrides variables
// already set in the real environment).
//
// Recognized variables:
//
//	ADDRESS                bind address, e.g. ":8080"
//	STORAGE_BACKEND        "file" or "postgres"
//	DATA_DIR               data directory for the file backend
//	DATABASE_DSN           PostgreSQL DSN
//	JWT_SECRET             access-token signing secret
//	JWT_REFRESH_SECRET     refresh-token signing secret
//	JWT_EXPIRES_IN         access-token lifetime ("15m")
//	JWT_REFRESH_EXPIRES_IN refresh-token lifetime ("720h")
//	BCRYPT_ROUNDS          bcrypt work factor
//	TOKEN_ISSUER           JWT issuer string
//	TOKEN_AUDIENCE         JWT audience string
//	SWEEP_INTERVAL         expired-token sweep period ("1h")
//	SENTRY_DSN             error reporting DSN (empty disables sentry)
func parseEnv(config *Config) {
	_ = godotenv.Load()

	setString := func(name string, dst *string) {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*dst = v
		}
	}
	setDuration := func(name string, dst *time.Duration) {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}

	setString("ADDRESS", &config.EndpointAddr)
	setString("STORAGE_BACKEND", &config.StorageBackend)
	setString("DATA_DIR", &config.DataDir)
	setString("DATABASE_DSN", &config.DatabaseDSN)
	setString("JWT_SECRET", &config.AccessSecret)
	setString("JWT_REFRESH_SECRET", &config.RefreshSecret)
	setDuration("JWT_EXPIRES_IN", &config.AccessTokenValidityDuration)
	setDuration("JWT_REFRESH_EXPIRES_IN", &config.RefreshTokenValidityDuration)
	setString("TOKEN_ISSUER", &config.TokenIssuer)
	setString("TOKEN_AUDIENCE", &config.TokenAudience)
	setDuration("SWEEP_INTERVAL", &config.SweepInterval)
	setString("SENTRY_DSN", &config.SentryDSN)

	if v, ok := os.LookupEnv("BCRYPT_ROUNDS"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.BcryptCost = n
		}
	}
}
