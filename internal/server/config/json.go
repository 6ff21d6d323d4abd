package config

import (
	"encoding/json"
	"os"

	"github.com/dberzins/userauth/internal/flagx"
	"github.com/dberzins/userauth/internal/timex"
)

// JsonConfig is the intermediate DTO for reading JSON configuration files.
// It uses timex.Duration for lifetime fields so values can be written either
// as strings such as "15m" or as integer nanoseconds. After unmarshalling,
// the set fields are copied into the runtime Config.
type JsonConfig struct {
	EndpointAddr                 string          `json:"endpoint_addr"`
	StorageBackend               string          `json:"storage_backend"`
	DataDir                      string          `json:"data_dir"`
	DatabaseDSN                  string          `json:"database_dsn"`
	AccessSecret                 string          `json:"access_secret"`
	RefreshSecret                string          `json:"refresh_secret"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration"`
	BcryptCost                   *int            `json:"bcrypt_cost"`
	TokenIssuer                  string          `json:"token_issuer"`
	TokenAudience                string          `json:"token_audience"`
	SweepInterval                *timex.Duration `json:"sweep_interval"`
	SentryDSN                    string          `json:"sentry_dsn"`
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config flags into the provided Config. When no file is named, nothing
// happens. An unreadable or invalid file panics: a half-applied config is
// worse than a refused start.
//
// Only fields present in the file override the current values, so the JSON
// layer composes with defaults and the environment.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddr != "" {
		config.EndpointAddr = c.EndpointAddr
	}
	if c.StorageBackend != "" {
		config.StorageBackend = c.StorageBackend
	}
	if c.DataDir != "" {
		config.DataDir = c.DataDir
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.AccessSecret != "" {
		config.AccessSecret = c.AccessSecret
	}
	if c.RefreshSecret != "" {
		config.RefreshSecret = c.RefreshSecret
	}
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration != nil {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.BcryptCost != nil {
		config.BcryptCost = *c.BcryptCost
	}
	if c.TokenIssuer != "" {
		config.TokenIssuer = c.TokenIssuer
	}
	if c.TokenAudience != "" {
		config.TokenAudience = c.TokenAudience
	}
	if c.SweepInterval != nil {
		config.SweepInterval = c.SweepInterval.Duration
	}
	if c.SentryDSN != "" {
		config.SentryDSN = c.SentryDSN
	}
}
