package config

import (
	"flag"
	"os"
	"time"

	"github.com/dberzins/userauth/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   bind address (e.g., ":8080")
//	-b string   storage backend ("file" or "postgres")
//	-f string   data directory for the file backend
//	-d string   PostgreSQL DSN
//	-s string   access-token signing secret
//	-p string   refresh-token signing secret
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with the -c/-config flags handled
// by the JSON layer.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-b", "-f", "-d", "-s", "-p", "-t", "-r"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.StorageBackend, "b", config.StorageBackend, "storage backend (file|postgres)")
	fs.StringVar(&config.DataDir, "f", config.DataDir, "data directory for the file backend")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.AccessSecret, "s", config.AccessSecret, "access-token signing secret")
	fs.StringVar(&config.RefreshSecret, "p", config.RefreshSecret, "refresh-token signing secret")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh_token_validity_duration (in minutes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
	config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Minute
}
