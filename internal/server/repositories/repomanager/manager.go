// Package repomanager selects and bootstraps a storage backend. The rest of
// the server talks to the repository interfaces and stays indifferent to
// whether they are backed by flat JSON files or a relational store.
package repomanager

import (
	"context"
	"fmt"

	"github.com/dberzins/userauth/internal/server/repositories/refreshtokens"
	"github.com/dberzins/userauth/internal/server/repositories/users"
)

// Backend names accepted in configuration.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Manager owns the storage backend lifecycle. Init must run before the
// repository accessors: it connects, migrates or creates the data files,
// and builds the repositories.
type Manager interface {
	Init(ctx context.Context) error
	Users() users.Repository
	RefreshTokens() refreshtokens.Repository
	Close() error
}

// New returns the Manager for the named backend.
func New(backend, databaseDSN, dataDir string) (Manager, error) {
	switch backend {
	case BackendFile:
		return NewFileManager(dataDir), nil
	case BackendPostgres:
		return NewPostgresManager(databaseDSN), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
