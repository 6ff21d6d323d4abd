package repomanager

import (
	"context"
	"fmt"

	"github.com/dberzins/userauth/internal/filex"
	"github.com/dberzins/userauth/internal/server/repositories/refreshtokens"
	"github.com/dberzins/userauth/internal/server/repositories/users"
)

// FileManager runs the repositories over flat JSON files in a data
// directory. Suitable for development and small single-node deployments.
type FileManager struct {
	dataDir string
	users   *users.FileRepository
	tokens  *refreshtokens.FileRepository
}

func NewFileManager(dataDir string) *FileManager {
	return &FileManager{dataDir: dataDir}
}

// Init ensures the data directory exists and creates the JSON stores.
func (m *FileManager) Init(ctx context.Context) error {
	dir, err := filex.EnsureDir(m.dataDir)
	if err != nil {
		return fmt.Errorf("ensure data dir: %w", err)
	}

	u, err := users.NewFileRepository(dir)
	if err != nil {
		return err
	}
	t, err := refreshtokens.NewFileRepository(dir)
	if err != nil {
		return err
	}

	m.users = u
	m.tokens = t
	return nil
}

func (m *FileManager) Users() users.Repository                 { return m.users }
func (m *FileManager) RefreshTokens() refreshtokens.Repository { return m.tokens }

func (m *FileManager) Close() error { return nil }
