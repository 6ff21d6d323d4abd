package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dberzins/userauth/internal/server/migrations"
	"github.com/dberzins/userauth/internal/server/repositories/refreshtokens"
	"github.com/dberzins/userauth/internal/server/repositories/users"
)

// PostgresManager runs the repositories over database/sql with the pgx
// stdlib driver.
type PostgresManager struct {
	dsn    string
	db     *sql.DB
	users  *users.PostgresRepository
	tokens *refreshtokens.PostgresRepository
}

func NewPostgresManager(dsn string) *PostgresManager {
	return &PostgresManager{dsn: dsn}
}

// Init opens the pool, verifies connectivity, and applies the embedded goose
// migrations.
func (m *PostgresManager) Init(ctx context.Context) error {
	db, err := sql.Open("pgx", m.dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return fmt.Errorf("run migrations: %w", err)
	}

	m.db = db
	m.users = users.NewPostgresRepository(db)
	m.tokens = refreshtokens.NewPostgresRepository(db)
	return nil
}

func (m *PostgresManager) Users() users.Repository                 { return m.users }
func (m *PostgresManager) RefreshTokens() refreshtokens.Repository { return m.tokens }

func (m *PostgresManager) Close() error {
	if m.db == nil {
		return nil
	}
	return m.db.Close()
}

// RunMigrations applies the embedded migrations; also used by
// `authctl migrate`.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}
