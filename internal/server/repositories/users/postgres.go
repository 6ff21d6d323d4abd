package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dberzins/userauth/internal/common"
	"github.com/dberzins/userauth/internal/server/models"
)

const uniqueViolation = "23505"

// PostgresRepository implements the user directory over a relational table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository constructs a repository bound to the given database.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user row and returns it with the storage defaults
// (flags, timestamps) filled in.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (id, email, password, first_name, last_name)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_verified, is_active, created_at, updated_at
	`
	id := uuid.NewString()
	err := r.db.QueryRowContext(ctx, query,
		id, user.Email, user.PasswordHash, user.FirstName, user.LastName).
		Scan(&user.ID, &user.IsVerified, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("%w: insert user: %v", common.ErrStorageUnavailable, err)
	}
	return user, nil
}

// FindByEmail returns the active user with the given email.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, password, first_name, last_name,
		       is_verified, is_active, created_at, updated_at, last_login
		FROM users
		WHERE email = $1 AND is_active = TRUE
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

// FindByID returns the active user with the given id.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, email, password, first_name, last_name,
		       is_verified, is_active, created_at, updated_at, last_login
		FROM users
		WHERE id = $1 AND is_active = TRUE
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

// TouchLastLogin stamps the user's last successful authentication.
func (r *PostgresRepository) TouchLastLogin(ctx context.Context, id string) error {
	query := `
		UPDATE users SET last_login = now(), updated_at = now()
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("%w: update last login: %v", common.ErrStorageUnavailable, err)
	}
	return nil
}

func (r *PostgresRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var lastLogin sql.NullTime
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName,
		&user.IsVerified, &user.IsActive, &user.CreatedAt, &user.UpdatedAt, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: select user: %v", common.ErrStorageUnavailable, err)
	}
	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}
	return user, nil
}
