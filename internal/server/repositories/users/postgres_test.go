package users

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/dberzins/userauth/internal/common"
	"github.com/dberzins/userauth/internal/server/models"
)

func newMockRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

var userColumns = []string{
	"id", "email", "password", "first_name", "last_name",
	"is_verified", "is_active", "created_at", "updated_at", "last_login",
}

func TestPostgresCreate(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), "alice@example.com", "hash", "Alice", "Smith").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "is_verified", "is_active", "created_at", "updated_at"}).
			AddRow("id-1", false, true, now, now))

	user, err := repo.Create(context.Background(), &models.User{
		Email:        "alice@example.com",
		PasswordHash: "hash",
		FirstName:    "Alice",
		LastName:     "Smith",
	})
	require.NoError(t, err)
	require.Equal(t, "id-1", user.ID)
	require.True(t, user.IsActive)
	require.False(t, user.IsVerified)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreate_DuplicateEmail(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	_, err := repo.Create(context.Background(), &models.User{Email: "alice@example.com"})
	require.ErrorIs(t, err, common.ErrEmailAlreadyExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindByEmail(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("id-1", "alice@example.com", "hash", "Alice", "Smith",
				true, true, now, now, now))

	user, err := repo.FindByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, "id-1", user.ID)
	require.NotNil(t, user.LastLogin)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindByEmail_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := repo.FindByEmail(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindByID_NullLastLogin(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("id-1").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("id-1", "alice@example.com", "hash", "Alice", "Smith",
				false, true, now, now, nil))

	user, err := repo.FindByID(context.Background(), "id-1")
	require.NoError(t, err)
	require.Nil(t, user.LastLogin, "a user who never logged in has no last_login")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTouchLastLogin(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE users SET last_login").
		WithArgs("id-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.TouchLastLogin(context.Background(), "id-1")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTouchLastLogin_DBError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE users SET last_login").
		WithArgs("id-1").
		WillReturnError(context.DeadlineExceeded)

	err := repo.TouchLastLogin(context.Background(), "id-1")
	require.ErrorIs(t, err, common.ErrStorageUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}
