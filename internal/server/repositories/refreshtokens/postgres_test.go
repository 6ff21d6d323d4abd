package refreshtokens

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/dberzins/userauth/internal/common"
)

func newMockRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func TestPostgresCreate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO refresh_tokens").
		WithArgs(sqlmock.AnyArg(), "user-1", "tok-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), "user-1", "tok-1", time.Hour)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreate_DBError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO refresh_tokens").
		WillReturnError(context.DeadlineExceeded)

	err := repo.Create(context.Background(), "user-1", "tok-1", time.Hour)
	require.ErrorIs(t, err, common.ErrStorageUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresIsActive(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT 1 FROM refresh_tokens").
		WithArgs("user-1", "tok-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	active, err := repo.IsActive(context.Background(), "user-1", "tok-1")
	require.NoError(t, err)
	require.True(t, active)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresIsActive_NoRecord(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT 1 FROM refresh_tokens").
		WithArgs("user-1", "gone").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	active, err := repo.IsActive(context.Background(), "user-1", "gone")
	require.NoError(t, err)
	require.False(t, active)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDelete(t *testing.T) {
	repo, mock := newMockRepo(t)

	// zero rows affected is still a success: sign-out is idempotent
	mock.ExpectExec("DELETE FROM refresh_tokens").
		WithArgs("user-1", "tok-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "user-1", "tok-1")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeleteExpired(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("DELETE FROM refresh_tokens").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteExpired(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRotate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM refresh_tokens").
		WithArgs("user-1", "old-tok").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO refresh_tokens").
		WithArgs(sqlmock.AnyArg(), "user-1", "new-tok", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Rotate(context.Background(), "user-1", "old-tok", "new-tok", time.Hour)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRotate_ConsumedToken(t *testing.T) {
	repo, mock := newMockRepo(t)

	// the delete matches nothing, so the transaction rolls back and
	// no replacement record is written
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM refresh_tokens").
		WithArgs("user-1", "old-tok").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Rotate(context.Background(), "user-1", "old-tok", "new-tok", time.Hour)
	require.ErrorIs(t, err, common.ErrInvalidToken)
	require.NoError(t, mock.ExpectationsWereMet())
}
