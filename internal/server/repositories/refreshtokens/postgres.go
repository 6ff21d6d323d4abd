package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dberzins/userauth/internal/common"
	"github.com/dberzins/userauth/internal/dbx"
)

// PostgresRepository implements the ledger over a relational table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository constructs a repository bound to the given database.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new ledger record with an expiry time of now+validity.
func (r *PostgresRepository) Create(ctx context.Context, userID, token string, validity time.Duration) error {
	return create(ctx, r.db, userID, token, validity)
}

// create is shared between Create and the rotation transaction.
func create(ctx context.Context, db dbx.DBTX, userID, token string, validity time.Duration) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token, expires_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := db.ExecContext(ctx, query, uuid.NewString(), userID, token, time.Now().Add(validity)); err != nil {
		return fmt.Errorf("%w: insert refresh token: %v", common.ErrStorageUnavailable, err)
	}
	return nil
}

// IsActive reports whether a matching, unexpired record exists.
func (r *PostgresRepository) IsActive(ctx context.Context, userID, token string) (bool, error) {
	query := `
		SELECT 1 FROM refresh_tokens
		WHERE user_id = $1 AND token = $2 AND expires_at > now()
	`
	var one int
	if err := r.db.QueryRowContext(ctx, query, userID, token).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("%w: select refresh token: %v", common.ErrStorageUnavailable, err)
	}
	return true, nil
}

// Delete removes the matching record; removing nothing is not an error.
func (r *PostgresRepository) Delete(ctx context.Context, userID, token string) error {
	query := `
		DELETE FROM refresh_tokens
		WHERE user_id = $1 AND token = $2
	`
	if _, err := r.db.ExecContext(ctx, query, userID, token); err != nil {
		return fmt.Errorf("%w: delete refresh token: %v", common.ErrStorageUnavailable, err)
	}
	return nil
}

// DeleteExpired removes all expired records and returns the count removed.
func (r *PostgresRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE expires_at <= now()
	`
	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("%w: delete expired refresh tokens: %v", common.ErrStorageUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: rows affected: %v", common.ErrStorageUnavailable, err)
	}
	return n, nil
}

// Rotate consumes the old record and inserts the new one in a single
// transaction. The delete carries the expiry guard, so an expired or
// already-consumed record rotates nowhere: RowsAffected is the
// compare-and-delete check that makes concurrent rotations of the same
// token produce exactly one winner.
func (r *PostgresRepository) Rotate(ctx context.Context, userID, oldToken, newToken string, validity time.Duration) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		query := `
			DELETE FROM refresh_tokens
			WHERE user_id = $1 AND token = $2 AND expires_at > now()
		`
		res, err := tx.ExecContext(ctx, query, userID, oldToken)
		if err != nil {
			return fmt.Errorf("%w: consume refresh token: %v", common.ErrStorageUnavailable, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("%w: rows affected: %v", common.ErrStorageUnavailable, err)
		}
		if n == 0 {
			return common.ErrInvalidToken
		}
		return create(ctx, tx, userID, newToken, validity)
	})
}
