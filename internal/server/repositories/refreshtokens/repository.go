// Package refreshtokens declares the refresh-token ledger contract and its
// storage backends. A refresh token is valid only while a matching,
// unexpired record exists here; deleting the record revokes the token.
package refreshtokens

import (
	"context"
	"time"
)

// Repository is the durable ledger of issued refresh tokens.
//
// Failure policy: storage I/O errors wrap common.ErrStorageUnavailable and
// must abort the enclosing operation; implementations never answer an
// activity question off a failed read.
type Repository interface {
	// Create stores a new ledger record for userID with an expiry of
	// now+validity.
	Create(ctx context.Context, userID, token string, validity time.Duration) error

	// IsActive reports whether a record with matching user and token value
	// exists and has not expired.
	IsActive(ctx context.Context, userID, token string) (bool, error)

	// Delete removes the matching record. Deleting a record that is already
	// gone is not an error (idempotent revocation).
	Delete(ctx context.Context, userID, token string) error

	// DeleteExpired removes every record whose expiry has passed and returns
	// the number removed. Intended for a periodic sweep, not per-request use.
	DeleteExpired(ctx context.Context) (int64, error)

	// Rotate atomically consumes the old record and stores the new one.
	// If the old record is absent or expired it returns
	// common.ErrInvalidToken and stores nothing. Of two concurrent
	// rotations of the same token, exactly one succeeds.
	Rotate(ctx context.Context, userID, oldToken, newToken string, validity time.Duration) error
}
