// Package services contains server-side business logic. This file implements
// UserService, which orchestrates registration, login, token refresh and
// logout over the user directory, the refresh-token ledger, the password
// hasher and the token codec.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dberzins/userauth/internal/common"
	"github.com/dberzins/userauth/internal/server/auth"
	"github.com/dberzins/userauth/internal/server/models"
	"github.com/dberzins/userauth/internal/server/password"
	"github.com/dberzins/userauth/internal/server/repositories/refreshtokens"
	"github.com/dberzins/userauth/internal/server/repositories/users"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// UserService provides authentication-related operations:
//   - Register: create users and mint their first token pair
//   - Login: verify credentials and mint tokens
//   - Refresh: rotate refresh tokens and mint new pairs
//   - Logout: revoke a refresh token
//   - Authenticate: resolve a bearer access token to a user
type UserService struct {
	users      users.Repository
	tokens     refreshtokens.Repository
	codec      *auth.Codec
	bcryptCost int

	// dummyHash is compared against on the unknown-email login path so that
	// path costs a bcrypt verification too, keeping account enumeration by
	// timing off the table.
	dummyHash string
}

// NewUserService constructs a UserService over the given repositories and
// token codec.
func NewUserService(u users.Repository, t refreshtokens.Repository, codec *auth.Codec, bcryptCost int) (*UserService, error) {
	dummy, err := password.Hash(string(common.GenerateRandByteArray(16)), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &UserService{
		users:      u,
		tokens:     t,
		codec:      codec,
		bcryptCost: bcryptCost,
		dummyHash:  dummy,
	}, nil
}

// Register creates a new user and returns it together with its first token
// pair. An existing active identity with the same email yields
// common.ErrEmailAlreadyExists.
func (s *UserService) Register(ctx context.Context, email, plaintext, firstName, lastName string) (*models.User, *TokenPair, error) {
	// hashing is CPU-bound; it happens before any storage interaction
	hash, err := password.Hash(plaintext, s.bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
	})
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.issueTokenPair(ctx, user.ID, user.Email)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Login verifies the email/password pair and, on success, stamps the last
// authentication time and mints a fresh token pair. Unknown email and wrong
// password are indistinguishable to the caller: both return
// common.ErrInvalidCredentials. Earlier sessions stay valid; concurrent
// logins from several devices are allowed.
func (s *UserService) Login(ctx context.Context, email, plaintext string) (*models.User, *TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			password.Verify(plaintext, s.dummyHash)
			return nil, nil, common.ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !password.Verify(plaintext, user.PasswordHash) {
		return nil, nil, common.ErrInvalidCredentials
	}

	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		return nil, nil, err
	}

	pair, err := s.issueTokenPair(ctx, user.ID, user.Email)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh validates a refresh token, rotates its ledger record, and returns
// a fresh TokenPair. A token whose signature verifies but whose ledger
// record is gone (revoked, expired, or consumed by a concurrent refresh)
// fails with common.ErrInvalidToken: this is the revocation path.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.codec.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnknownUser
		}
		return nil, err
	}

	access, err := s.codec.IssueAccess(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	newRefresh, err := s.codec.IssueRefresh(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	// single-use rotation: the ledger consumes the old record and stores the
	// new one atomically, so of two concurrent refreshes exactly one wins
	if err := s.tokens.Rotate(ctx, user.ID, refreshToken, newRefresh, s.codec.RefreshValidity()); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: newRefresh}, nil
}

// Logout revokes the presented refresh token. Revoking a token that is
// already gone is fine; sign-out is idempotent. Other outstanding sessions
// of the same user are left untouched.
func (s *UserService) Logout(ctx context.Context, userID, refreshToken string) error {
	return s.tokens.Delete(ctx, userID, refreshToken)
}

// Authenticate resolves a bearer access token to its user. Any token problem
// yields common.ErrInvalidToken; a valid token whose subject is missing or
// deactivated yields common.ErrUnknownUser. State is re-read on every call;
// nothing is cached across requests.
func (s *UserService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.codec.VerifyAccess(accessToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnknownUser
		}
		return nil, err
	}
	return user, nil
}

// Profile returns the user for the given id.
func (s *UserService) Profile(ctx context.Context, userID string) (*models.User, error) {
	return s.users.FindByID(ctx, userID)
}

// SweepExpiredTokens removes all expired ledger records and reports how many
// were dropped. Meant to be invoked periodically by the app, not per request.
func (s *UserService) SweepExpiredTokens(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpired(ctx)
}

func (s *UserService) issueTokenPair(ctx context.Context, userID, email string) (*TokenPair, error) {
	access, err := s.codec.IssueAccess(userID, email)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.codec.IssueRefresh(userID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	// if persisting fails the whole operation fails; a token that was minted
	// but never recorded is never returned to the caller
	if err := s.tokens.Create(ctx, userID, refresh, s.codec.RefreshValidity()); err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
