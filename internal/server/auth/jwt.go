// Package auth implements the token codec: issuing and verifying the signed
// access and refresh tokens (HS256). Access and refresh tokens are signed
// with separate secrets, so a leaked access token can never be replayed
// against the refresh endpoint.
package auth

import (
	"bytes"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dberzins/userauth/internal/common"
)

// AccessClaims is the claim set carried by access tokens.
type AccessClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
	Email  string `json:"email"`
}

// RefreshClaims is the claim set carried by refresh tokens.
type RefreshClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
}

// Codec issues and verifies both token kinds. Verification is a single
// atomic parse+verify: claims are never returned from a token whose
// signature, expiry, issuer or audience did not check out.
type Codec struct {
	accessSecret    []byte
	refreshSecret   []byte
	accessValidity  time.Duration
	refreshValidity time.Duration
	issuer          string
	audience        string
}

// NewCodec validates the signing configuration and returns a Codec.
// Both secrets must be present and must differ.
func NewCodec(accessSecret, refreshSecret []byte, accessValidity, refreshValidity time.Duration, issuer, audience string) (*Codec, error) {
	if len(accessSecret) == 0 || len(refreshSecret) == 0 {
		return nil, errors.New("token signing secrets must not be empty")
	}
	if bytes.Equal(accessSecret, refreshSecret) {
		return nil, errors.New("access and refresh signing secrets must differ")
	}
	return &Codec{
		accessSecret:    accessSecret,
		refreshSecret:   refreshSecret,
		accessValidity:  accessValidity,
		refreshValidity: refreshValidity,
		issuer:          issuer,
		audience:        audience,
	}, nil
}

// RefreshValidity returns the configured refresh-token lifetime, which also
// bounds the ledger record expiry.
func (c *Codec) RefreshValidity() time.Duration {
	return c.refreshValidity
}

// IssueAccess signs a short-lived access token for the given user.
func (c *Codec) IssueAccess(userID, email string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		RegisteredClaims: c.registeredClaims(now, c.accessValidity),
		UserID:           userID,
		Email:            email,
	})
	return token.SignedString(c.accessSecret)
}

// IssueRefresh signs a long-lived refresh token for the given user.
func (c *Codec) IssueRefresh(userID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, RefreshClaims{
		RegisteredClaims: c.registeredClaims(now, c.refreshValidity),
		UserID:           userID,
	})
	return token.SignedString(c.refreshSecret)
}

// VerifyAccess checks the signature, expiry, issuer and audience of an
// access token and returns its claims. Every failure mode maps to
// common.ErrInvalidToken.
func (c *Codec) VerifyAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := c.verify(tokenString, claims, c.accessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefresh is VerifyAccess for refresh tokens, using the refresh secret.
func (c *Codec) VerifyRefresh(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := c.verify(tokenString, claims, c.refreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (c *Codec) registeredClaims(now time.Time, validity time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		// a unique jti keeps two tokens minted in the same second distinct
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		Issuer:    c.issuer,
		Audience:  jwt.ClaimStrings{c.audience},
	}
}

func (c *Codec) verify(tokenString string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return common.ErrInvalidToken
	}
	return nil
}
