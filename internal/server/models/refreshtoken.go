package models

import "time"

// RefreshToken is the ledger record backing an outstanding refresh token.
// A refresh token is usable only while a matching, unexpired record exists;
// deleting the record is how revocation works.
type RefreshToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}
