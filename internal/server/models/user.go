// Package models defines the typed storage entities shared by repositories
// and services. Records are validated at the storage boundary; a row that
// does not scan into these structs is an error, not a half-built object.
package models

import "time"

// User is the durable identity record. PasswordHash is the only credential
// material ever stored; it never leaves the service in any response.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"password"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	IsVerified   bool       `json:"isVerified"`
	IsActive     bool       `json:"isActive"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
}

// SafeUser is the outward projection of a User: everything a client may see,
// and nothing it may not.
type SafeUser struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	IsVerified bool       `json:"isVerified"`
	IsActive   bool       `json:"isActive"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastLogin  *time.Time `json:"lastLogin,omitempty"`
}

// Safe returns the projection of u without the password hash.
func (u *User) Safe() *SafeUser {
	return &SafeUser{
		ID:         u.ID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		IsVerified: u.IsVerified,
		IsActive:   u.IsActive,
		CreatedAt:  u.CreatedAt,
		LastLogin:  u.LastLogin,
	}
}
