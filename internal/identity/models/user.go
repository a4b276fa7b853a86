// Package models defines the identity domain types.
package models

import (
	"time"

	id "graminsetu/pkg/domain"
)

// Role is the authorization role of an account.
type Role string

const (
	RoleFarmer Role = "farmer"
	RoleAdmin  Role = "admin"
)

// IsValid reports whether the role is one of the known values.
func (r Role) IsValid() bool {
	return r == RoleFarmer || r == RoleAdmin
}

// User is a registered account. PasswordHash always holds a bcrypt hash;
// plain-text passwords never leave the service layer.
type User struct {
	ID           id.UserID
	Name         string
	Email        string
	Phone        string
	Village      string
	District     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session is the result of a successful authentication.
type Session struct {
	Token string
	User  *User
}
