package domain

import (
	"errors"
	"time"
)

// User represents a back-office user
type User struct {
	ID             string
	Email          string
	Name           string
	Role           Role
	HashedPassword string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Active         bool
}

// Role represents a user's access level
type Role string

const (
	// RoleAdmin has full access, including user management
	RoleAdmin Role = "Admin"

	// RoleMaker records deals and reconciliations and only sees deals it created
	RoleMaker Role = "Maker"

	// RoleChecker reviews and approves deals across all makers
	RoleChecker Role = "Checker"
)

var validRoles = map[Role]bool{
	RoleAdmin:   true,
	RoleMaker:   true,
	RoleChecker: true,
}

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return validRoles[r]
}

// CanManageUsers checks if the role can create users
func (r Role) CanManageUsers() bool {
	return r == RoleAdmin
}

// CanChangeDealStatus checks if the role may approve or reject deals
func (r Role) CanChangeDealStatus() bool {
	return r == RoleAdmin || r == RoleChecker
}

// SeesOnlyOwnDeals reports whether deal listings are restricted to the caller's deals.
func (r Role) SeesOnlyOwnDeals() bool {
	return r == RoleMaker
}

// Actor identifies the authenticated user performing an operation.
type Actor struct {
	UserID string
	Role   Role
}

// Authentication errors
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrInsufficientRole   = errors.New("insufficient role for this operation")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidOTP         = errors.New("invalid or expired otp")
)
