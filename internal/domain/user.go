package domain

import (
	"context"
	"errors"
	"strings"
	"time"
)

// User represents a system user
type User struct {
	ID             string
	Email          string
	FirstName      string
	LastName       string
	Phone          string
	Role           Role
	Verified       bool
	Active         bool
	HashedPassword string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Role represents a user's access level
type Role string

const (
	// RoleCustomer owns accounts and moves their own money
	RoleCustomer Role = "customer"

	// RoleManager can view the admin console and settle transactions
	RoleManager Role = "manager"

	// RoleAdmin has full access to all operations
	RoleAdmin Role = "admin"
)

// Valid roles
var validRoles = map[Role]bool{
	RoleCustomer: true,
	RoleManager:  true,
	RoleAdmin:    true,
}

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return validRoles[r]
}

// IsStaff reports whether the role can use the admin console
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleManager
}

// CanManageUsers checks if the role can change other users' role or status
func (r Role) CanManageUsers() bool {
	return r == RoleAdmin
}

// Authentication errors
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrInsufficientRole   = errors.New("insufficient role for this operation")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserInactive       = errors.New("user is not active")
	ErrInvalidRole        = errors.New("invalid role")
)

type userContextKey struct{}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, u)
}

// UserFromContext returns the authenticated user stored by WithUser.
func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(userContextKey{}).(*User)
	return u, ok && u != nil
}
