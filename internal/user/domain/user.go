package domain

import (
	"errors"
	"time"
)

// User is the account that credentials resolve to.
type User struct {
	ID       string
	Email    string // optional; unique when set
	Phone    string // optional; set when the account signs in by phone
	FullName string
	// EmailVerified is true only when an external provider vouched for Email. Accounts are
	// matched by email on first provider login only when this is set.
	EmailVerified bool
	Role          Role
	Status        UserStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// DisplayIdentifier returns the identifier shown to the user: email, else phone, else full name.
func (u *User) DisplayIdentifier() string {
	switch {
	case u.Email != "":
		return u.Email
	case u.Phone != "":
		return u.Phone
	}
	return u.FullName
}

// Validate fills defaults for role and status and rejects unknown values.
// Email and phone are both optional: a user may be reachable only through a provider credential.
func (u *User) Validate() error {
	if u.Role == "" {
		u.Role = RoleCustomer
	}
	if u.Role != RoleCustomer && u.Role != RoleAdmin {
		return errors.New("unknown role")
	}
	if u.Status == "" {
		u.Status = UserStatusActive
	}
	return nil
}
