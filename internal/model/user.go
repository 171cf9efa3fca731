package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Role is the single access role of a user.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

// ParseRole accepts a role name in any case.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// IsElevated reports staff or admin privilege.
func (r Role) IsElevated() bool {
	return r == RoleStaff || r == RoleAdmin
}

// User represents a system user
type User struct {
	Base
	FirstName    string `json:"firstName" db:"first_name"`
	LastName     string `json:"lastName" db:"last_name"`
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"`
	Verified     bool   `json:"verified" db:"verified"`
	Role         Role   `json:"role" db:"role"`
	Phone        string `json:"phone,omitempty" db:"phone"`
	Address      string `json:"address,omitempty" db:"address"`
}

func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Principal returns the identity carried by requests made by u.
func (u *User) Principal() Principal {
	return Principal{
		UserID:      u.ID,
		Role:        u.Role,
		DisplayName: u.DisplayName(),
		Email:       u.Email,
	}
}

// NormalizeEmail lower-cases and trims an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserFilter represents user search parameters
type UserFilter struct {
	Role       Role   `form:"role"`
	SearchTerm string `form:"q"`
	Pagination
}

// CreateUserRequest represents user creation parameters
type CreateUserRequest struct {
	FirstName        string `json:"firstName" binding:"required"`
	LastName         string `json:"lastName" binding:"required"`
	Email            string `json:"email" binding:"required,email"`
	Password         string `json:"password" binding:"required,min=8"`
	Role             string `json:"role" binding:"required,oneof=patient doctor staff admin"`
	Phone            string `json:"phone"`
	Address          string `json:"address"`
	SpecializationID string `json:"specializationId" binding:"omitempty,uuid"`
	Description      string `json:"description"`
}

// UserSummary is the identity view returned by /getUser.
type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  Role      `json:"role"`
}

// RegisterRequest is a patient self sign-up.
type RegisterRequest struct {
	FirstName string `json:"firstName" form:"firstName" binding:"required"`
	LastName  string `json:"lastName" form:"lastName" binding:"required"`
	Email     string `json:"email" form:"email" binding:"required,email"`
	Password  string `json:"password" form:"password" binding:"required,min=8"`
	Phone     string `json:"phone" form:"phone"`
	Address   string `json:"address" form:"address"`
}
