package model

import (
	"github.com/google/uuid"
)

// Principal is the authenticated identity attached to a request, whichever
// credential it arrived with.
type Principal struct {
	UserID      uuid.UUID `json:"userId"`
	Role        Role      `json:"role"`
	DisplayName string    `json:"name"`
	Email       string    `json:"email"`
}

func (p Principal) Is(roles ...Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

func (p Principal) Summary() UserSummary {
	return UserSummary{ID: p.UserID, Name: p.DisplayName, Email: p.Email, Role: p.Role}
}

// AuthRequest types
type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

// AuthResponse types
type TokenResponse struct {
	AccessToken string      `json:"accessToken"`
	TokenType   string      `json:"tokenType"`
	ExpiresIn   int64       `json:"expiresIn"`
	User        UserSummary `json:"user"`
}
