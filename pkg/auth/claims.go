package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Role is the actor role carried in an access token. Players hit the public
// balance endpoints; admins may issue corrections; services are trusted game
// backends allowed to settle bets.
type Role string

const (
	RolePlayer  Role = "player"
	RoleAdmin   Role = "admin"
	RoleService Role = "service"
)

// IsValid reports whether the role is recognized.
func (r Role) IsValid() bool {
	switch r {
	case RolePlayer, RoleAdmin, RoleService:
		return true
	}
	return false
}

// AccessTokenClaims is the typed JWT issued by the accounts service and
// verified here.
type AccessTokenClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Role   Role      `json:"role"`
	jwt.RegisteredClaims
}
