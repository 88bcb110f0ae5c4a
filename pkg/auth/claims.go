package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID      uuid.UUID
	DisplayName string
	Roles       []string
	JTI         string
}

// AccessTokenClaims represents the typed JWT issued to clients. Roles carry
// the fine-grained names; clients derive the coarse bucket themselves.
type AccessTokenClaims struct {
	UserID      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name,omitempty"`
	Roles       []string  `json:"roles"`
	jwt.RegisteredClaims
}
