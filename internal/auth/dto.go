package auth

import (
	"github.com/custconnect/custconnect-backend/internal/users"
)

// LoginRequest captures the credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the access token and the authenticated user.
type LoginResponse struct {
	Token string         `json:"token"`
	User  *users.UserDTO `json:"user"`
}

// RegisterRequest contains the payload for creating a community account.
// Accounts always start as STUDENT; vendor and admin roles are granted by an
// operator after verification.
type RegisterRequest struct {
	Email       string  `json:"email" validate:"required,email"`
	Password    string  `json:"password" validate:"required,min=8"`
	DisplayName string  `json:"display_name" validate:"required"`
	Phone       *string `json:"phone,omitempty"`
}

// RegisterResponse echoes the pending account so clients can prompt for the
// emailed verification code.
type RegisterResponse struct {
	User *users.UserDTO `json:"user"`
}

// VerifyRequest carries the one-shot code emailed at registration.
type VerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}
