package dto

import (
	"time"

	"github.com/cleantrack/cleantrack-api/internal/domain"
)

// StudentSignupRequest payload for POST /auth/signup/student.
type StudentSignupRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	RoomNumber string `json:"roomNumber"`
}

// CaretakerSignupRequest payload for POST /auth/signup/caretaker.
type CaretakerSignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Floor    *int   `json:"floor"`
}

// VerifyRequest payload for the verify endpoints.
type VerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// LoginRequest payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UserResponse is an account without secrets.
type UserResponse struct {
	ID         string      `json:"_id"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Role       domain.Role `json:"role"`
	RoomNumber *string     `json:"roomNumber,omitempty"`
	Floor      *int        `json:"floor,omitempty"`
	IsVerified bool        `json:"isVerified"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// LoginResponse is returned by POST /auth/login.
type LoginResponse struct {
	Message   string       `json:"message"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

// MessageResponse is the generic acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}

// TokenClaims mirrors the identity carried by a session token.
type TokenClaims struct {
	ID   string      `json:"id"`
	Role domain.Role `json:"role"`
}

// TokenCheckResponse is returned by GET /auth/verify.
type TokenCheckResponse struct {
	Valid bool        `json:"valid"`
	User  TokenClaims `json:"user"`
}
