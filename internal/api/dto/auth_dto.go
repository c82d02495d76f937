package dto

import "time"

// TokenRequest payload for POST /auth/token.
type TokenRequest struct {
	UserID int64  `json:"user_id"`
	APIKey string `json:"api_key"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
