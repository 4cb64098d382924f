package dto

import "time"

// TokenRequest exchanges client credentials for a token.
type TokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// AuthResponse returned on successful authentication.
type AuthResponse struct {
	Token     string    `json:"access_token"`
	TokenType string    `json:"token_type"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}
