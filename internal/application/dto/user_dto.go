package dto

import "time"

// LoginRequest body para POST /api/auth/login.
type LoginRequest struct {
	Operator string `json:"operator"`
	Password string `json:"password"`
}

// LoginResponse token del operador.
type LoginResponse struct {
	Token     string    `json:"token"`
	Operator  string    `json:"operator"`
	ExpiresAt time.Time `json:"expires_at"`
}
