package auth

import "github.com/simp-lee/newsdesk/internal/domain"

// LoginRequest represents the sign-in form.
type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
	// Next is where the login page sends the browser afterwards.
	Next string `json:"-" form:"next"`
}

// TokenResponse is the result of an API sign-in.
type TokenResponse struct {
	Token     string          `json:"token"`
	ExpiresAt int64           `json:"expires_at"`
	Session   *domain.Session `json:"session"`
}
