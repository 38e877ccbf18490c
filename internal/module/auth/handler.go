package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/newsdesk/internal/domain"
	"github.com/simp-lee/newsdesk/internal/middleware"
	"github.com/simp-lee/newsdesk/internal/pkg"
)

// Handler serves the session REST API.
type Handler struct {
	accounts   domain.AuthProvider
	cookieName string
}

// NewHandler creates a Handler. cookieName is the session cookie, also
// accepted by the API next to bearer tokens.
func NewHandler(accounts domain.AuthProvider, cookieName string) *Handler {
	return &Handler{accounts: accounts, cookieName: cookieName}
}

// Login handles POST /api/v1/auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	creds, err := h.accounts.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, TokenResponse{
		Token:     creds.Token,
		ExpiresAt: creds.ExpiresAt.Unix(),
		Session:   creds.Session,
	})
}

// Logout handles POST /api/v1/auth/logout.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.accounts.SignOut(c.Request.Context(), middleware.SessionToken(c, h.cookieName)); err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, nil)
}

// Me handles GET /api/v1/auth/me.
func (h *Handler) Me(c *gin.Context) {
	pkg.Success(c, middleware.CurrentSession(c))
}
