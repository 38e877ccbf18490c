package auth

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/newsdesk/internal/domain"
	"github.com/simp-lee/newsdesk/internal/middleware"
	"github.com/simp-lee/newsdesk/internal/pkg"
)

// Releaser drops per-session state when a session ends. liveview.Handler
// satisfies it.
type Releaser interface {
	Release(c *gin.Context)
}

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// PageHandler serves the login page and sign-out.
type PageHandler struct {
	accounts domain.AuthProvider
	cookie   CookieConfig
	views    []Releaser
	log      *slog.Logger
}

// NewPageHandler creates a PageHandler. views are released on sign-out.
func NewPageHandler(accounts domain.AuthProvider, cookie CookieConfig, logger *slog.Logger, views ...Releaser) *PageHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PageHandler{accounts: accounts, cookie: cookie, views: views, log: logger}
}

// LoginPage renders the sign-in form.
// GET /login
func (h *PageHandler) LoginPage(c *gin.Context) {
	h.render(c, http.StatusOK, "", "", c.Query("next"))
}

// Login signs in and sets the session cookie.
// POST /login
func (h *PageHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		h.render(c, http.StatusBadRequest, "Email and password are required.", req.Email, req.Next)
		return
	}

	creds, err := h.accounts.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if domain.IsUnauthorized(err) {
			h.render(c, http.StatusUnauthorized, "Invalid email or password.", req.Email, req.Next)
			return
		}
		h.log.ErrorContext(c.Request.Context(), "sign-in failed", slog.Any("error", err))
		h.render(c, domain.HTTPStatusCode(err), "Sign-in is unavailable, please try again.", req.Email, req.Next)
		return
	}

	h.setCookie(c, creds.Token, time.Until(creds.ExpiresAt))
	pkg.Redirect(c, safeNext(req.Next))
}

// Logout revokes the session, drops its live views and clears the cookie.
// POST /logout
func (h *PageHandler) Logout(c *gin.Context) {
	token := middleware.SessionToken(c, h.cookie.Name)
	if err := h.accounts.SignOut(c.Request.Context(), token); err != nil {
		h.log.WarnContext(c.Request.Context(), "sign-out failed", slog.Any("error", err))
	}
	for _, v := range h.views {
		v.Release(c)
	}
	h.setCookie(c, "", -1)
	pkg.Redirect(c, "/login")
}

func (h *PageHandler) render(c *gin.Context, status int, errMsg, email, next string) {
	c.HTML(status, "auth/login.html", gin.H{
		"Title":     "Sign in",
		"Error":     errMsg,
		"Email":     email,
		"Next":      safeNext(next),
		"CSRFToken": middleware.GetCSRFToken(c),
	})
}

func (h *PageHandler) setCookie(c *gin.Context, token string, ttl time.Duration) {
	maxAge := -1
	if ttl > 0 {
		maxAge = int(ttl.Seconds())
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, maxAge, "/", "", h.cookie.Secure, true)
}

// safeNext keeps redirects on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
