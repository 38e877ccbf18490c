package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/newsdesk/internal/domain"
	"github.com/simp-lee/newsdesk/internal/pkg"
)

const (
	sessionContextKey = "session"
	tokenContextKey   = "session_token"
)

// SessionResolver turns a session token into the signed-in staff member.
// domain.AuthProvider satisfies it.
type SessionResolver interface {
	CurrentSession(ctx context.Context, token string) (*domain.Session, error)
}

// RequireSession rejects requests without a valid session. The token is read
// from the named cookie, then from an "Authorization: Bearer" header.
//
// API calls get a 401 JSON response; page requests are redirected to the
// login page, which brings them back afterwards.
func RequireSession(auth SessionResolver, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := SessionToken(c, cookieName)
		if token == "" {
			unauthenticated(c)
			return
		}

		sess, err := auth.CurrentSession(c.Request.Context(), token)
		if err != nil {
			if !domain.IsUnauthorized(err) {
				slog.ErrorContext(c.Request.Context(), "session lookup failed", slog.Any("error", err))
				abortWith(c, domain.HTTPStatusCode(err), "internal error")
				return
			}
			unauthenticated(c)
			return
		}

		c.Set(sessionContextKey, sess)
		c.Set(tokenContextKey, token)
		c.Next()
	}
}

// RequireRole admits only sessions holding one of roles. It must run after
// RequireSession.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := CurrentSession(c)
		if sess == nil {
			unauthenticated(c)
			return
		}
		if !slices.Contains(roles, sess.Role) {
			abortWith(c, http.StatusForbidden, "You do not have permission to do this")
			return
		}
		c.Next()
	}
}

// CurrentSession returns the session set by RequireSession, or nil.
func CurrentSession(c *gin.Context) *domain.Session {
	if v, ok := c.Get(sessionContextKey); ok {
		if s, ok := v.(*domain.Session); ok {
			return s
		}
	}
	return nil
}

// SessionToken returns the raw session token of the request.
func SessionToken(c *gin.Context, cookieName string) string {
	if t := c.GetString(tokenContextKey); t != "" {
		return t
	}
	if v, err := c.Cookie(cookieName); err == nil && v != "" {
		return v
	}
	if scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

func unauthenticated(c *gin.Context) {
	if isAPIRequest(c) {
		abortWith(c, http.StatusUnauthorized, "authentication required")
		return
	}
	c.Abort()
	target := "/login"
	if c.Request.Method == http.MethodGet && !pkg.IsHTMX(c) {
		target += "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
	}
	pkg.Redirect(c, target)
}
