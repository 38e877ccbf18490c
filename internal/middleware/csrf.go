package middleware

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	csrfCookieName = "_csrf_token"
	csrfFormField  = "_csrf_token"
	csrfHeaderName = "X-CSRF-Token"
	csrfContextKey = "CSRFToken"
)

// CSRF protects page routes with a signed double-submit cookie.
//
// Tokens look like hex(nonce) "." base64url(HMAC-SHA256(nonce)). Safe
// methods get a token cookie when they lack a valid one; unsafe methods must
// echo the cookie in the "_csrf_token" form field or the X-CSRF-Token header
// (htmx sends the header through hx-headers on the body element). The token
// is available to templates through GetCSRFToken.
//
// CSRF panics on an empty secret; config validation guarantees one.
func CSRF(secret string) gin.HandlerFunc {
	signer := csrfSigner(strings.TrimSpace(secret))
	if signer == "" {
		panic("middleware.CSRF: secret must not be empty")
	}
	secure := gin.Mode() == gin.ReleaseMode

	return func(c *gin.Context) {
		cookie, _ := c.Cookie(csrfCookieName)

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			if !signer.valid(cookie) {
				fresh, err := signer.issue()
				if err != nil {
					abortWith(c, http.StatusInternalServerError, "failed to generate CSRF token")
					return
				}
				cookie = fresh
				http.SetCookie(c.Writer, &http.Cookie{
					Name:     csrfCookieName,
					Value:    cookie,
					Path:     "/",
					Secure:   secure,
					SameSite: http.SameSiteStrictMode,
				})
			}
			c.Set(csrfContextKey, cookie)
			c.Next()
			return
		}

		submitted := c.GetHeader(csrfHeaderName)
		if submitted == "" {
			submitted = c.PostForm(csrfFormField)
		}
		switch {
		case cookie == "" || submitted == "":
			abortWith(c, http.StatusForbidden, "CSRF token missing, reload the page")
			return
		case !signer.valid(cookie) || subtle.ConstantTimeCompare([]byte(cookie), []byte(submitted)) != 1:
			abortWith(c, http.StatusForbidden, "CSRF token invalid, reload the page")
			return
		}
		c.Set(csrfContextKey, cookie)
		c.Next()
	}
}

// GetCSRFToken returns the token set by CSRF, or "".
func GetCSRFToken(c *gin.Context) string {
	return c.GetString(csrfContextKey)
}

// csrfSigner signs and checks tokens with its secret.
type csrfSigner string

func (s csrfSigner) issue() (string, error) {
	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	n := hex.EncodeToString(nonce)
	return n + "." + s.sign(n), nil
}

func (s csrfSigner) sign(nonce string) string {
	mac := hmac.New(sha256.New, []byte(s))
	mac.Write([]byte(nonce))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (s csrfSigner) valid(token string) bool {
	nonce, sig, ok := strings.Cut(token, ".")
	if !ok || nonce == "" || sig == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(sig), []byte(s.sign(nonce))) == 1
}
