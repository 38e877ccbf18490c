package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/newsdesk/internal/notify"
	"github.com/simp-lee/newsdesk/internal/pkg"
)

// abortWith stops the chain and answers in the form the client expects:
// JSON for API calls, a toast for htmx swaps and an error page otherwise.
func abortWith(c *gin.Context, status int, message string) {
	c.Abort()
	switch {
	case isAPIRequest(c):
		c.JSON(status, pkg.Response{Code: status, Message: message})
	case pkg.IsHTMX(c):
		c.Header("HX-Reswap", "none")
		pkg.Toast(c, notify.Notification{Kind: notify.Error, Title: "Error", Message: message})
		c.Status(status)
	case acceptsHTML(c):
		renderErrorPage(c, status)
	default:
		c.JSON(status, pkg.Response{Code: status, Message: message})
	}
}

func isAPIRequest(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api/")
}

func acceptsHTML(c *gin.Context) bool {
	return strings.Contains(strings.ToLower(c.GetHeader("Accept")), "text/html")
}

// renderErrorPage renders errors/<status>.html, falling back to plain text
// when no renderer or template is available.
func renderErrorPage(c *gin.Context, status int) {
	defer func() {
		if r := recover(); r != nil {
			c.Data(status, "text/plain; charset=utf-8", []byte(fmt.Sprintf("%d %s", status, http.StatusText(status))))
		}
	}()
	c.HTML(status, fmt.Sprintf("errors/%d.html", status), gin.H{})
}
