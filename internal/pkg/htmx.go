package pkg

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/newsdesk/internal/notify"
)

// IsHTMX reports whether the request was issued by htmx.
func IsHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

// Toast attaches the notifications to the response as an HX-Trigger
// "showToast" event so the page shows them once the swap completes. A single
// notification is sent as an object, several as an array in order.
func Toast(c *gin.Context, ns ...notify.Notification) {
	var detail any
	switch len(ns) {
	case 0:
		return
	case 1:
		detail = ns[0]
	default:
		detail = ns
	}
	b, err := json.Marshal(map[string]any{"showToast": detail})
	if err != nil {
		return
	}
	c.Header("HX-Trigger", string(b))
}

// Redirect sends the browser to location. htmx requests get an HX-Redirect
// header, plain requests a 303.
func Redirect(c *gin.Context, location string) {
	if IsHTMX(c) {
		c.Header("HX-Redirect", location)
		c.Status(http.StatusNoContent)
		return
	}
	c.Redirect(http.StatusSeeOther, location)
}
