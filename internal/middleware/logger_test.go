package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/simp-lee/newsdesk/internal/domain"
	"github.com/simp-lee/newsdesk/internal/metrics"
)

func setupAccessLogRouter(buf *bytes.Buffer) *gin.Engine {
	r := gin.New()
	r.Use(AccessLog(newTestLogger(buf)))
	r.GET("/items/:id", func(c *gin.Context) {
		c.Set(sessionContextKey, &domain.Session{UserID: "staff-1"})
		c.String(http.StatusOK, "ok")
	})
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/broken", func(c *gin.Context) { c.Status(http.StatusBadGateway) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestAccessLog_Levels(t *testing.T) {
	tests := []struct {
		path  string
		level string
	}{
		{"/items/7", "level=INFO"},
		{"/missing", "level=WARN"},
		{"/broken", "level=ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var buf bytes.Buffer
			w := httptest.NewRecorder()
			setupAccessLogRouter(&buf).ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			out := buf.String()
			if !strings.Contains(out, tt.level) || !strings.Contains(out, "path="+tt.path) {
				t.Errorf("log = %s", out)
			}
		})
	}
}

func TestAccessLog_IncludesUser(t *testing.T) {
	var buf bytes.Buffer
	setupAccessLogRouter(&buf).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/1", nil))
	if !strings.Contains(buf.String(), "user_id=staff-1") {
		t.Errorf("log = %s", buf.String())
	}
}

func TestAccessLog_QuietPathsStillCounted(t *testing.T) {
	var buf bytes.Buffer
	before := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/health", "200"))

	setupAccessLogRouter(&buf).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if buf.Len() != 0 {
		t.Errorf("health check should not be logged: %s", buf.String())
	}
	after := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/health", "200"))
	if after != before+1 {
		t.Errorf("request counter = %v; want %v", after, before+1)
	}
}

func TestAccessLog_RouteLabelUsesPattern(t *testing.T) {
	var buf bytes.Buffer
	label := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/items/:id", "200")
	before := testutil.ToFloat64(label)

	r := setupAccessLogRouter(&buf)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/2", nil))

	if got := testutil.ToFloat64(label); got != before+2 {
		t.Errorf("counter = %v; want %v", got, before+2)
	}
}
