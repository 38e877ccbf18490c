package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/newsdesk/internal/pkg"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func errorPagesFS() fstest.MapFS {
	page := `{{define "errors/%s.html"}}{{template "base" .}}{{end}}`
	fsys := fstest.MapFS{
		"templates/layouts/base.html": {Data: []byte(`{{define "base"}}<h1>{{.Title}}</h1><p>{{.Message}}</p>{{end}}`)},
	}
	for _, code := range []string{"400", "403", "404", "500"} {
		fsys["templates/errors/"+code+".html"] = &fstest.MapFile{Data: []byte(strings.Replace(page, "%s", code, 1))}
	}
	return fsys
}

func TestAcceptsHTML(t *testing.T) {
	tests := []struct {
		name   string
		accept string
		want   bool
	}{
		{"text/html", "text/html", true},
		{"htmx default", "text/html, */*; q=0.01", true},
		{"application/json only", "application/json", false},
		{"empty accept", "", true},
		{"wildcard accept", "*/*", true},
		{"case insensitive", "Text/HTML", true},
		{"event stream", "text/event-stream", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.accept != "" {
				c.Request.Header.Set("Accept", tt.accept)
			}
			if got := acceptsHTML(c); got != tt.want {
				t.Fatalf("acceptsHTML() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRenderError_JSON(t *testing.T) {
	tests := []struct {
		name    string
		accept  string
		code    int
		message string
	}{
		{"500 internal", "application/json", 500, "internal server error"},
		{"403 forbidden", "application/json", 403, "insufficient permissions"},
		{"429 rate limited", "application/json", 429, "too many requests"},
		{"json with wildcard", "application/json, */*", 404, "not found"},
		{"event stream client", "text/event-stream", 401, "authentication required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/news/view/events", nil)
			c.Request.Header.Set("Accept", tt.accept)

			renderError(c, tt.code, tt.message)

			if w.Code != tt.code {
				t.Fatalf("status = %d, want %d", w.Code, tt.code)
			}
			var resp pkg.Response
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("json decode error: %v", err)
			}
			if resp.Code != tt.code || resp.Message != tt.message {
				t.Fatalf("resp = %+v, want code %d message %q", resp, tt.code, tt.message)
			}
		})
	}
}

func TestRenderError_HTMLPage(t *testing.T) {
	renderer, err := NewTemplateRenderer(errorPagesFS(), false)
	if err != nil {
		t.Fatalf("NewTemplateRenderer() error = %v", err)
	}

	tests := []struct {
		name      string
		code      int
		wantTitle string
	}{
		{"own page", http.StatusForbidden, "<h1>Forbidden</h1>"},
		{"falls back to the 500 page", http.StatusTooManyRequests, "<h1>Too Many Requests</h1>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.HTMLRender = renderer
			r.GET("/", func(c *gin.Context) { renderError(c, tt.code, "Only superadmins may do that.") })

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Accept", "text/html")
			r.ServeHTTP(w, req)

			if w.Code != tt.code {
				t.Fatalf("status = %d, want %d", w.Code, tt.code)
			}
			body := w.Body.String()
			if !strings.Contains(body, tt.wantTitle) || !strings.Contains(body, "Only superadmins may do that.") {
				t.Fatalf("body = %q", body)
			}
		})
	}
}

func TestRenderError_HTML_FallsBackToPlainText(t *testing.T) {
	// Without an HTML renderer on the engine c.HTML panics.
	tests := []struct {
		code     int
		wantBody string
	}{
		{500, "500 Internal Server Error"},
		{404, "404 Not Found"},
		{429, "429 Too Many Requests"},
	}

	for _, tt := range tests {
		t.Run(tt.wantBody, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Request.Header.Set("Accept", "text/html")

			renderError(c, tt.code, "ignored for html")

			if w.Code != tt.code {
				t.Fatalf("status = %d, want %d", w.Code, tt.code)
			}
			if body := w.Body.String(); body != tt.wantBody {
				t.Fatalf("body = %q, want %q", body, tt.wantBody)
			}
			if ct := w.Header().Get("Content-Type"); ct != "text/plain; charset=utf-8" {
				t.Fatalf("Content-Type = %q", ct)
			}
		})
	}
}
