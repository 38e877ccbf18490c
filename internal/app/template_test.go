package app

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/simp-lee/newsdesk/internal/domain"
)

// testFS mirrors the web/templates layout: a base layout, a nav partial, a
// rows partial and two pages.
func testFS() fstest.MapFS {
	return fstest.MapFS{
		"templates/layouts/base.html": &fstest.MapFile{
			Data: []byte(
				`{{ define "base" }}<!DOCTYPE html><html>` +
					`<head><title>{{ block "title" . }}Default{{ end }}</title></head>` +
					`<body>{{ template "nav" . }}{{ block "content" . }}{{ end }}</body>` +
					`</html>{{ end }}`),
		},
		"templates/partials/nav.html": &fstest.MapFile{
			Data: []byte(`{{ define "nav" }}<nav>{{ if isSuperadmin .Session }}Admins{{ end }}</nav>{{ end }}`),
		},
		"templates/partials/news_rows.html": &fstest.MapFile{
			Data: []byte(`{{ define "news/rows" }}{{ range .Items }}<tr><td>{{ . }}</td></tr>{{ end }}{{ end }}`),
		},
		"templates/news/list.html": &fstest.MapFile{
			Data: []byte(
				`{{ template "base" . }}` +
					`{{ define "title" }}News{{ end }}` +
					`{{ define "content" }}<table>{{ template "news/rows" . }}</table>{{ end }}`),
		},
		"templates/errors/404.html": &fstest.MapFile{
			Data: []byte(
				`{{ template "base" . }}` +
					`{{ define "title" }}Not Found{{ end }}` +
					`{{ define "content" }}<h1>404 Not Found</h1>{{ end }}`),
		},
	}
}

func TestTemplateFuncMap(t *testing.T) {
	fm := templateFuncMap()

	t.Run("json", func(t *testing.T) {
		fn := fm["json"].(func(any) template.JS)
		got := fn(`He said "hello" & 'bye'`)
		var roundtrip string
		if err := json.Unmarshal([]byte(got), &roundtrip); err != nil {
			t.Fatalf("json output %q is not valid JSON: %v", got, err)
		}
		if roundtrip != `He said "hello" & 'bye'` {
			t.Errorf("round-tripped value = %q", roundtrip)
		}
		if got := fn(make(chan int)); got != "null" {
			t.Errorf("json(chan) = %q; want null", got)
		}
	})

	t.Run("dates", func(t *testing.T) {
		d := time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)
		if got := fm["formatDate"].(func(time.Time) string)(d); got != "2026-03-15 14:30" {
			t.Errorf("formatDate() = %q", got)
		}
		if got := fm["inputDate"].(func(time.Time) string)(d.In(time.FixedZone("X", 3600))); got != "2026-03-15T14:30" {
			t.Errorf("inputDate() = %q", got)
		}
		if got := fm["formatDate"].(func(time.Time) string)(time.Time{}); got != "" {
			t.Errorf("formatDate(zero) = %q", got)
		}
	})

	t.Run("roles", func(t *testing.T) {
		isSuper := fm["isSuperadmin"].(func(*domain.Session) bool)
		if isSuper(nil) || isSuper(&domain.Session{Role: domain.RoleAdmin}) {
			t.Error("isSuperadmin should be false for nil and admin")
		}
		if !isSuper(&domain.Session{Role: domain.RoleSuperadmin}) {
			t.Error("isSuperadmin should be true for superadmin")
		}
		label := fm["roleLabel"].(func(domain.Role) string)
		if got := label(domain.RoleAdmin); got != domain.RoleAdmin.Label() {
			t.Errorf("roleLabel(admin) = %q", got)
		}
	})

	t.Run("selected", func(t *testing.T) {
		fn := fm["selected"].(func(map[string]bool, string) bool)
		set := map[string]bool{"a": true}
		if !fn(set, "a") || fn(set, "b") || fn(nil, "a") {
			t.Error("selected() mismatch")
		}
	})

	t.Run("arithmetic", func(t *testing.T) {
		if got := fm["add"].(func(int, int) int)(3, 4); got != 7 {
			t.Errorf("add(3,4) = %d", got)
		}
		if got := fm["sub"].(func(int, int) int)(10, 3); got != 7 {
			t.Errorf("sub(10,3) = %d", got)
		}
		seq := fm["seq"].(func(int, int) []int)
		if got := seq(1, 3); len(got) != 3 || got[0] != 1 || got[2] != 3 {
			t.Errorf("seq(1,3) = %v", got)
		}
		if got := seq(5, 1); got != nil {
			t.Errorf("seq(5,1) = %v; want nil", got)
		}
	})
}

func TestNewTemplateRenderer_LoadsPages(t *testing.T) {
	r, err := NewTemplateRenderer(testFS(), false)
	if err != nil {
		t.Fatalf("NewTemplateRenderer() error: %v", err)
	}
	for _, name := range []string{"news/list.html", "errors/404.html"} {
		if r.pages[name] == nil {
			t.Errorf("page %q not loaded", name)
		}
	}
	if _, ok := r.pages["partials/nav.html"]; ok {
		t.Error("partials must not be loaded as pages")
	}
}

func TestNewTemplateRenderer_InvalidTemplate(t *testing.T) {
	fsys := testFS()
	fsys["templates/news/edit.html"] = &fstest.MapFile{Data: []byte(`{{ define "content" }}{{ .Broken `)}

	if _, err := NewTemplateRenderer(fsys, false); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestTemplateRenderer_Instance(t *testing.T) {
	for _, debug := range []bool{false, true} {
		r, err := NewTemplateRenderer(testFS(), debug)
		if err != nil {
			t.Fatalf("NewTemplateRenderer(debug=%v) error: %v", debug, err)
		}

		w := httptest.NewRecorder()
		data := map[string]any{
			"Session": &domain.Session{Role: domain.RoleSuperadmin},
			"Items":   []string{"Story 01", "<b>Story 02</b>"},
		}
		if err := r.Instance("news/list.html", data).Render(w); err != nil {
			t.Fatalf("Render(debug=%v) error: %v", debug, err)
		}
		body := w.Body.String()
		for _, want := range []string{"<title>News</title>", "<nav>Admins</nav>", "<td>Story 01</td>", "&lt;b&gt;Story 02"} {
			if !strings.Contains(body, want) {
				t.Errorf("debug=%v: body missing %q: %s", debug, want, body)
			}
		}
		if ct := w.Header().Get("Content-Type"); ct != htmlContentType {
			t.Errorf("Content-Type = %q", ct)
		}
	}
}

func TestTemplateRenderer_Instance_NotFound(t *testing.T) {
	r, err := NewTemplateRenderer(testFS(), false)
	if err != nil {
		t.Fatalf("NewTemplateRenderer() error: %v", err)
	}
	if err := r.Instance("missing.html", nil).Render(httptest.NewRecorder()); err == nil {
		t.Fatal("expected error for missing page")
	}
}

func TestTemplateRenderer_Debug_ReloadsChanges(t *testing.T) {
	fsys := testFS()
	r, err := NewTemplateRenderer(fsys, true)
	if err != nil {
		t.Fatalf("NewTemplateRenderer() error: %v", err)
	}
	fsys["templates/partials/news_rows.html"] = &fstest.MapFile{Data: []byte(`{{ define "news/rows" }}reloaded{{ end }}`)}

	var buf bytes.Buffer
	if err := r.RenderPartial(&buf, "news/rows", nil); err != nil {
		t.Fatalf("RenderPartial() error: %v", err)
	}
	if buf.String() != "reloaded" {
		t.Fatalf("RenderPartial() = %q; want reloaded", buf.String())
	}
}

func TestTemplateRenderer_RenderPartial(t *testing.T) {
	r, err := NewTemplateRenderer(testFS(), false)
	if err != nil {
		t.Fatalf("NewTemplateRenderer() error: %v", err)
	}

	var buf bytes.Buffer
	if err := r.RenderPartial(&buf, "news/rows", map[string]any{"Items": []string{"a", "b"}}); err != nil {
		t.Fatalf("RenderPartial() error: %v", err)
	}
	if got := buf.String(); got != "<tr><td>a</td></tr><tr><td>b</td></tr>" {
		t.Fatalf("RenderPartial() = %q", got)
	}

	if err := r.RenderPartial(&buf, "users/rows", nil); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("RenderPartial(missing) error = %v", err)
	}
}

func TestHTMLInstance_WriteContentType_NoOverwrite(t *testing.T) {
	w := httptest.NewRecorder()
	w.Header().Set("Content-Type", "text/plain")
	(&HTMLInstance{}).WriteContentType(w)
	if got := w.Header().Get("Content-Type"); got != "text/plain" {
		t.Fatalf("Content-Type = %q; want text/plain", got)
	}
}

func TestHTMLInstance_Render_ParseError(t *testing.T) {
	fsys := testFS()
	r, err := NewTemplateRenderer(fsys, true)
	if err != nil {
		t.Fatalf("NewTemplateRenderer() error: %v", err)
	}
	fsys["templates/news/list.html"] = &fstest.MapFile{Data: []byte(`{{ .Broken `)}

	if err := r.Instance("news/list.html", nil).Render(httptest.NewRecorder()); err == nil {
		t.Fatal("expected debug render to surface the parse error")
	}
}

func TestDiscoverPageTemplates(t *testing.T) {
	r := &TemplateRenderer{fs: testFS()}
	pages, err := r.discoverPageTemplates()
	if err != nil {
		t.Fatalf("discoverPageTemplates() error: %v", err)
	}
	want := map[string]bool{"templates/news/list.html": true, "templates/errors/404.html": true}
	if len(pages) != len(want) {
		t.Fatalf("pages = %v", pages)
	}
	for _, p := range pages {
		if !want[p] {
			t.Errorf("unexpected page %q", p)
		}
	}
}
