package app

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/render"

	"github.com/simp-lee/newsdesk/internal/domain"
)

// TemplateRenderer renders pages and partials from a templates/ tree:
//
//	templates/
//	  layouts/   the page skeleton ("base")
//	  partials/  shared fragments, including the rows partial of each screen
//	  <screen>/  page templates, e.g. users/list.html or errors/404.html
//
// Each page is parsed on a clone of layouts + partials. Partials are also
// executed on their own for htmx swaps and the event stream. In debug mode
// everything is re-parsed per render.
type TemplateRenderer struct {
	fs      fs.FS
	funcMap template.FuncMap
	debug   bool

	mu    sync.RWMutex
	base  *template.Template
	pages map[string]*template.Template
}

var _ render.HTMLRender = (*TemplateRenderer)(nil)

// NewTemplateRenderer creates a TemplateRenderer backed by the given filesystem.
//
// Parameters:
//   - fsys: filesystem holding the templates/ tree. Debug mode reads the web
//     directory from disk (os.DirFS) so edits show up on the next request;
//     release mode uses web.EmbeddedFS.
//   - debug: when true, pages and partials are re-parsed on every render.
//
// Loading works in three steps:
//  1. Layouts (templates/layouts/*.html) and partials (templates/partials/*.html)
//     are parsed into one shared set. The rows partial of every screen lives
//     there, so htmx swaps and the event stream can execute it on its own.
//  2. Every other template directory (users/, news/, errors/, ...) is scanned
//     for page templates.
//  3. Each page is parsed on a clone of the shared set and registered under its
//     path below templates/, e.g. "news/list.html".
//
// A parse error fails construction in both modes. In debug mode later parse
// errors are returned from each render instead.
func NewTemplateRenderer(fsys fs.FS, debug bool) (*TemplateRenderer, error) {
	r := &TemplateRenderer{
		fs:      fsys,
		funcMap: templateFuncMap(),
		debug:   debug,
	}
	if err := r.load(); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return r, nil
}

// Instance implements render.HTMLRender for the page template name.
func (r *TemplateRenderer) Instance(name string, data any) render.Render {
	_, pages, err := r.current()
	if err != nil {
		return &HTMLInstance{Name: name, err: err}
	}
	return &HTMLInstance{Template: pages[name], Name: name, Data: data}
}

// RenderPartial executes the template defined as name in the shared set.
func (r *TemplateRenderer) RenderPartial(w io.Writer, name string, data any) error {
	base, _, err := r.current()
	if err != nil {
		return err
	}
	if base.Lookup(name) == nil {
		return fmt.Errorf("partial %q not found", name)
	}
	return base.ExecuteTemplate(w, name, data)
}

func (r *TemplateRenderer) current() (*template.Template, map[string]*template.Template, error) {
	if r.debug {
		if err := r.load(); err != nil {
			return nil, nil, err
		}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.base, r.pages, nil
}

func (r *TemplateRenderer) load() error {
	base, err := r.parseBase()
	if err != nil {
		return err
	}
	pageFiles, err := r.discoverPageTemplates()
	if err != nil {
		return fmt.Errorf("discover pages: %w", err)
	}
	pages := make(map[string]*template.Template, len(pageFiles))
	for _, pf := range pageFiles {
		clone, err := base.Clone()
		if err != nil {
			return fmt.Errorf("clone base for %s: %w", pf, err)
		}
		content, err := fs.ReadFile(r.fs, pf)
		if err != nil {
			return fmt.Errorf("read %s: %w", pf, err)
		}
		name := strings.TrimPrefix(pf, "templates/")
		if _, err := clone.New(name).Parse(string(content)); err != nil {
			return fmt.Errorf("parse %s: %w", pf, err)
		}
		pages[name] = clone
	}

	r.mu.Lock()
	r.base, r.pages = base, pages
	r.mu.Unlock()
	return nil
}

// parseBase builds the set shared by every page from layouts and partials.
func (r *TemplateRenderer) parseBase() (*template.Template, error) {
	var files []string
	for _, pattern := range []string{"templates/layouts/*.html", "templates/partials/*.html"} {
		matches, err := fs.Glob(r.fs, pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		files = append(files, matches...)
	}
	base := template.New("").Funcs(r.funcMap)
	for _, f := range files {
		content, err := fs.ReadFile(r.fs, f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		if _, err := base.New(f).Parse(string(content)); err != nil {
			return nil, fmt.Errorf("parse %s: %w", f, err)
		}
	}
	return base, nil
}

// discoverPageTemplates lists the .html files outside layouts/ and partials/.
func (r *TemplateRenderer) discoverPageTemplates() ([]string, error) {
	var pages []string
	err := fs.WalkDir(r.fs, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}
		rel := strings.TrimPrefix(path, "templates/")
		if strings.HasPrefix(rel, "layouts/") || strings.HasPrefix(rel, "partials/") {
			return nil
		}
		pages = append(pages, path)
		return nil
	})
	return pages, err
}

func templateFuncMap() template.FuncMap {
	return template.FuncMap{
		// json embeds v in a script or Alpine attribute.
		"json": func(v any) template.JS {
			b, err := json.Marshal(v)
			if err != nil {
				return template.JS("null")
			}
			return template.JS(b)
		},
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02 15:04")
		},
		// inputDate formats t for an <input type="datetime-local">.
		"inputDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.UTC().Format("2006-01-02T15:04")
		},
		// summaryHTML renders an article summary, which is sanitised on write.
		"summaryHTML": func(s string) template.HTML {
			return template.HTML(s)
		},
		"join": func(items []string, sep string) string {
			return strings.Join(items, sep)
		},
		"roleLabel": func(r domain.Role) string {
			return r.Label()
		},
		"isSuperadmin": func(s *domain.Session) bool {
			return s != nil && s.Role == domain.RoleSuperadmin
		},
		"selected": func(set map[string]bool, id string) bool {
			return set[id]
		},
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
		"seq": func(start, end int) []int {
			if start > end {
				return nil
			}
			s := make([]int, 0, end-start+1)
			for i := start; i <= end; i++ {
				s = append(s, i)
			}
			return s
		},
	}
}

// HTMLInstance is one page render, returned by TemplateRenderer.Instance.
type HTMLInstance struct {
	Template *template.Template
	Name     string
	Data     any
	err      error
}

const htmlContentType = "text/html; charset=utf-8"

// Render writes the page to w.
func (h *HTMLInstance) Render(w http.ResponseWriter) error {
	h.WriteContentType(w)
	if h.err != nil {
		return h.err
	}
	if h.Template == nil {
		return fmt.Errorf("template %q not found", h.Name)
	}
	return h.Template.ExecuteTemplate(w, h.Name, h.Data)
}

// WriteContentType sets an HTML Content-Type unless one is set.
func (h *HTMLInstance) WriteContentType(w http.ResponseWriter) {
	header := w.Header()
	if val := header["Content-Type"]; len(val) == 0 {
		header["Content-Type"] = []string{htmlContentType}
	}
}
