// Package liveview serves a listctl controller to the browser: htmx actions
// drive the controller, rendered row partials come back in the response or
// over a server-sent event stream, and notifications become toasts.
//
// Every signed-in session owns one live view per screen, keyed by the
// session's token id.
package liveview

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/newsdesk/internal/domain"
	"github.com/simp-lee/newsdesk/internal/listctl"
	"github.com/simp-lee/newsdesk/internal/middleware"
	"github.com/simp-lee/newsdesk/internal/notify"
	"github.com/simp-lee/newsdesk/internal/pkg"
)

// Renderer executes a named partial template.
type Renderer interface {
	RenderPartial(w io.Writer, name string, data any) error
}

// DefaultHeartbeat is the interval of keep-alive comments on event streams.
const DefaultHeartbeat = 15 * time.Second

// Rows is the data handed to a screen's rows partial.
type Rows[T any] struct {
	Screen    string
	Path      string
	View      listctl.View[T]
	Session   *domain.Session
	CSRFToken string
}

// Handler exposes the live views of one screen.
type Handler[T any] struct {
	name      string
	path      string
	rows      string
	views     *listctl.Registry[T]
	render    Renderer
	heartbeat time.Duration
	log       *slog.Logger
}

// Options configure a Handler.
type Options struct {
	// Name is the screen name, Path its URL prefix (e.g. "/news").
	Name string
	Path string
	// RowsTemplate names the partial rendering the table body and pager.
	RowsTemplate string
	Heartbeat    time.Duration
	Logger       *slog.Logger
}

// NewHandler creates a handler serving views from registry.
func NewHandler[T any](registry *listctl.Registry[T], render Renderer, opts Options) *Handler[T] {
	if registry == nil || render == nil {
		panic("liveview.NewHandler: registry and renderer must not be nil")
	}
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = DefaultHeartbeat
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Handler[T]{
		name:      opts.Name,
		path:      opts.Path,
		rows:      opts.RowsTemplate,
		views:     registry,
		render:    render,
		heartbeat: opts.Heartbeat,
		log:       opts.Logger.With(slog.String("screen", opts.Name)),
	}
}

// Register mounts the view actions under the screen path of pages.
func (h *Handler[T]) Register(pages *gin.RouterGroup) {
	v := pages.Group(h.path + "/view")
	v.GET("/rows", h.RowsFragment)
	v.GET("/events", h.Events)
	v.POST("/search", h.Search)
	v.POST("/page", h.Page)
	v.POST("/limit", h.Limit)
	v.POST("/bulk", h.Bulk)
	v.POST("/select-page", h.SelectPage)
	v.POST("/select/:id", h.Select)
	v.POST("/form", h.Form)
}

// View returns the live view of the request's session, creating and
// loading it on first use. The request must carry a session.
func (h *Handler[T]) View(c *gin.Context) *listctl.Live[T] {
	key := viewKey(c)
	live, fresh := h.views.Acquire(key)
	if fresh {
		// The first page outlives this request.
		live.Fetch(context.WithoutCancel(c.Request.Context()))
	}
	return live
}

// Release drops the live view of the request's session.
func (h *Handler[T]) Release(c *gin.Context) {
	h.views.Release(viewKey(c))
}

// Data builds the template data of the rows partial for live.
func (h *Handler[T]) Data(c *gin.Context, live *listctl.Live[T]) Rows[T] {
	return Rows[T]{
		Screen:    h.name,
		Path:      h.path,
		View:      live.View(),
		Session:   middleware.CurrentSession(c),
		CSRFToken: middleware.GetCSRFToken(c),
	}
}

// Respond renders the rows partial of live with status and attaches any
// pending notification as a toast.
func (h *Handler[T]) Respond(c *gin.Context, status int, live *listctl.Live[T]) {
	var buf bytes.Buffer
	if err := h.render.RenderPartial(&buf, h.rows, h.Data(c, live)); err != nil {
		h.log.ErrorContext(c.Request.Context(), "render rows failed", slog.Any("error", err))
		c.Status(http.StatusInternalServerError)
		return
	}
	h.flushToasts(c, live)
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

// Result answers a mutation on live: the rows with any pending toast, and
// the status of err.
func (h *Handler[T]) Result(c *gin.Context, live *listctl.Live[T], err error) {
	status := http.StatusOK
	if err != nil {
		status = domain.HTTPStatusCode(err)
	}
	h.Respond(c, status, live)
}

// Redirect sends the browser to location carrying the pending toast of live.
func (h *Handler[T]) Redirect(c *gin.Context, live *listctl.Live[T], location string) {
	h.flushToasts(c, live)
	pkg.Redirect(c, location)
}

// Fail answers an htmx action that could not run with a toast and no swap.
// An error the controller already announced is delivered as its own
// notification, never a second toast.
func (h *Handler[T]) Fail(c *gin.Context, live *listctl.Live[T], err error) {
	c.Header("HX-Reswap", "none")
	var pending []notify.Notification
	if live != nil {
		pending = live.Toasts.Drain()
	}
	if !listctl.Reported(err) {
		pending = append(pending, notify.Notification{
			Kind:    notify.Error,
			Title:   "Error",
			Message: domain.PublicMessage(err, "Something went wrong"),
		})
	}
	pkg.Toast(c, pending...)
	c.Status(domain.HTTPStatusCode(err))
}

// flushToasts attaches every pending notification of live, oldest first.
func (h *Handler[T]) flushToasts(c *gin.Context, live *listctl.Live[T]) {
	pkg.Toast(c, live.Toasts.Drain()...)
}

// RowsFragment handles GET <path>/view/rows.
func (h *Handler[T]) RowsFragment(c *gin.Context) {
	h.Respond(c, http.StatusOK, h.View(c))
}

// Search handles POST <path>/view/search. The fetch runs after the debounce
// window; its rows arrive on the event stream.
func (h *Handler[T]) Search(c *gin.Context) {
	live := h.View(c)
	live.SetSearchTerm(c.PostForm("q"))
	c.Header("HX-Reswap", "none")
	c.Status(http.StatusAccepted)
}

// Page handles POST <path>/view/page. Pages past the last one clamp to it.
func (h *Handler[T]) Page(c *gin.Context) {
	live := h.View(c)
	n, err := formInt(c, "page")
	if err == nil {
		if last := live.View().TotalPages; n > last {
			n = last
		}
		err = live.SetPage(c.Request.Context(), n)
	}
	if err != nil {
		h.Fail(c, live, err)
		return
	}
	h.Respond(c, http.StatusOK, live)
}

// Limit handles POST <path>/view/limit.
func (h *Handler[T]) Limit(c *gin.Context) {
	live := h.View(c)
	n, err := formInt(c, "limit")
	if err == nil {
		err = live.SetLimit(c.Request.Context(), n)
	}
	if err != nil {
		h.Fail(c, live, err)
		return
	}
	h.Respond(c, http.StatusOK, live)
}

// Bulk handles POST <path>/view/bulk, turning selection mode on or off.
func (h *Handler[T]) Bulk(c *gin.Context) {
	live := h.View(c)
	live.SetBulkMode(formBool(c, "on"))
	h.Respond(c, http.StatusOK, live)
}

// Select handles POST <path>/view/select/:id.
func (h *Handler[T]) Select(c *gin.Context) {
	live := h.View(c)
	live.ToggleSelected(c.Param("id"))
	h.Respond(c, http.StatusOK, live)
}

// SelectPage handles POST <path>/view/select-page.
func (h *Handler[T]) SelectPage(c *gin.Context) {
	live := h.View(c)
	live.SelectPage(formBool(c, "on"))
	h.Respond(c, http.StatusOK, live)
}

// Form handles POST <path>/view/form, opening or closing the create form.
func (h *Handler[T]) Form(c *gin.Context) {
	live := h.View(c)
	if formBool(c, "open") {
		live.OpenForm()
	} else {
		live.CloseForm()
	}
	h.Respond(c, http.StatusOK, live)
}

// Events handles GET <path>/view/events: a server-sent event stream with a
// "rows" event after every change of the view and a "toast" event per
// notification. The stream ends when the client leaves or the view closes.
func (h *Handler[T]) Events(c *gin.Context) {
	live := h.View(c)
	changes, stop := live.Subscribe()
	defer stop()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()
	ctx := c.Request.Context()
	data := h.Data(c, live)

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case _, ok := <-changes:
			if !ok {
				return false
			}
			data.View = live.View()
			var buf bytes.Buffer
			if err := h.render.RenderPartial(&buf, h.rows, data); err != nil {
				h.log.ErrorContext(ctx, "render rows failed", slog.Any("error", err))
				return false
			}
			c.SSEvent("rows", buf.String())
		case <-live.Toasts.Ready():
			for _, n := range live.Toasts.Drain() {
				b, err := json.Marshal(n)
				if err != nil {
					continue
				}
				c.SSEvent("toast", string(b))
			}
		case <-heartbeat.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return false
			}
		}
		return true
	})
}

func viewKey(c *gin.Context) string {
	if s := middleware.CurrentSession(c); s != nil && s.TokenID != "" {
		return s.TokenID
	}
	// Routes are mounted behind RequireSession; fall back to the client
	// address so a misconfigured route still isolates clients.
	return "anon:" + c.ClientIP()
}

func formInt(c *gin.Context, key string) (int, error) {
	n, err := strconv.Atoi(c.PostForm(key))
	if err != nil {
		return 0, domain.Validation(key + " must be a number")
	}
	return n, nil
}

func formBool(c *gin.Context, key string) bool {
	v, _ := strconv.ParseBool(c.PostForm(key))
	return v
}
