package dashboard

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/newsdesk/internal/domain"
	"github.com/simp-lee/newsdesk/internal/liveview"
	"github.com/simp-lee/newsdesk/internal/middleware"
	"github.com/simp-lee/newsdesk/internal/notify"
	"github.com/simp-lee/newsdesk/internal/pkg"
)

// StatsTemplate is the partial rendering the counts and the chart.
const StatsTemplate = "dashboard/stats"

// Handler serves the dashboard page and its statistics.
type Handler struct {
	svc    *Service
	render liveview.Renderer
	log    *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(svc *Service, render liveview.Renderer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, render: render, log: logger}
}

// Page renders the dashboard. A statistics failure still renders the page,
// with an error toast in place of the numbers.
// GET / and GET /dashboard
func (h *Handler) Page(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	data := gin.H{
		"Title":     "Dashboard",
		"Nav":       "dashboard",
		"Stats":     stats,
		"Session":   middleware.CurrentSession(c),
		"CSRFToken": middleware.GetCSRFToken(c),
	}
	if err != nil {
		h.log.ErrorContext(c.Request.Context(), "load dashboard stats failed", slog.Any("error", err))
		data["Error"] = domain.PublicMessage(err, countsFailed)
	}
	c.HTML(http.StatusOK, "dashboard/index.html", data)
}

// StatsFragment renders the statistics partial for periodic refresh.
// GET /dashboard/stats
func (h *Handler) StatsFragment(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		h.log.ErrorContext(c.Request.Context(), "load dashboard stats failed", slog.Any("error", err))
		c.Header("HX-Reswap", "none")
		pkg.Toast(c, notify.Notification{
			Kind:    notify.Error,
			Title:   "Error",
			Message: domain.PublicMessage(err, countsFailed),
		})
		c.Status(domain.HTTPStatusCode(err))
		return
	}
	var buf bytes.Buffer
	if err := h.render.RenderPartial(&buf, StatsTemplate, stats); err != nil {
		h.log.ErrorContext(c.Request.Context(), "render stats failed", slog.Any("error", err))
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// API handles GET /api/v1/dashboard/stats.
func (h *Handler) API(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, stats)
}
