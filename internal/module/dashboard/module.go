package dashboard

import "github.com/gin-gonic/gin"

// Module implements app.Module for the dashboard.
type Module struct {
	handler *Handler
}

// NewModule creates a Module. Panics if h is nil.
func NewModule(h *Handler) *Module {
	if h == nil {
		panic("dashboard.NewModule: handler must not be nil")
	}
	return &Module{handler: h}
}

// RegisterRoutes registers the dashboard API and page routes.
func (m *Module) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	api.GET("/dashboard/stats", m.handler.API)

	pages.GET("/", m.handler.Page)
	pages.GET("/dashboard", m.handler.Page)
	pages.GET("/dashboard/stats", m.handler.StatsFragment)
}
