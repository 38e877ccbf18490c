package admins

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/newsdesk/internal/domain"
	"github.com/simp-lee/newsdesk/internal/middleware"
)

// Module implements app.Module for the admins screen. Every staff member
// can browse it; changes need the superadmin role.
type Module struct {
	handler     *Handler
	pageHandler *PageHandler
}

// NewModule creates a Module. Panics if a handler is nil.
func NewModule(h *Handler, ph *PageHandler) *Module {
	if h == nil {
		panic("admins.NewModule: handler must not be nil")
	}
	if ph == nil {
		panic("admins.NewModule: pageHandler must not be nil")
	}
	return &Module{handler: h, pageHandler: ph}
}

// RegisterRoutes registers the admins API and page routes.
func (m *Module) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	superadmin := middleware.RequireRole(domain.RoleSuperadmin)

	api.GET("/admins", m.handler.List)
	api.GET("/admins/export", m.handler.Export)
	api.GET("/admins/:id", m.handler.Get)
	api.POST("/admins", superadmin, m.handler.Create)
	api.PUT("/admins/:id", superadmin, m.handler.Update)
	api.DELETE("/admins/:id", superadmin, m.handler.Delete)

	m.pageHandler.live.Register(pages)
	pages.GET("/admins", m.pageHandler.ListPage)
	pages.GET("/admins/export", m.pageHandler.Export)
	pages.GET("/admins/:id/edit", superadmin, m.pageHandler.EditPage)
	pages.POST("/admins", superadmin, m.pageHandler.Create)
	pages.PUT("/admins/:id", superadmin, m.pageHandler.Update)
	pages.DELETE("/admins/:id", superadmin, m.pageHandler.Delete)
}
