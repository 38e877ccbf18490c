package users

import "github.com/gin-gonic/gin"

// Module implements app.Module for the users screen.
type Module struct {
	handler     *Handler
	pageHandler *PageHandler
}

// NewModule creates a Module. Panics if a handler is nil.
func NewModule(h *Handler, ph *PageHandler) *Module {
	if h == nil {
		panic("users.NewModule: handler must not be nil")
	}
	if ph == nil {
		panic("users.NewModule: pageHandler must not be nil")
	}
	return &Module{handler: h, pageHandler: ph}
}

// RegisterRoutes registers the users API and page routes.
func (m *Module) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	api.GET("/users", m.handler.List)
	api.GET("/users/export", m.handler.Export)
	api.GET("/users/:id", m.handler.Get)
	api.POST("/users", m.handler.Create)
	api.PUT("/users/:id", m.handler.Update)
	api.PUT("/users/:id/block", m.handler.Block)
	api.DELETE("/users/:id", m.handler.Delete)

	m.pageHandler.live.Register(pages)
	pages.GET("/users", m.pageHandler.ListPage)
	pages.GET("/users/export", m.pageHandler.Export)
	pages.GET("/users/:id/edit", m.pageHandler.EditPage)
	pages.POST("/users", m.pageHandler.Create)
	pages.POST("/users/bulk-delete", m.pageHandler.BulkDelete)
	pages.PUT("/users/:id", m.pageHandler.Update)
	pages.POST("/users/:id/block", m.pageHandler.Block)
	pages.DELETE("/users/:id", m.pageHandler.Delete)
}
