package news

import "github.com/gin-gonic/gin"

// Module implements app.Module for the news screen.
type Module struct {
	handler     *Handler
	pageHandler *PageHandler
}

// NewModule creates a Module. Panics if a handler is nil.
func NewModule(h *Handler, ph *PageHandler) *Module {
	if h == nil {
		panic("news.NewModule: handler must not be nil")
	}
	if ph == nil {
		panic("news.NewModule: pageHandler must not be nil")
	}
	return &Module{handler: h, pageHandler: ph}
}

// RegisterRoutes registers the news API and page routes.
func (m *Module) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	api.GET("/news", m.handler.List)
	api.GET("/news/export", m.handler.Export)
	api.GET("/news/:id", m.handler.Get)
	api.POST("/news", m.handler.Create)
	api.POST("/news/images", m.handler.UploadImage)
	api.POST("/news/bulk-delete", m.handler.BulkDelete)
	api.POST("/news/bulk-notify", m.handler.BulkNotify)
	api.PUT("/news/:id", m.handler.Update)
	api.DELETE("/news/:id", m.handler.Delete)

	m.pageHandler.live.Register(pages)
	pages.GET("/news", m.pageHandler.ListPage)
	pages.GET("/news/export", m.pageHandler.Export)
	pages.GET("/news/:id/edit", m.pageHandler.EditPage)
	pages.POST("/news", m.pageHandler.Create)
	pages.POST("/news/bulk-delete", m.pageHandler.BulkDelete)
	pages.POST("/news/bulk-notify", m.pageHandler.BulkNotify)
	pages.PUT("/news/:id", m.pageHandler.Update)
	pages.DELETE("/news/:id", m.pageHandler.Delete)
}
