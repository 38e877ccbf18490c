package auth

import "github.com/gin-gonic/gin"

// Module implements app.Module for sign-in and sign-out.
type Module struct {
	handler     *Handler
	pageHandler *PageHandler
}

// NewModule creates a Module. Panics if a handler is nil.
func NewModule(h *Handler, ph *PageHandler) *Module {
	if h == nil {
		panic("auth.NewModule: handler must not be nil")
	}
	if ph == nil {
		panic("auth.NewModule: pageHandler must not be nil")
	}
	return &Module{handler: h, pageHandler: ph}
}

// RegisterPublicRoutes registers the routes reachable without a session.
func (m *Module) RegisterPublicRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	api.POST("/auth/login", m.handler.Login)
	pages.GET("/login", m.pageHandler.LoginPage)
	pages.POST("/login", m.pageHandler.Login)
}

// RegisterRoutes registers the routes of a signed-in session.
func (m *Module) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	api.GET("/auth/me", m.handler.Me)
	api.POST("/auth/logout", m.handler.Logout)
	pages.POST("/logout", m.pageHandler.Logout)
}
