package app

import "github.com/gin-gonic/gin"

// Module is a screen that registers its own routes. Both groups require a
// signed-in staff session; pages are also CSRF protected.
type Module interface {
	RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup)
}

// PublicModule is a Module with routes reachable without a session, such as
// the login page.
type PublicModule interface {
	Module
	RegisterPublicRoutes(api *gin.RouterGroup, pages *gin.RouterGroup)
}
