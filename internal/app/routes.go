package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/simp-lee/newsdesk/internal/middleware"
	"github.com/simp-lee/newsdesk/internal/pkg"
)

// RouteDeps holds everything RegisterRoutes needs.
type RouteDeps struct {
	Modules    []Module
	DB         *gorm.DB
	Sessions   middleware.SessionResolver
	CookieName string
	CSRFSecret string
	// Static serves /static; Media serves uploaded files under MediaPath.
	Static    fs.FS
	Media     fs.FS
	MediaPath string
	// RateLimit limits API and login requests when set.
	RateLimit *middleware.RateLimitConfig
}

// RegisterRoutes registers every route on r.
func RegisterRoutes(r *gin.Engine, deps *RouteDeps) error {
	if r == nil {
		return errors.New("router is nil")
	}
	if deps == nil {
		return errors.New("route dependencies are nil")
	}
	if len(deps.Modules) == 0 {
		return errors.New("at least one module is required")
	}
	if strings.TrimSpace(deps.CSRFSecret) == "" {
		return errors.New("csrf secret is required")
	}
	if deps.Sessions == nil {
		return errors.New("session resolver is required")
	}

	if deps.Static != nil {
		r.GET("/static/*filepath", cacheStaticHandler("/static", http.FS(deps.Static)))
	}
	if deps.Media != nil && deps.MediaPath != "" {
		mediaPath := "/" + strings.Trim(deps.MediaPath, "/")
		r.GET(mediaPath+"/*filepath", cacheStaticHandler(mediaPath, http.FS(deps.Media)))
	}
	r.GET("/health", healthHandler(deps.DB))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := r.Group("/api/v1")
	pages := r.Group("/", middleware.CSRF(deps.CSRFSecret))
	if deps.RateLimit != nil {
		limit := middleware.RateLimit(*deps.RateLimit)
		public.Use(limit)
		pages.Use(onlyFor(http.MethodPost, "/login", limit))
	}
	session := middleware.RequireSession(deps.Sessions, deps.CookieName)
	api := public.Group("", session)
	staff := pages.Group("", session)

	for i, m := range deps.Modules {
		if m == nil {
			return fmt.Errorf("module at index %d is nil", i)
		}
		if pm, ok := m.(PublicModule); ok {
			pm.RegisterPublicRoutes(public, pages)
		}
		m.RegisterRoutes(api, staff)
	}

	r.NoRoute(noRouteHandler())
	return nil
}

// onlyFor runs h for one method and path and passes other requests on.
func onlyFor(method, path string, h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == method && c.Request.URL.Path == path {
			h(c)
			return
		}
		c.Next()
	}
}

// healthHandler pings the database and reports status.
func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		dbStatus := "ok"
		if db == nil {
			dbStatus = "error"
		} else if sqlDB, err := db.DB(); err != nil {
			dbStatus = "error"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
			defer cancel()
			if err := sqlDB.PingContext(ctx); err != nil {
				dbStatus = "error"
			}
		}

		status, code := "ok", http.StatusOK
		if dbStatus != "ok" {
			status, code = "degraded", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":     status,
			"components": gin.H{"database": dbStatus},
		})
	}
}

// noRouteHandler renders a 404 page for browsers and JSON for API clients.
func noRouteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, pkg.Response{Code: http.StatusNotFound, Message: "not found"})
			return
		}
		renderError(c, http.StatusNotFound, "The page you are looking for does not exist.")
	}
}

// cacheStaticHandler serves fsys below prefix with a one day cache lifetime.
func cacheStaticHandler(prefix string, fsys http.FileSystem) gin.HandlerFunc {
	fileServer := http.StripPrefix(prefix, http.FileServer(fsys))
	return func(c *gin.Context) {
		c.Header("Cache-Control", "public, max-age=86400")
		fileServer.ServeHTTP(c.Writer, c.Request)
	}
}
