package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/simp-lee/logger"
	"gorm.io/gorm"

	"github.com/simp-lee/newsdesk/internal/config"
	"github.com/simp-lee/newsdesk/internal/listctl"
	"github.com/simp-lee/newsdesk/internal/liveview"
	"github.com/simp-lee/newsdesk/internal/middleware"
	"github.com/simp-lee/newsdesk/internal/module/admins"
	"github.com/simp-lee/newsdesk/internal/module/auth"
	"github.com/simp-lee/newsdesk/internal/module/dashboard"
	"github.com/simp-lee/newsdesk/internal/module/news"
	"github.com/simp-lee/newsdesk/internal/module/users"
	"github.com/simp-lee/newsdesk/web"
)

// App holds the dashboard server and what it must release on shutdown.
type App struct {
	engine *gin.Engine
	db     *gorm.DB
	redis  *redis.Client
	logger *logger.Logger
	cfg    *config.Config
	// purge closes the live views of every screen.
	purge []func()
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// newHTTPServer has no write timeout: event streams stay open for as long
// as a screen is.
var newHTTPServer = func(addr string, handler http.Handler, readTimeout time.Duration) httpServer {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       readTimeout,
		IdleTimeout:       120 * time.Second,
	}
}

var notifyContext = func(parent context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}

// New creates and wires a fully configured App from cfg.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := validateGinMode(cfg.Server.Mode); err != nil {
		return nil, err
	}
	success := false
	ctx := context.Background()

	log, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}
	defer func() {
		if !success {
			_ = log.Close()
		}
	}()

	// Tables are created automatically in debug mode only; release
	// deployments run "adminctl migrate".
	db, err := OpenDatabase(ctx, cfg, log.Logger, cfg.Server.Mode == gin.DebugMode)
	if err != nil {
		return nil, err
	}
	defer func() {
		if !success {
			if err := config.CloseDatabase(db); err != nil {
				slog.Error("database close error", slog.Any("error", err))
			}
		}
	}()

	rdb, err := config.SetupRedis(ctx, cfg.Redis, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("setup redis: %w", err)
	}
	defer func() {
		if !success && rdb != nil {
			_ = rdb.Close()
		}
	}()

	// The interface must stay nil when redis is off.
	var revocations redis.UniversalClient
	if rdb != nil {
		revocations = rdb
	}
	svc, err := NewServices(cfg, db, revocations, log.Logger)
	if err != nil {
		return nil, err
	}

	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()
	engine.MaxMultipartMemory = 8 << 20
	engine.Use(
		middleware.Recovery(log.Logger),
		middleware.RequestID(false),
		middleware.AccessLog(log.Logger),
	)

	webFS, err := resolveWebFS(cfg.Server.Mode)
	if err != nil {
		return nil, err
	}
	renderer, err := NewTemplateRenderer(webFS, cfg.Server.Mode == gin.DebugMode)
	if err != nil {
		return nil, fmt.Errorf("setup template renderer: %w", err)
	}
	engine.HTMLRender = renderer

	csrfSecret, err := resolveCSRFSecret(cfg.Server.Mode, cfg.Server.CSRFSecret)
	if err != nil {
		return nil, err
	}
	if csrfSecret != cfg.Server.CSRFSecret {
		log.Warn("no csrf_secret configured, using random secret in non-release mode (will change on restart)")
	}

	tuning := listctl.Tuning{
		Debounce: config.Duration(cfg.List.Debounce, listctl.DefaultDebounce),
		Limit:    cfg.List.DefaultLimit,
		MaxLimit: cfg.List.MaxLimit,
		Logger:   log.Logger,
	}
	idleTTL := config.Duration(cfg.List.IdleTTL, 15*time.Minute)
	userViews := users.NewViews(svc.Users, tuning, cfg.List.MaxViews, idleTTL)
	adminViews := admins.NewViews(svc.Admins, tuning, cfg.List.MaxViews, idleTTL)
	newsViews := news.NewViews(svc.News, tuning, cfg.List.MaxViews, idleTTL)

	userLive := liveview.NewHandler(userViews, renderer, liveview.Options{
		Name: users.Name, Path: "/users", RowsTemplate: users.RowsTemplate, Logger: log.Logger,
	})
	adminLive := liveview.NewHandler(adminViews, renderer, liveview.Options{
		Name: admins.Name, Path: "/admins", RowsTemplate: admins.RowsTemplate, Logger: log.Logger,
	})
	newsLive := liveview.NewHandler(newsViews, renderer, liveview.Options{
		Name: news.Name, Path: "/news", RowsTemplate: news.RowsTemplate, Logger: log.Logger,
	})

	modules := []Module{
		auth.NewModule(
			auth.NewHandler(svc.Accounts, cfg.Auth.CookieName),
			auth.NewPageHandler(svc.Accounts, auth.CookieConfig{
				Name:   cfg.Auth.CookieName,
				Secure: cfg.Server.Mode == gin.ReleaseMode,
			}, log.Logger, userLive, adminLive, newsLive),
		),
		dashboard.NewModule(dashboard.NewHandler(svc.Dashboard, renderer, log.Logger)),
		users.NewModule(
			users.NewHandler(svc.Users, cfg.List.DefaultLimit, cfg.List.MaxLimit),
			users.NewPageHandler(svc.Users, userLive),
		),
		admins.NewModule(
			admins.NewHandler(svc.Admins, cfg.List.DefaultLimit, cfg.List.MaxLimit),
			admins.NewPageHandler(svc.Admins, adminLive),
		),
		news.NewModule(
			news.NewHandler(svc.News, cfg.List.DefaultLimit, cfg.List.MaxLimit),
			news.NewPageHandler(svc.News, newsLive),
		),
	}

	staticFS, err := fs.Sub(webFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}
	deps := &RouteDeps{
		Modules:    modules,
		DB:         db,
		Sessions:   svc.Accounts,
		CookieName: cfg.Auth.CookieName,
		CSRFSecret: csrfSecret,
		Static:     staticFS,
		Media:      os.DirFS(svc.Blobs.Root()),
		MediaPath:  mediaPath(cfg.Storage.PublicBaseURL),
	}
	if rl := cfg.Server.RateLimit; rl.Enabled {
		deps.RateLimit = &middleware.RateLimitConfig{RPS: rl.RPS, Burst: rl.Burst, MaxClients: rl.MaxClients}
	}
	if err := RegisterRoutes(engine, deps); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}

	success = true
	return &App{
		engine: engine,
		db:     db,
		redis:  rdb,
		logger: log,
		cfg:    cfg,
		purge:  []func(){userViews.Purge, adminViews.Purge, newsViews.Purge},
	}, nil
}

// Handler returns the HTTP handler of the app.
func (a *App) Handler() http.Handler {
	return a.engine
}

// mediaPath returns the route prefix serving uploads, or "" when uploads
// live on another host.
func mediaPath(publicBaseURL string) string {
	if !strings.HasPrefix(publicBaseURL, "/") || strings.HasPrefix(publicBaseURL, "//") {
		return ""
	}
	return publicBaseURL
}

// resolveCSRFSecret returns secret, or a random one outside release mode
// when secret is a placeholder.
func resolveCSRFSecret(mode, secret string) (string, error) {
	if !isPlaceholderCSRFSecret(secret) {
		return secret, nil
	}
	if mode == gin.ReleaseMode {
		return "", errors.New("csrf_secret must be a non-placeholder value in release mode")
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate csrf secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func isPlaceholderCSRFSecret(secret string) bool {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		return true
	}
	switch strings.ToLower(trimmed) {
	case "change-me-csrf-secret-at-least-32-chars", "change-me-in-env":
		return true
	default:
		return false
	}
}

func validateGinMode(mode string) error {
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		return nil
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}
}

// resolveWebFS returns the embedded web assets, or the web/ directory on
// disk in debug mode so templates reload without a rebuild.
func resolveWebFS(mode string) (fs.FS, error) {
	if mode != gin.DebugMode {
		return web.EmbeddedFS, nil
	}
	if _, file, _, ok := runtime.Caller(0); ok {
		webDir := filepath.Clean(filepath.Join(filepath.Dir(file), "..", "..", "web"))
		if stat, err := os.Stat(webDir); err == nil && stat.IsDir() {
			return os.DirFS(webDir), nil
		}
	}
	if exePath, err := os.Executable(); err == nil {
		webDir := filepath.Join(filepath.Dir(exePath), "web")
		if stat, err := os.Stat(webDir); err == nil && stat.IsDir() {
			return os.DirFS(webDir), nil
		}
	}
	return nil, errors.New("debug web directory not found")
}

// Run serves until SIGINT or SIGTERM, then shuts down gracefully within
// five seconds and releases the database, redis and the logger.
func (a *App) Run() error {
	if a == nil || a.cfg == nil || a.engine == nil {
		return errors.New("app is not initialized")
	}

	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	srv := newHTTPServer(addr, a.engine, config.Duration(a.cfg.Server.Timeout, 30*time.Second))

	ctx, stop := notifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.log().Info("server started", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log().Info("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("server error: %w", err)
	}

	// Closing the views ends their event streams, which Shutdown waits for.
	for _, purge := range a.purge {
		purge()
	}
	if runErr == nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.log().Error("server shutdown error", slog.Any("error", err))
		}
	}

	a.close()
	return runErr
}

func (a *App) log() *slog.Logger {
	if a.logger != nil {
		return a.logger.Logger
	}
	return slog.Default()
}

func (a *App) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log().Error("redis close error", slog.Any("error", err))
		}
	}
	if a.db != nil {
		if err := config.CloseDatabase(a.db); err != nil {
			a.log().Error("database close error", slog.Any("error", err))
		} else {
			a.log().Info("database connection closed")
		}
	}
	a.log().Info("server stopped")
	if a.logger != nil {
		if err := a.logger.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "logger close error: %v\n", err)
		}
	}
}
