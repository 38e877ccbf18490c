package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/simp-lee/newsdesk/internal/auth"
	"github.com/simp-lee/newsdesk/internal/blob"
	"github.com/simp-lee/newsdesk/internal/config"
	"github.com/simp-lee/newsdesk/internal/domain"
	"github.com/simp-lee/newsdesk/internal/module/admins"
	"github.com/simp-lee/newsdesk/internal/module/dashboard"
	"github.com/simp-lee/newsdesk/internal/module/news"
	"github.com/simp-lee/newsdesk/internal/module/users"
	"github.com/simp-lee/newsdesk/internal/store"
)

// Services are the screen services over one database. The server and the
// operator CLI build them the same way.
type Services struct {
	Accounts  *auth.Provider
	Users     *users.Service
	Admins    *admins.Service
	News      *news.Service
	Dashboard *dashboard.Service
	Blobs     *blob.LocalStore
}

// NewServices wires every service. Revoked sessions are kept in redis when
// rdb is not nil, otherwise in process memory.
func NewServices(cfg *config.Config, db *gorm.DB, rdb redis.UniversalClient, log *slog.Logger) (*Services, error) {
	if cfg == nil || db == nil {
		return nil, fmt.Errorf("config and database are required")
	}
	tokenTTL := config.Duration(cfg.Auth.TokenExpiry, 12*time.Hour)

	var revoked auth.Revoker
	if rdb != nil {
		revoked = auth.NewRedisRevoker(rdb)
	} else {
		revoked = auth.NewMemoryRevoker(10000, tokenTTL)
	}

	profiles := store.New[domain.Profile](db, store.Spec{Name: "profiles"})
	accounts := auth.NewProvider(profiles, auth.NewTokenIssuer(cfg.Auth.JWTSecret, tokenTTL), revoked, auth.Options{
		CacheSize: cfg.Auth.SessionCache.Size,
		CacheTTL:  config.Duration(cfg.Auth.SessionCache.TTL, time.Minute),
		Logger:    log,
	})

	blobs, err := blob.NewLocalStore(cfg.Storage.Root, cfg.Storage.PublicBaseURL, cfg.Storage.Buckets)
	if err != nil {
		return nil, fmt.Errorf("setup blob store: %w", err)
	}

	articles := news.NewCollection(db)
	return &Services{
		Accounts:  accounts,
		Users:     users.NewService(users.NewCollection(db), accounts),
		Admins:    admins.NewService(admins.NewCollection(db), accounts, accounts),
		News:      news.NewService(articles, blobs),
		Dashboard: dashboard.NewService(articles, profiles),
		Blobs:     blobs,
	}, nil
}

// OpenDatabase opens the configured database and, when migrate is set,
// creates or updates the tables.
func OpenDatabase(ctx context.Context, cfg *config.Config, log *slog.Logger, migrate bool) (*gorm.DB, error) {
	db, err := config.SetupDatabase(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}
	if migrate {
		if err := store.Migrate(db.WithContext(ctx)); err != nil {
			_ = config.CloseDatabase(db)
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
		log.Info("auto migration completed")
	}
	return db, nil
}
