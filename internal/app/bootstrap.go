// Package app holds the startup wiring shared by the API server and taxctl.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"taxsavings-backend/internal/admin"
	"taxsavings-backend/internal/auth"
	"taxsavings-backend/internal/cache"
	"taxsavings-backend/internal/config"
	"taxsavings-backend/internal/db"
	"taxsavings-backend/internal/leads"
)

const tokenIssuer = "taxsavings-backend"

// Stores is the opened persistence layer. Users is nil when leads live in
// SQLite; admin login then relies on the environment account.
type Stores struct {
	Leads leads.Repository
	Users admin.UserStore
	close []func()
}

func (s *Stores) Close() {
	for i := len(s.close) - 1; i >= 0; i-- {
		s.close[i]()
	}
}

func NewLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
}

func OpenStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Stores, error) {
	stores := &Stores{}

	switch cfg.LeadStore {
	case config.LeadStoreSQLite:
		conn, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		logger.Info("sqlite opened", slog.String("path", cfg.SQLitePath))
		stores.Leads = leads.NewSQLiteRepository(conn)
		stores.close = append(stores.close, func() { _ = conn.Close() })
	default:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		client, cols, err := db.Connect(connectCtx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("mongo: %w", err)
		}
		logger.Info("mongo connected", slog.String("db", cfg.MongoDB))
		stores.close = append(stores.close, func() { _ = client.Disconnect(context.Background()) })

		if err := db.EnsureIndexes(connectCtx, cols); err != nil {
			stores.Close()
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		stores.Leads = leads.NewRepository(cols.Contacts)
		stores.Users = admin.NewMongoUserStore(cols.Users)
	}

	return stores, nil
}

// NewCache connects Redis when configured and otherwise returns an
// in-process cache. The returned func releases the connection.
func NewCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (cache.Cache, func(), error) {
	if cfg.RedisURL == "" && cfg.RedisAddr == "" {
		logger.Info("redis disabled, using in-memory cache")
		return cache.NewMemory(), func() {}, nil
	}

	var redisCache *cache.RedisCache
	var err error
	if cfg.RedisURL != "" {
		redisCache, err = cache.NewRedisFromURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("redis: %w", err)
		}
	} else {
		redisCache = cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := redisCache.Ping(pingCtx); err != nil {
		_ = redisCache.Close()
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	logger.Info("redis connected")
	return redisCache, func() { _ = redisCache.Close() }, nil
}

// NewTokenManager returns nil when JWT_SECRET is unset.
func NewTokenManager(cfg *config.Config) *auth.Manager {
	if cfg.JWTSecret == "" {
		return nil
	}
	return &auth.Manager{
		Secret:     []byte(cfg.JWTSecret),
		AccessTTL:  time.Duration(cfg.AccessTTLMinutes) * time.Minute,
		RefreshTTL: time.Duration(cfg.RefreshTTLMinutes) * time.Minute,
		Issuer:     tokenIssuer,
	}
}
