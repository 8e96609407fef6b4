package cache

import (
	"context"
	"fmt"
	"time"

	"TalmudBacktest/internal/config"
	"TalmudBacktest/internal/model"
)

// ResultCache stores finished backtest results by request key and by run ID.
type ResultCache interface {
	Get(ctx context.Context, key string) (*model.Result, bool, error)
	GetByID(ctx context.Context, id string) (*model.Result, bool, error)
	Put(ctx context.Context, key string, res *model.Result, ttl time.Duration) error
	Close() error
}

// FromConfig builds the cache selected by cfg.Cache.Kind.
func FromConfig(cfg *config.Config) (ResultCache, error) {
	switch cfg.Cache.Kind {
	case "memory":
		return NewMemoryCache(), nil
	case "redis":
		return NewRedisCache(&RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
	case "none":
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown cache kind %q", cfg.Cache.Kind)
	}
}

func idKey(id string) string { return "talmud:id:" + id }

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) (*model.Result, bool, error) { return nil, false, nil }
func (Noop) GetByID(context.Context, string) (*model.Result, bool, error) { return nil, false, nil }
func (Noop) Put(context.Context, string, *model.Result, time.Duration) error { return nil }
func (Noop) Close() error { return nil }
