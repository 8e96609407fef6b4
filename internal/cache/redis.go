package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"TalmudBacktest/internal/model"
)

// RedisConfig represents Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// RedisCache stores JSON-encoded results in Redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects and pings the server.
func NewRedisCache(cfg *RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.WithField("addr", cfg.Addr).Info("redis connection established")
	return &RedisCache{client: client}, nil
}

func (r *RedisCache) Get(ctx context.Context, key string) (*model.Result, bool, error) {
	return r.get(ctx, key)
}

func (r *RedisCache) GetByID(ctx context.Context, id string) (*model.Result, bool, error) {
	return r.get(ctx, idKey(id))
}

func (r *RedisCache) get(ctx context.Context, key string) (*model.Result, bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	res, err := decodeResult(data)
	if err != nil {
		return nil, false, err
	}
	return res, true, nil
}

// Put writes the result under both its request key and its run ID.
func (r *RedisCache) Put(ctx context.Context, key string, res *model.Result, ttl time.Duration) error {
	data, err := encodeResult(res)
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, key, data, ttl)
	if res.ID != "" {
		pipe.Set(ctx, idKey(res.ID), data, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis put %s: %w", key, err)
	}
	return nil
}

func (r *RedisCache) Close() error { return r.client.Close() }

func encodeResult(res *model.Result) ([]byte, error) {
	data, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return data, nil
}

func decodeResult(data []byte) (*model.Result, error) {
	var res model.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &res, nil
}
