package listcache

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jun/letterdrive/backend/internal/model"
	"github.com/redis/go-redis/v9"
)

// Redis is a Cache shared by every API instance.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedis connects to addr and pings it. Outside dev mode the connection
// uses TLS, which ElastiCache requires.
func NewRedis(ctx context.Context, devMode bool, addr string, ttl time.Duration) (*Redis, error) {
	opts := &redis.Options{Addr: addr}
	if !devMode {
		opts.TLSConfig = &tls.Config{}
	}
	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Redis{client: client, ttl: ttl}, nil
}

func listKey(userID string) string {
	return "user:" + userID + ":letters"
}

func (r *Redis) Get(ctx context.Context, userID string) ([]model.Letter, bool, error) {
	raw, err := r.client.Get(ctx, listKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var letters []model.Letter
	if err := json.Unmarshal(raw, &letters); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached listing: %w", err)
	}
	return letters, true, nil
}

func (r *Redis) Set(ctx context.Context, userID string, letters []model.Letter) error {
	raw, err := json.Marshal(letters)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, listKey(userID), raw, r.ttl).Err()
}

func (r *Redis) Invalidate(ctx context.Context, userID string) error {
	return r.client.Del(ctx, listKey(userID)).Err()
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
