package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/seatbooking/config"
	"github.com/Domenick1991/seatbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client    *redis.Client
	layoutTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, layoutTTL time.Duration) *RedisCache {
	return NewRedisCacheWithClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		layoutTTL,
	)
}

func NewRedisCacheWithClient(client *redis.Client, layoutTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, layoutTTL: layoutTTL}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetLayout returns the cached seat configuration, nil on a miss.
func (c *RedisCache) GetLayout(ctx context.Context) (*domain.SeatConfiguration, error) {
	data, err := c.client.Get(ctx, layoutKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var cfg domain.SeatConfiguration
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *RedisCache) SetLayout(ctx context.Context, cfg *domain.SeatConfiguration) error {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, layoutKey(), payload, c.layoutTTL).Err()
}

// releaseLockScript deletes the lock only while it still holds the caller's token.
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// AcquireDateLock serializes allocation for one booking date across instances.
// The returned token identifies this holder to ReleaseDateLock.
func (c *RedisCache) AcquireDateLock(ctx context.Context, date string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := c.client.SetNX(ctx, dateLockKey(date), token, ttl).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

// ReleaseDateLock is a no-op when the lock expired and was taken by someone else.
func (c *RedisCache) ReleaseDateLock(ctx context.Context, date, token string) error {
	return releaseLockScript.Run(ctx, c.client, []string{dateLockKey(date)}, token).Err()
}

func layoutKey() string {
	return "cache:seat-layout"
}

func dateLockKey(date string) string {
	return fmt.Sprintf("lock:booking:date:%s", date)
}
