package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

type RedisCache struct {
	Client *redis.Client
}

func NewRedisCache(url string) (*RedisCache, error) {
	client := redis.NewClient(
		&redis.Options{
			Addr:     url,
			Password: "",
			DB:       0,
		},
	)
	redisCache := &RedisCache{Client: client}

	return redisCache, nil
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.Client.Close()
}

func (r *RedisCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, key, data, expiration).Err()
}

// Get decodes the value stored at key into dest. A missing key returns
// ErrCacheMiss.
func (r *RedisCache) Get(ctx context.Context, key string, dest any) error {
	data, err := r.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return err
	}
	return json.Unmarshal(data, dest)
}

/*
* notification sent markers
 */

func (r *RedisCache) WasNotified(ctx context.Context, reservationID uint) (bool, error) {
	n, err := r.Client.Exists(ctx, MakeNotificationSentKey(reservationID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkNotified records that the confirmation for reservationID was sent. A
// zero ttl keeps the marker forever.
func (r *RedisCache) MarkNotified(ctx context.Context, reservationID uint, ttl time.Duration) error {
	return r.Client.Set(ctx, MakeNotificationSentKey(reservationID), time.Now().UTC().Format(time.RFC3339), ttl).Err()
}
