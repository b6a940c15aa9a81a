package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrCacheDisabled = errors.New("cache is disabled")

var rdb *redis.Client

func RedisClient(addr string, password string, db int) error {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		client.Close()
		return err
	}

	rdb = client
	return nil
}

func Enabled() bool {
	return rdb != nil
}

func Close() error {
	if rdb == nil {
		return nil
	}
	err := rdb.Close()
	rdb = nil
	return err
}

func SetCache(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if rdb == nil {
		return ErrCacheDisabled
	}
	return rdb.Set(ctx, key, value, expiration).Err()
}

func GetCache(ctx context.Context, key string) (string, error) {
	if rdb == nil {
		return "", ErrCacheDisabled
	}
	val, err := rdb.Get(ctx, key).Result()
	if err != nil {
		return "", err
	}
	return val, nil
}

// SetJSON stores value encoded as JSON.
func SetJSON(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("could not marshal JSON: %w", err)
	}
	return SetCache(ctx, key, data, expiration)
}

// GetJSON decodes the cached JSON document stored under key into dest.
func GetJSON(ctx context.Context, key string, dest any) error {
	cached, err := GetCache(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(cached), dest); err != nil {
		return fmt.Errorf("could not unmarshal JSON: %w", err)
	}
	return nil
}
