// internal/cache/visa_types.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/G-alileo/e-visa-application-system/internal/models"
)

// VisaTypeCache is a read-through cache for visa-type reference data.
// A miss is reported with found=false and a nil error.
type VisaTypeCache interface {
	GetActive(ctx context.Context) (types []models.VisaType, found bool, err error)
	SetActive(ctx context.Context, types []models.VisaType) error
	GetByCode(ctx context.Context, code string) (vt *models.VisaType, found bool, err error)
	SetByCode(ctx context.Context, vt *models.VisaType) error
	Invalidate(ctx context.Context) error
}

type RedisVisaTypeCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisVisaTypeCache(client redis.UniversalClient, ttl time.Duration) *RedisVisaTypeCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisVisaTypeCache{client: client, prefix: "evisa:visa_types:", ttl: ttl}
}

func (c *RedisVisaTypeCache) activeKey() string { return c.prefix + "active" }

func (c *RedisVisaTypeCache) codeKey(code string) string { return c.prefix + "code:" + code }

func (c *RedisVisaTypeCache) GetActive(ctx context.Context) ([]models.VisaType, bool, error) {
	var types []models.VisaType
	found, err := c.get(ctx, c.activeKey(), &types)
	return types, found, err
}

func (c *RedisVisaTypeCache) SetActive(ctx context.Context, types []models.VisaType) error {
	return c.set(ctx, c.activeKey(), types)
}

func (c *RedisVisaTypeCache) GetByCode(ctx context.Context, code string) (*models.VisaType, bool, error) {
	var vt models.VisaType
	found, err := c.get(ctx, c.codeKey(code), &vt)
	if !found || err != nil {
		return nil, found, err
	}
	return &vt, true, nil
}

func (c *RedisVisaTypeCache) SetByCode(ctx context.Context, vt *models.VisaType) error {
	if vt == nil || vt.Code == "" {
		return nil
	}
	return c.set(ctx, c.codeKey(vt.Code), vt)
}

// Invalidate drops every cached visa-type key.
func (c *RedisVisaTypeCache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan visa type cache: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate visa type cache: %w", err)
	}
	return nil
}

func (c *RedisVisaTypeCache) get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s from redis: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (c *RedisVisaTypeCache) set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// NoopVisaTypeCache always misses.
type NoopVisaTypeCache struct{}

func (NoopVisaTypeCache) GetActive(context.Context) ([]models.VisaType, bool, error) {
	return nil, false, nil
}

func (NoopVisaTypeCache) SetActive(context.Context, []models.VisaType) error { return nil }

func (NoopVisaTypeCache) GetByCode(context.Context, string) (*models.VisaType, bool, error) {
	return nil, false, nil
}

func (NoopVisaTypeCache) SetByCode(context.Context, *models.VisaType) error { return nil }

func (NoopVisaTypeCache) Invalidate(context.Context) error { return nil }
