// Package cache 为公开页面的数据包提供短期缓存，后台写入时整体失效。
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrCacheMiss 表示键不存在或已过期。
var ErrCacheMiss = errors.New("cache miss")

// Cache 是线程安全的字节缓存。
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Close() error
}

// GetJSON 读取并反序列化缓存值。
func GetJSON[T any](ctx context.Context, c Cache, key string) (T, error) {
	var value T
	raw, err := c.Get(ctx, key)
	if err != nil {
		return value, err
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, err
	}
	return value, nil
}

// SetJSON 序列化后写入缓存。
func SetJSON[T any](ctx context.Context, c Cache, key string, value T, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, raw, ttl)
}

// Noop 不缓存任何内容，TTL 为 0 时使用。
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, error)                { return nil, ErrCacheMiss }
func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Noop) Delete(context.Context, string) error                      { return nil }
func (Noop) Clear(context.Context) error                               { return nil }
func (Noop) Close() error                                              { return nil }
