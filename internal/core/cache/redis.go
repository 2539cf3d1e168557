// Package cache 读多写少数据的 redis 旁路缓存；未配置或 redis 不可用时退化为直接回源
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type Cache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	sf     singleflight.Group
	log    *zap.Logger
}

type Options struct {
	Addr     string // 为空返回 nil Cache
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// New addr 为空时返回 nil，nil *Cache 的所有方法都可安全调用
func New(o Options, log *zap.Logger) *Cache {
	if o.Addr == "" {
		return nil
	}
	return NewWithClient(redis.NewClient(&redis.Options{Addr: o.Addr, Password: o.Password, DB: o.DB}), o.Prefix, o.TTL, log)
}

func NewWithClient(rdb *redis.Client, prefix string, ttl time.Duration, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Cache{rdb: rdb, prefix: prefix, ttl: ttl, log: log}
}

func (c *Cache) key(k string) string { return c.prefix + k }

// Ping 启动期探活；nil Cache 视为健康
func (c *Cache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}

// GetOrLoad 先读缓存，未命中则 singleflight 合并回源并回写；redis 报错按未命中处理
func (c *Cache) GetOrLoad(ctx context.Context, key string, load func(context.Context) ([]byte, error)) ([]byte, error) {
	if c == nil {
		return load(ctx)
	}
	full := c.key(key)
	b, err := c.rdb.Get(ctx, full).Bytes()
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, redis.Nil) {
		c.log.Warn("cache get failed", zap.String("key", full), zap.Error(err))
	}

	v, err, _ := c.sf.Do(full, func() (any, error) {
		b, e := load(ctx)
		if e != nil {
			return nil, e
		}
		if e := c.rdb.Set(ctx, full, b, c.ttl).Err(); e != nil {
			c.log.Warn("cache set failed", zap.String("key", full), zap.Error(e))
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Invalidate 删除 key；失败只记日志，最迟 TTL 后自愈
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	if err := c.rdb.Del(ctx, full...).Err(); err != nil {
		c.log.Warn("cache invalidate failed", zap.Strings("keys", full), zap.Error(err))
	}
}
