package cache

import (
	"context"
	"encoding/json"
)

// GetOrLoadJSON 泛型包装：值以 JSON 存储
func GetOrLoadJSON[T any](ctx context.Context, c *Cache, key string, load func(ctx context.Context) (*T, error)) (*T, error) {
	if c == nil {
		return load(ctx)
	}
	b, err := c.GetOrLoad(ctx, key, func(ctx context.Context) ([]byte, error) {
		v, e := load(ctx)
		if e != nil {
			return nil, e
		}
		return json.Marshal(v)
	})
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return nil, nil
	}
	var out T
	if e := json.Unmarshal(b, &out); e != nil {
		// 旧格式残留：直接回源
		return load(ctx)
	}
	return &out, nil
}
