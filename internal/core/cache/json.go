package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// GetOrLoadJSON caches load's result as JSON under key. Load errors are not
// cached. An entry that no longer decodes into T is dropped and reloaded once.
func GetOrLoadJSON[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var zero T
	fetch := func(ctx context.Context) ([]byte, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	}
	b, err := c.GetOrLoad(ctx, key, ttl, fetch)
	if err != nil {
		return zero, err
	}
	var out T
	if json.Unmarshal(b, &out) == nil {
		return out, nil
	}
	c.Drop(ctx, key)
	if b, err = c.GetOrLoad(ctx, key, ttl, fetch); err != nil {
		return zero, err
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return zero, fmt.Errorf("cache: decode %s: %w", key, err)
	}
	return out, nil
}
