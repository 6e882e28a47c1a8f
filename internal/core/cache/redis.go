package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// DefaultLoadTimeout bounds a shared load once it no longer follows any
// single caller's context.
const DefaultLoadTimeout = time.Minute

// Cache is a read-through cache. With a nil RDB it only collapses
// concurrent loads of the same key.
type Cache struct {
	RDB         *redis.Client
	prefix      string
	sf          singleflight.Group
	loadTimeout time.Duration
}

// New returns a cache backed by redis at addr; an empty addr disables redis.
func New(addr, pass string, db int, prefix string) *Cache {
	c := &Cache{prefix: prefix, loadTimeout: DefaultLoadTimeout}
	if addr != "" {
		c.RDB = redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
	}
	return c
}

func (c *Cache) Ping(ctx context.Context) error {
	if c.RDB == nil {
		return nil
	}
	return c.RDB.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	if c.RDB == nil {
		return nil
	}
	return c.RDB.Close()
}

// Drop evicts key; failures are ignored since the entry expires anyway.
func (c *Cache) Drop(ctx context.Context, key string) {
	if c.RDB != nil {
		_ = c.RDB.Del(ctx, c.prefix+key).Err()
	}
}

// GetOrLoad returns the cached bytes for key or calls load, collapsing
// concurrent loads of the same key. A redis outage degrades to loading.
// load runs detached from ctx, bounded by the cache's load timeout.
func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	key = c.prefix + key
	if c.RDB != nil {
		b, err := c.RDB.Get(ctx, key).Bytes()
		if err == nil {
			return b, nil
		}
		if !errors.Is(err, redis.Nil) && ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	// the load outlives whichever caller started it; each caller still
	// stops waiting when its own context ends
	ch := c.sf.DoChan(key, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
		defer cancel()
		b, e := load(lctx)
		if e != nil {
			return nil, e
		}
		if c.RDB != nil && ttl > 0 {
			_ = c.RDB.Set(lctx, key, b, ttl).Err()
		}
		return b, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
