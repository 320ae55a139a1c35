package signer

import (
	"context"
	"time"

	"github.com/layer-3/ualauth/ports"
)

// keyCache caches a signer's public keys under its declared domain
type keyCache struct {
	cache ports.KeyCache
	key   string
	ttl   time.Duration
}

func (c keyCache) load(ctx context.Context, fetch func(ctx context.Context) ([]string, error)) ([]string, error) {
	if c.cache != nil {
		keys, ok, err := c.cache.Get(ctx, c.key)
		if err != nil {
			return nil, err
		}
		if ok {
			return keys, nil
		}
	}

	keys, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Put(ctx, c.key, keys, c.ttl); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

func (c keyCache) clear() error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Delete(context.Background(), c.key)
}
