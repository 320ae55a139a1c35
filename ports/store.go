package ports

import (
	"context"
	"time"
)

// KeyCache holds the public keys a signer reported, per declared domain
type KeyCache interface {
	Put(ctx context.Context, key string, keys []string, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]string, bool, error)
	Delete(ctx context.Context, key string) error
}
