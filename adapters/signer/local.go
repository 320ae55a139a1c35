package signer

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/layer-3/ualauth/core"
	"github.com/layer-3/ualauth/ports"
)

// PublicKeyString renders a secp256k1 public key the way signers report it
func PublicKeyString(pub *ecdsa.PublicKey) string {
	return hexutil.Encode(crypto.CompressPubkey(pub))
}

// LocalProvider signs with secp256k1 keys held in process. It is meant for
// development and tests, where no authenticator app is running.
type LocalProvider struct {
	cfg    ports.SignerConfig
	keys   map[string]*ecdsa.PrivateKey
	order  []string
	cache  keyCache
	closed atomic.Bool
}

// NewLocalFactory returns a SignerFactory producing LocalProviders over keys.
func NewLocalFactory(cache ports.KeyCache, keyTTL time.Duration, keys ...*ecdsa.PrivateKey) ports.SignerFactory {
	return func(cfg ports.SignerConfig) (ports.SignerHandle, error) {
		p := &LocalProvider{
			cfg:   cfg,
			keys:  make(map[string]*ecdsa.PrivateKey, len(keys)),
			cache: keyCache{cache: cache, key: cfg.DeclaredDomain, ttl: keyTTL},
		}
		for _, key := range keys {
			pub := PublicKeyString(&key.PublicKey)
			if _, ok := p.keys[pub]; ok {
				continue
			}
			p.keys[pub] = key
			p.order = append(p.order, pub)
		}
		return p, nil
	}
}

// NewLocalFactoryFromHex parses hex private keys, with or without 0x.
func NewLocalFactoryFromHex(cache ports.KeyCache, keyTTL time.Duration, hexKeys ...string) (ports.SignerFactory, error) {
	keys := make([]*ecdsa.PrivateKey, 0, len(hexKeys))
	for i, h := range hexKeys {
		key, err := crypto.HexToECDSA(trimHexPrefix(h))
		if err != nil {
			return nil, fmt.Errorf("invalid private key #%d: %w", i, err)
		}
		keys = append(keys, key)
	}
	return NewLocalFactory(cache, keyTTL, keys...), nil
}

func (p *LocalProvider) AvailableKeys(ctx context.Context) ([]string, error) {
	if p.closed.Load() {
		return nil, ErrSignerClosed
	}
	return p.cache.load(ctx, func(context.Context) ([]string, error) {
		return append([]string(nil), p.order...), nil
	})
}

// Sign signs the digest with every required key, or with all keys when
// none are required.
func (p *LocalProvider) Sign(ctx context.Context, req core.SignatureRequest) ([]string, error) {
	if p.closed.Load() {
		return nil, ErrSignerClosed
	}
	if len(req.Digest) != 32 {
		return nil, ErrInvalidDigest
	}

	required := req.RequiredKeys
	if len(required) == 0 {
		required = p.order
	}

	signatures := make([]string, 0, len(required))
	for _, pub := range required {
		key, ok := p.keys[pub]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotAvailable, pub)
		}
		sig, err := crypto.Sign(req.Digest, key)
		if err != nil {
			return nil, fmt.Errorf("failed to sign: %w", err)
		}
		signatures = append(signatures, hexutil.Encode(sig))
	}

	return signatures, nil
}

// CleanUp makes the provider refuse further requests
func (p *LocalProvider) CleanUp() error {
	p.closed.Store(true)
	return nil
}

func (p *LocalProvider) ClearCachedKeys() error {
	return p.cache.clear()
}

// Config returns the payload the provider was built from
func (p *LocalProvider) Config() ports.SignerConfig {
	return p.cfg
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
