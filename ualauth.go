// Package ualauth builds authenticators that log accounts in through an
// external signer app and sign ledger transactions on their behalf.
package ualauth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/layer-3/ualauth/adapters/ledger"
	"github.com/layer-3/ualauth/adapters/platform"
	"github.com/layer-3/ualauth/adapters/signer"
	"github.com/layer-3/ualauth/adapters/store"
	"github.com/layer-3/ualauth/adapters/tokenizer"
	"github.com/layer-3/ualauth/core"
	"github.com/layer-3/ualauth/ports"
	"github.com/layer-3/ualauth/service"
)

// Config wires an authenticator. Only Chains is required; the rest falls
// back to in-memory and in-process defaults.
type Config struct {
	Chains  []core.Chain
	Options *core.Options

	DeclaredDomain string
	ReturnURL      string
	// BridgeURL is the local HTTP bridge of the signer app. When empty,
	// LocalKeys must hold the keys of an in-process signer.
	BridgeURL string
	LocalKeys []string

	RequestTimeout time.Duration
	KeyTTL         time.Duration

	Tokenizer   ports.Tokenizer
	KeyCache    ports.KeyCache
	Publisher   ports.EventPublisher
	NewLedger   ports.LedgerClientFactory
	Logger      *zerolog.Logger
	CheckerOpts []platform.Option
}

// NewDWebID builds the desktop browser-extension authenticator
func NewDWebID(cfg Config) (*service.Authenticator, error) {
	return New(core.DWebIDProfile, cfg)
}

// NewPeepsIDiOS builds the iOS authenticator app adapter
func NewPeepsIDiOS(cfg Config) (*service.Authenticator, error) {
	return New(core.PeepsIDiOSProfile, cfg)
}

// New builds an authenticator for profile
func New(profile core.AdapterProfile, cfg Config) (*service.Authenticator, error) {
	if len(cfg.Chains) == 0 {
		return nil, errors.New("at least one chain is required")
	}

	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	cache := cfg.KeyCache
	if cache == nil {
		cache = store.NewMemoryStore()
	}

	factory, err := newSignerFactory(cfg, cache, log)
	if err != nil {
		return nil, err
	}

	newLedger := cfg.NewLedger
	if newLedger == nil {
		newLedger = ledger.Factory
	}

	checker := platform.NewChecker(profile, cfg.BridgeURL, cfg.DeclaredDomain, cfg.ReturnURL, factory, cfg.CheckerOpts...)

	opts := []service.Option{service.WithLogger(log)}
	if cfg.Publisher != nil {
		opts = append(opts, service.WithPublisher(cfg.Publisher))
	}

	return service.NewAuthenticator(profile, checker, newLedger, cfg.Chains, cfg.Options, opts...), nil
}

func newSignerFactory(cfg Config, cache ports.KeyCache, log zerolog.Logger) (ports.SignerFactory, error) {
	if cfg.BridgeURL == "" {
		if len(cfg.LocalKeys) == 0 {
			return nil, errors.New("either a bridge URL or local keys are required")
		}
		factory, err := signer.NewLocalFactoryFromHex(cache, cfg.KeyTTL, cfg.LocalKeys...)
		if err != nil {
			return nil, fmt.Errorf("failed to load local keys: %w", err)
		}
		return factory, nil
	}

	tok := cfg.Tokenizer
	if tok == nil {
		key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("failed to generate envelope key: %w", err)
		}
		tok = tokenizer.NewJWTTokenizer(key)
	}

	bridgeOpts := []signer.BridgeOption{signer.WithLogger(log)}
	if cfg.RequestTimeout > 0 {
		bridgeOpts = append(bridgeOpts, signer.WithRequestTimeout(cfg.RequestTimeout))
	}
	if cfg.KeyTTL > 0 {
		bridgeOpts = append(bridgeOpts, signer.WithKeyTTL(cfg.KeyTTL))
	}

	return signer.NewBridgeFactory(cfg.BridgeURL, tok, cache, bridgeOpts...), nil
}
