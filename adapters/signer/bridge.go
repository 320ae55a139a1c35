package signer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/layer-3/ualauth/core"
	"github.com/layer-3/ualauth/ports"
)

const (
	DefaultRequestTimeout = 2 * time.Minute
	DefaultKeyTTL         = 10 * time.Minute
)

// BridgeRequest is the body POSTed to the authenticator bridge
type BridgeRequest struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

// BridgeResponse is the authenticator's answer to a BridgeRequest
type BridgeResponse struct {
	ID         string   `json:"id"`
	Keys       []string `json:"keys,omitempty"`
	Signatures []string `json:"signatures,omitempty"`
	Error      string   `json:"error,omitempty"`
}

type bridgeSettings struct {
	client         *http.Client
	requestTimeout time.Duration
	keyTTL         time.Duration
	log            zerolog.Logger
}

// BridgeOption configures bridge providers
type BridgeOption func(*bridgeSettings)

func WithHTTPClient(client *http.Client) BridgeOption {
	return func(s *bridgeSettings) {
		s.client = client
	}
}

func WithRequestTimeout(timeout time.Duration) BridgeOption {
	return func(s *bridgeSettings) {
		s.requestTimeout = timeout
	}
}

func WithKeyTTL(ttl time.Duration) BridgeOption {
	return func(s *bridgeSettings) {
		s.keyTTL = ttl
	}
}

func WithLogger(log zerolog.Logger) BridgeOption {
	return func(s *bridgeSettings) {
		s.log = log
	}
}

// BridgeProvider forwards key and signature requests to an authenticator
// app listening on a local HTTP bridge. Every request travels as a signed
// envelope token.
type BridgeProvider struct {
	cfg       ports.SignerConfig
	endpoint  string
	tokenizer ports.Tokenizer
	cache     keyCache
	settings  bridgeSettings
	now       func() time.Time

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewBridgeFactory returns a SignerFactory producing BridgeProviders that
// talk to bridgeURL.
func NewBridgeFactory(bridgeURL string, tokenizer ports.Tokenizer, cache ports.KeyCache, opts ...BridgeOption) ports.SignerFactory {
	settings := bridgeSettings{
		client:         http.DefaultClient,
		requestTimeout: DefaultRequestTimeout,
		keyTTL:         DefaultKeyTTL,
		log:            zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&settings)
	}

	return func(cfg ports.SignerConfig) (ports.SignerHandle, error) {
		if tokenizer == nil {
			return nil, fmt.Errorf("bridge signer requires a tokenizer")
		}

		ctx, cancel := context.WithCancel(context.Background())
		return &BridgeProvider{
			cfg:       cfg,
			endpoint:  strings.TrimRight(bridgeURL, "/") + "/requests",
			tokenizer: tokenizer,
			cache:     keyCache{cache: cache, key: cfg.DeclaredDomain, ttl: settings.keyTTL},
			settings:  settings,
			now:       time.Now,
			ctx:       ctx,
			cancel:    cancel,
		}, nil
	}
}

func (p *BridgeProvider) AvailableKeys(ctx context.Context) ([]string, error) {
	return p.cache.load(ctx, func(ctx context.Context) ([]string, error) {
		resp, err := p.request(ctx, core.EnvelopeAvailableKeys, nil)
		if err != nil {
			return nil, err
		}
		return resp.Keys, nil
	})
}

func (p *BridgeProvider) Sign(ctx context.Context, req core.SignatureRequest) ([]string, error) {
	resp, err := p.request(ctx, core.EnvelopeTransactionSignature, req)
	if err != nil {
		return nil, err
	}
	return resp.Signatures, nil
}

// CleanUp aborts in-flight requests, releases idle connections and makes
// the provider refuse further requests.
func (p *BridgeProvider) CleanUp() error {
	p.mu.Lock()
	p.cancel()
	p.mu.Unlock()

	p.settings.client.CloseIdleConnections()
	return nil
}

func (p *BridgeProvider) ClearCachedKeys() error {
	return p.cache.clear()
}

func (p *BridgeProvider) request(ctx context.Context, typ core.EnvelopeType, payload any) (*BridgeResponse, error) {
	p.mu.Lock()
	lifetime := p.ctx
	p.mu.Unlock()
	if lifetime.Err() != nil {
		return nil, ErrSignerClosed
	}

	ctx, cancel := context.WithTimeout(ctx, p.settings.requestTimeout)
	defer cancel()
	stop := context.AfterFunc(lifetime, cancel)
	defer stop()

	envelope, err := p.envelope(typ, payload)
	if err != nil {
		return nil, err
	}

	token, err := p.tokenizer.EnvelopeToToken(envelope)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(BridgeRequest{ID: envelope.ID, Token: token})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	log := p.settings.log.With().Str("request_id", envelope.ID).Str("type", string(typ)).Logger()
	log.Debug().Msg("sending request to authenticator")

	httpResp, err := p.settings.client.Do(httpReq)
	if err != nil {
		if lifetime.Err() != nil {
			return nil, ErrSignerClosed
		}
		return nil, fmt.Errorf("failed to reach authenticator: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(httpResp.Body, 1024))
		return nil, fmt.Errorf("authenticator returned %d: %s", httpResp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var resp BridgeResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.ID != envelope.ID {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrResponseMismatch, resp.ID, envelope.ID)
	}
	if resp.Error != "" {
		log.Warn().Str("reason", resp.Error).Msg("authenticator rejected request")
		return nil, fmt.Errorf("%w: %s", ErrRequestRejected, resp.Error)
	}

	return &resp, nil
}

func (p *BridgeProvider) envelope(typ core.EnvelopeType, payload any) (*core.Envelope, error) {
	now := p.now()
	envelope := &core.Envelope{
		ID:                 uuid.New().String(),
		DeclaredDomain:     p.cfg.DeclaredDomain,
		ReturnURL:          p.cfg.ReturnURL,
		SecurityExclusions: p.cfg.SecurityExclusions,
		Options:            p.cfg.Options,
		Type:               typ,
		IssuedAt:           now,
		ExpiresAt:          now.Add(p.settings.requestTimeout),
	}

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode payload: %w", err)
		}
		envelope.Payload = raw
	}

	return envelope, nil
}
