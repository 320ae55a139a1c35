package platform

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/layer-3/ualauth/core"
	"github.com/layer-3/ualauth/ports"
)

const defaultProbeTimeout = 3 * time.Second

// Checker detects an authenticator app behind a local HTTP bridge
type Checker struct {
	profile        core.AdapterProfile
	bridgeURL      string
	declaredDomain string
	returnURL      string
	factory        ports.SignerFactory
	client         *http.Client
	probeTimeout   time.Duration
	goos           string
}

// Option configures a Checker
type Option func(*Checker)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Checker) {
		c.client = client
	}
}

func WithProbeTimeout(timeout time.Duration) Option {
	return func(c *Checker) {
		c.probeTimeout = timeout
	}
}

// WithGOOS overrides the platform the checker believes it runs on
func WithGOOS(goos string) Option {
	return func(c *Checker) {
		c.goos = goos
	}
}

// NewChecker creates a platform checker for profile. factory is the signer
// the checker hands out once the bridge is reachable.
func NewChecker(profile core.AdapterProfile, bridgeURL, declaredDomain, returnURL string, factory ports.SignerFactory, opts ...Option) *Checker {
	c := &Checker{
		profile:        profile,
		bridgeURL:      strings.TrimRight(bridgeURL, "/"),
		declaredDomain: declaredDomain,
		returnURL:      returnURL,
		factory:        factory,
		client:         http.DefaultClient,
		probeTimeout:   defaultProbeTimeout,
		goos:           runtime.GOOS,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsAvailable pings the bridge. A non-2xx answer means no authenticator is
// listening; a transport failure is returned as an error. Without a bridge
// URL the signer is in-process and always available.
func (c *Checker) IsAvailable(ctx context.Context) (bool, error) {
	if c.bridgeURL == "" {
		return c.factory != nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.bridgeURL+"/ping", nil)
	if err != nil {
		return false, fmt.Errorf("failed to build probe: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to reach authenticator bridge: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
}

func (c *Checker) IsSupportedPlatform() bool {
	return slices.Contains(c.profile.SupportedPlatforms, c.goos)
}

func (c *Checker) SupportedSignatureProvider() ports.SignerFactory {
	return c.factory
}

func (c *Checker) ReturnURL() string {
	return c.returnURL
}

func (c *Checker) DeclaredDomain() string {
	return c.declaredDomain
}
