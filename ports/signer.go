package ports

import (
	"context"

	"github.com/layer-3/ualauth/core"
)

// SignerConfig is the construction payload of a signer handle. Absent
// exclusions or options stay nil.
type SignerConfig struct {
	DeclaredDomain     string                   `json:"declaredDomain"`
	ReturnURL          string                   `json:"returnUrl"`
	SecurityExclusions *core.SecurityExclusions `json:"securityExclusions,omitempty"`
	Options            *core.Options            `json:"options,omitempty"`
}

// SignerHandle is a key provider for the ledger client plus the cleanup
// hooks used on logout.
type SignerHandle interface {
	AvailableKeys(ctx context.Context) ([]string, error)
	Sign(ctx context.Context, req core.SignatureRequest) ([]string, error)

	// CleanUp releases resources held for pending requests
	CleanUp() error

	// ClearCachedKeys drops any public keys cached by the handle
	ClearCachedKeys() error
}

// SignerFactory builds a signer handle from its construction payload
type SignerFactory func(cfg SignerConfig) (SignerHandle, error)
