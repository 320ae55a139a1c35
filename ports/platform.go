package ports

import "context"

// PlatformCapability answers whether a compatible signer is reachable from
// the current environment and how to build one.
type PlatformCapability interface {
	IsAvailable(ctx context.Context) (bool, error)
	IsSupportedPlatform() bool
	SupportedSignatureProvider() SignerFactory
	ReturnURL() string
	DeclaredDomain() string
}
