package ualauth

import (
	"context"

	"github.com/layer-3/ualauth/core"
	"github.com/layer-3/ualauth/service"
)

// Authenticator is the lifecycle surface a wallet UI drives
type Authenticator interface {
	// Init detects the signer; the outcome is read back with IsErrored and Err
	Init(ctx context.Context)

	// Reset clears any recorded error and re-runs Init in the background
	Reset(ctx context.Context)

	IsLoading() bool
	IsErrored() bool
	Err() error

	ShouldRender() bool
	ShouldAutoLogin() bool
	ShouldRequestAccountName(ctx context.Context) (bool, error)
	RequiresGetKeyConfirmation() bool
	Style() core.ButtonStyle
	OnboardingLink() string

	// Login logs accountName in on every configured chain
	Login(ctx context.Context, accountName string) ([]*service.Session, error)

	// Logout tears down every session's signer
	Logout(ctx context.Context) error
}

// User is one logged-in account on one chain
type User interface {
	SignTransaction(ctx context.Context, tx core.Transaction, config core.TransactConfig) (*core.SignResult, error)
	IsAccountValid(ctx context.Context) (bool, error)
	Keys(ctx context.Context) ([]string, error)
	AccountName() string
	ChainID() string
}

var (
	_ Authenticator = (*service.Authenticator)(nil)
	_ User          = (*service.Session)(nil)
)
