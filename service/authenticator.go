package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/layer-3/ualauth/core"
	"github.com/layer-3/ualauth/ports"
)

// Option configures an Authenticator
type Option func(*Authenticator)

// WithLogger sets the logger used by the authenticator and its sessions
func WithLogger(log zerolog.Logger) Option {
	return func(a *Authenticator) {
		a.log = log
	}
}

// WithPublisher publishes login, logout and signing events
func WithPublisher(publisher ports.EventPublisher) Option {
	return func(a *Authenticator) {
		a.publisher = publisher
	}
}

// WithSessionOptions appends options applied to every session created by Login
func WithSessionOptions(opts ...SessionOption) Option {
	return func(a *Authenticator) {
		a.sessionOpts = append(a.sessionOpts, opts...)
	}
}

// Authenticator drives detection of a platform signer and logs accounts in
// on every configured chain. Login and Logout must be serialized by the
// caller.
type Authenticator struct {
	profile    core.AdapterProfile
	capability ports.PlatformCapability
	newLedger  ports.LedgerClientFactory
	chains     []core.Chain
	options    *core.Options

	publisher   ports.EventPublisher
	sessionOpts []SessionOption
	log         zerolog.Logger

	mu       sync.RWMutex
	pending  int
	initErr  *core.AuthError
	inflight chan struct{}
	users    []*Session
}

// NewAuthenticator creates an idle authenticator. options is passed through
// to sessions and signers untouched.
func NewAuthenticator(
	profile core.AdapterProfile,
	capability ports.PlatformCapability,
	newLedger ports.LedgerClientFactory,
	chains []core.Chain,
	options *core.Options,
	opts ...Option,
) *Authenticator {
	a := &Authenticator{
		profile:    profile,
		capability: capability,
		newLedger:  newLedger,
		chains:     chains,
		options:    options,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.With().Str("authenticator", profile.Name).Logger()
	return a
}

// Init checks whether the signer is available. A failure is recorded and
// exposed through IsErrored and Err rather than returned.
func (a *Authenticator) Init(ctx context.Context) {
	done := a.beginInit()
	a.runInit(ctx, done)
}

// Reset clears the recorded error and starts Init in the background.
// IsLoading reports true as soon as Reset returns; Wait blocks until the
// background Init finishes.
func (a *Authenticator) Reset(ctx context.Context) {
	a.mu.Lock()
	a.initErr = nil
	a.mu.Unlock()

	done := a.beginInit()
	go a.runInit(context.WithoutCancel(ctx), done)
}

// Wait blocks until the most recently started Init finishes.
func (a *Authenticator) Wait(ctx context.Context) error {
	a.mu.RLock()
	inflight := a.inflight
	a.mu.RUnlock()

	if inflight == nil {
		return nil
	}

	select {
	case <-inflight:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Authenticator) beginInit() chan struct{} {
	done := make(chan struct{})

	a.mu.Lock()
	a.pending++
	a.inflight = done
	a.mu.Unlock()

	return done
}

func (a *Authenticator) runInit(ctx context.Context, done chan struct{}) {
	defer func() {
		a.mu.Lock()
		a.pending--
		a.mu.Unlock()
		close(done)
	}()

	err := a.detect(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()

	if err != nil {
		a.initErr = core.NewAuthError(a.profile.ErrorSource, "Error occurred during initialization", core.KindInitialization, err)
		a.log.Warn().Err(err).Msg("authenticator unavailable")
		return
	}

	a.initErr = nil
	a.log.Debug().Msg("authenticator available")
}

// detect turns every failure mode of the capability check, panics included,
// into an error.
func (a *Authenticator) detect(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("capability check panicked: %v", r)
		}
	}()

	available, err := a.capability.IsAvailable(ctx)
	if err != nil {
		return err
	}
	if !available {
		return core.ErrAuthenticatorUnavailable
	}
	return nil
}

// ShouldRender reports whether the current platform is supported
func (a *Authenticator) ShouldRender() bool {
	return a.capability.IsSupportedPlatform()
}

func (a *Authenticator) ShouldAutoLogin() bool {
	return false
}

// ShouldRequestAccountName is always true: the caller must prompt for an
// account name before Login.
func (a *Authenticator) ShouldRequestAccountName(ctx context.Context) (bool, error) {
	return true, nil
}

// Login creates, initializes and validates one session per chain, in chain
// order. The first invalid account aborts the call; sessions registered for
// earlier chains stay registered. On success the full session list is
// returned.
func (a *Authenticator) Login(ctx context.Context, accountName string) ([]*Session, error) {
	for _, chain := range a.chains {
		session := NewSession(chain, accountName, a.options, a.capability, a.newLedger, a.newSessionOptions()...)

		if err := session.Init(ctx); err != nil {
			return nil, err
		}

		valid, err := session.IsAccountValid(ctx)
		if err != nil || !valid {
			session.close()
			message := fmt.Sprintf("Error logging into account %q", accountName)
			return nil, core.NewAuthError(a.profile.ErrorSource, message, core.KindLogin, err)
		}

		a.mu.Lock()
		a.users = append(a.users, session)
		a.mu.Unlock()

		a.log.Info().Str("chain_id", chain.ChainID).Str("account", accountName).Msg("logged in")

		if a.publisher != nil {
			if err := a.publisher.PublishLogin(ctx, chain.ChainID, accountName); err != nil {
				a.log.Warn().Err(err).Msg("failed to publish login event")
			}
		}
	}

	return a.Users(), nil
}

// Logout runs CleanUp then ClearCachedKeys on every session's signer, in
// registration order, and forgets all sessions. The first failure aborts
// the loop and leaves the session list as it was.
func (a *Authenticator) Logout(ctx context.Context) error {
	users := a.Users()

	for _, user := range users {
		signer, ok := user.Signer()
		if !ok {
			continue
		}
		if err := signer.CleanUp(); err != nil {
			return a.logoutError(err)
		}
		if err := signer.ClearCachedKeys(); err != nil {
			return a.logoutError(err)
		}
	}

	for _, user := range users {
		user.close()

		if a.publisher != nil {
			if err := a.publisher.PublishLogout(ctx, user.ChainID(), user.AccountName()); err != nil {
				a.log.Warn().Err(err).Msg("failed to publish logout event")
			}
		}
	}

	a.mu.Lock()
	a.users = nil
	a.mu.Unlock()

	a.log.Info().Int("sessions", len(users)).Msg("logged out")
	return nil
}

func (a *Authenticator) logoutError(cause error) error {
	return core.NewAuthError(a.profile.ErrorSource, "Error logging out", core.KindLogout, cause)
}

func (a *Authenticator) newSessionOptions() []SessionOption {
	opts := []SessionOption{
		WithErrorSource(a.profile.ErrorSource),
		WithSessionLogger(a.log),
	}
	if a.publisher != nil {
		opts = append(opts, WithSessionPublisher(a.publisher))
	}
	return append(opts, a.sessionOpts...)
}

// Users returns a copy of the registered sessions
func (a *Authenticator) Users() []*Session {
	a.mu.RLock()
	defer a.mu.RUnlock()

	users := make([]*Session, len(a.users))
	copy(users, a.users)
	return users
}

// Session returns the first registered session on chainID
func (a *Authenticator) Session(chainID string) (*Session, error) {
	for _, user := range a.Users() {
		if user.ChainID() == chainID {
			return user, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", core.ErrSessionNotFound, chainID)
}

func (a *Authenticator) IsLoading() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.pending > 0
}

func (a *Authenticator) IsErrored() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.initErr != nil
}

// Err returns the error recorded by the last failed Init, or nil
func (a *Authenticator) Err() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.initErr == nil {
		return nil
	}
	return a.initErr
}

func (a *Authenticator) Style() core.ButtonStyle {
	return a.profile.Style
}

func (a *Authenticator) OnboardingLink() string {
	return a.profile.OnboardingLink
}

func (a *Authenticator) RequiresGetKeyConfirmation() bool {
	return a.profile.RequiresGetKeyConfirmation
}

func (a *Authenticator) Profile() core.AdapterProfile {
	return a.profile
}

func (a *Authenticator) Chains() []core.Chain {
	return a.chains
}
