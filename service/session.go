package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/layer-3/ualauth/core"
	"github.com/layer-3/ualauth/ports"
)

// sessionState is either uninitialized or *ready
type sessionState interface {
	isSessionState()
}

type uninitialized struct{}

type ready struct {
	signer ports.SignerHandle
	ledger ports.LedgerClient
}

func (uninitialized) isSessionState() {}
func (*ready) isSessionState()        {}

// AccountValidator decides whether the session's account name is usable on
// its chain.
type AccountValidator func(ctx context.Context, s *Session) (bool, error)

// SessionOption configures a Session
type SessionOption func(*Session)

// WithAccountValidator replaces the ledger account lookup
func WithAccountValidator(validate AccountValidator) SessionOption {
	return func(s *Session) {
		s.validate = validate
	}
}

// WithSessionLogger sets the session logger
func WithSessionLogger(log zerolog.Logger) SessionOption {
	return func(s *Session) {
		s.log = log
	}
}

// WithSessionPublisher publishes an event for every signed transaction
func WithSessionPublisher(publisher ports.EventPublisher) SessionOption {
	return func(s *Session) {
		s.publisher = publisher
	}
}

// WithErrorSource sets the error-type tag of errors returned by the session
func WithErrorSource(source string) SessionOption {
	return func(s *Session) {
		s.source = source
	}
}

// Session is one logged-in account on one chain. It owns its signer and
// ledger client once Init succeeds.
type Session struct {
	id          string
	chain       core.Chain
	accountName string
	options     *core.Options

	capability ports.PlatformCapability
	newLedger  ports.LedgerClientFactory
	validate   AccountValidator
	publisher  ports.EventPublisher
	source     string
	log        zerolog.Logger

	mu    sync.RWMutex
	state sessionState
}

// NewSession creates an uninitialized session
func NewSession(
	chain core.Chain,
	accountName string,
	options *core.Options,
	capability ports.PlatformCapability,
	newLedger ports.LedgerClientFactory,
	opts ...SessionOption,
) *Session {
	s := &Session{
		id:          uuid.New().String(),
		chain:       chain,
		accountName: accountName,
		options:     options,
		capability:  capability,
		newLedger:   newLedger,
		log:         zerolog.Nop(),
		state:       uninitialized{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("session_id", s.id).Str("chain_id", chain.ChainID).Logger()
	return s
}

// Init builds the signer handle and the ledger client bound to it.
func (s *Session) Init(ctx context.Context) error {
	factory := s.capability.SupportedSignatureProvider()
	if factory == nil {
		return s.initError(core.ErrNoSignatureProvider)
	}

	cfg := ports.SignerConfig{
		DeclaredDomain: s.capability.DeclaredDomain(),
		ReturnURL:      s.capability.ReturnURL(),
	}
	if s.options != nil {
		cfg.SecurityExclusions = s.options.SecurityExclusions
		cfg.Options = s.options
	}

	signer, err := factory(cfg)
	if err != nil {
		return s.initError(fmt.Errorf("failed to create signature provider: %w", err))
	}

	rpcURL, err := s.chain.RPCURL()
	if err != nil {
		return s.initError(err)
	}

	ledger, err := s.newLedger(ctx, rpcURL, signer)
	if err != nil {
		return s.initError(fmt.Errorf("failed to connect to %s: %w", rpcURL, err))
	}

	s.mu.Lock()
	s.state = &ready{signer: signer, ledger: ledger}
	s.mu.Unlock()

	s.log.Debug().Str("rpc_url", rpcURL).Msg("session initialized")
	return nil
}

// IsAccountValid checks the account name against the ledger.
func (s *Session) IsAccountValid(ctx context.Context) (bool, error) {
	if s.validate != nil {
		return s.validate(ctx, s)
	}

	st, ok := s.currentState().(*ready)
	if !ok {
		return false, nil
	}

	account, err := st.ledger.GetAccount(ctx, s.accountName)
	if errors.Is(err, core.ErrAccountNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up account %q: %w", s.accountName, err)
	}

	return account.AccountName == s.accountName, nil
}

// SignTransaction signs tx through the ledger client and, unless config
// disables it, broadcasts it.
func (s *Session) SignTransaction(ctx context.Context, tx core.Transaction, config core.TransactConfig) (*core.SignResult, error) {
	var st *ready
	switch state := s.currentState().(type) {
	case *ready:
		st = state
	default:
		cause := core.NewAuthError(s.source, "Not initialized", core.KindInitialization, core.ErrNotInitialized)
		return nil, s.signingError(cause)
	}

	opts := config.Resolve()
	result, err := st.ledger.Transact(ctx, tx, opts)
	if err != nil {
		s.log.Warn().Err(err).Msg("transaction failed")
		return nil, s.signingError(err)
	}
	if result == nil {
		return nil, s.signingError(errors.New("ledger returned no result"))
	}

	signed := &core.SignResult{
		WasBroadcast:  opts.Broadcast,
		TransactionID: result.TransactionID,
		Status:        result.Status(),
		Transaction:   result,
	}

	s.log.Info().
		Str("transaction_id", signed.TransactionID).
		Bool("broadcast", signed.WasBroadcast).
		Msg("transaction signed")

	if s.publisher != nil {
		if err := s.publisher.PublishTransactionSigned(ctx, s.chain.ChainID, s.accountName, signed.TransactionID, signed.WasBroadcast); err != nil {
			s.log.Warn().Err(err).Msg("failed to publish signed event")
		}
	}

	return signed, nil
}

// Keys returns the public keys the signer can sign with.
func (s *Session) Keys(ctx context.Context) ([]string, error) {
	signer, ok := s.Signer()
	if !ok {
		return nil, core.ErrNotInitialized
	}
	return signer.AvailableKeys(ctx)
}

// Signer returns the session's signer handle once initialized
func (s *Session) Signer() (ports.SignerHandle, bool) {
	st, ok := s.currentState().(*ready)
	if !ok {
		return nil, false
	}
	return st.signer, true
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) ChainID() string {
	return s.chain.ChainID
}

func (s *Session) AccountName() string {
	return s.accountName
}

func (s *Session) Chain() core.Chain {
	return s.chain
}

// close releases the ledger client; the signer is left to logout.
func (s *Session) close() {
	if st, ok := s.currentState().(*ready); ok {
		st.ledger.Close()
	}
}

func (s *Session) currentState() sessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) initError(cause error) error {
	return core.NewAuthError(s.source, "Error occurred during session initialization", core.KindInitialization, cause)
}

func (s *Session) signingError(cause error) error {
	return core.NewAuthError(s.source, "Unable to sign the given transaction", core.KindSigning, cause)
}
