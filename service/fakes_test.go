package service

import (
	"context"
	"sync"

	"github.com/layer-3/ualauth/core"
	"github.com/layer-3/ualauth/ports"
)

type fakeCapability struct {
	mu        sync.Mutex
	available bool
	err       error
	block     chan struct{}
	panicMsg  string
	supported bool
	domain    string
	returnURL string
	factory   ports.SignerFactory
	configs   []ports.SignerConfig
	signers   []*fakeSigner
	calls     *[]string
}

func newFakeCapability() *fakeCapability {
	c := &fakeCapability{
		available: true,
		supported: true,
		domain:    "testDeclaredDomain",
		returnURL: "testReturnURL",
		calls:     &[]string{},
	}
	c.factory = func(cfg ports.SignerConfig) (ports.SignerHandle, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.configs = append(c.configs, cfg)
		signer := &fakeSigner{id: len(c.signers), calls: c.calls, mu: &c.mu}
		c.signers = append(c.signers, signer)
		return signer, nil
	}
	return c
}

func (c *fakeCapability) IsAvailable(ctx context.Context) (bool, error) {
	if c.block != nil {
		<-c.block
	}
	if c.panicMsg != "" {
		panic(c.panicMsg)
	}
	return c.available, c.err
}

func (c *fakeCapability) IsSupportedPlatform() bool { return c.supported }

func (c *fakeCapability) SupportedSignatureProvider() ports.SignerFactory { return c.factory }

func (c *fakeCapability) ReturnURL() string { return c.returnURL }

func (c *fakeCapability) DeclaredDomain() string { return c.domain }

type fakeSigner struct {
	id         int
	mu         *sync.Mutex
	calls      *[]string
	cleanUpErr error
	clearErr   error
	keys       []string
}

func (s *fakeSigner) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	*s.calls = append(*s.calls, call)
}

func (s *fakeSigner) AvailableKeys(ctx context.Context) ([]string, error) {
	return s.keys, nil
}

func (s *fakeSigner) Sign(ctx context.Context, req core.SignatureRequest) ([]string, error) {
	return []string{"SIG"}, nil
}

func (s *fakeSigner) CleanUp() error {
	s.record(callName("cleanUp", s.id))
	return s.cleanUpErr
}

func (s *fakeSigner) ClearCachedKeys() error {
	s.record(callName("clearCachedKeys", s.id))
	return s.clearErr
}

func callName(name string, id int) string {
	return name + ":" + string(rune('0'+id))
}

type transactCall struct {
	tx   core.Transaction
	opts core.TransactOptions
}

type fakeLedger struct {
	rpcURL   string
	signer   ports.SignerHandle
	result   *core.TransactResult
	err      error
	accounts map[string]bool
	calls    []transactCall
	closed   bool
}

func (l *fakeLedger) Transact(ctx context.Context, tx core.Transaction, opts core.TransactOptions) (*core.TransactResult, error) {
	l.calls = append(l.calls, transactCall{tx: tx, opts: opts})
	if l.err != nil {
		return nil, l.err
	}
	return l.result, nil
}

func (l *fakeLedger) GetAccount(ctx context.Context, name string) (*core.Account, error) {
	if !l.accounts[name] {
		return nil, core.ErrAccountNotFound
	}
	return &core.Account{AccountName: name}, nil
}

func (l *fakeLedger) Close() { l.closed = true }

type ledgerRecorder struct {
	ledgers  []*fakeLedger
	result   *core.TransactResult
	err      error
	accounts map[string]bool
}

func (r *ledgerRecorder) factory(ctx context.Context, rpcURL string, signer ports.SignerHandle) (ports.LedgerClient, error) {
	l := &fakeLedger{
		rpcURL:   rpcURL,
		signer:   signer,
		result:   r.result,
		err:      r.err,
		accounts: r.accounts,
	}
	r.ledgers = append(r.ledgers, l)
	return l, nil
}

type publishedEvent struct {
	kind    string
	chainID string
	account string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) add(kind, chainID, account string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{kind: kind, chainID: chainID, account: account})
	return nil
}

func (p *fakePublisher) PublishLogin(ctx context.Context, chainID, accountName string) error {
	return p.add("login", chainID, accountName)
}

func (p *fakePublisher) PublishLogout(ctx context.Context, chainID, accountName string) error {
	return p.add("logout", chainID, accountName)
}

func (p *fakePublisher) PublishTransactionSigned(ctx context.Context, chainID, accountName, transactionID string, broadcast bool) error {
	return p.add("signed", chainID, accountName)
}
