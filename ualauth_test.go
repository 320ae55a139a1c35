package ualauth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/ualauth"
	"github.com/layer-3/ualauth/adapters/platform"
	"github.com/layer-3/ualauth/core"
	"github.com/layer-3/ualauth/ports"
)

const testKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

type stubLedger struct {
	opts core.TransactOptions
}

func (l *stubLedger) Transact(ctx context.Context, tx core.Transaction, opts core.TransactOptions) (*core.TransactResult, error) {
	l.opts = opts
	return &core.TransactResult{
		TransactionID: "feed",
		Processed:     &core.Processed{Receipt: &core.Receipt{Status: "executed"}},
	}, nil
}

func (l *stubLedger) GetAccount(ctx context.Context, name string) (*core.Account, error) {
	if name != "alice" {
		return nil, core.ErrAccountNotFound
	}
	return &core.Account{AccountName: name}, nil
}

func (l *stubLedger) Close() {}

func testChains() []core.Chain {
	return []core.Chain{{
		ChainID:      "chain-a",
		RPCEndpoints: []core.RPCEndpoint{{Protocol: "http", Host: "localhost", Port: 8888}},
	}}
}

func TestNewDWebIDWithLocalKeys(t *testing.T) {
	ledger := &stubLedger{}
	var auth ualauth.Authenticator
	auth, err := ualauth.NewDWebID(ualauth.Config{
		Chains:    testChains(),
		LocalKeys: []string{testKey},
		NewLedger: func(ctx context.Context, rpcURL string, signer ports.SignerHandle) (ports.LedgerClient, error) {
			return ledger, nil
		},
		CheckerOpts: []platform.Option{platform.WithGOOS("darwin")},
	})
	require.NoError(t, err)

	auth.Init(context.Background())
	assert.False(t, auth.IsErrored())
	assert.True(t, auth.ShouldRender())
	assert.Equal(t, "dWebID", auth.Style().Text)

	users, err := auth.Login(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, users, 1)

	var user ualauth.User = users[0]
	keys, err := user.Keys(context.Background())
	require.NoError(t, err)
	assert.Len(t, keys, 1)

	result, err := user.SignTransaction(context.Background(), core.Transaction{}, core.TransactConfig{})
	require.NoError(t, err)
	assert.True(t, result.WasBroadcast)
	assert.Equal(t, "executed", result.Status)
	assert.Equal(t, core.TransactOptions{Broadcast: true, BlocksBehind: 3, ExpireSeconds: 30}, ledger.opts)

	require.NoError(t, auth.Logout(context.Background()))
}

func TestNewPeepsIDiOSWithBridge(t *testing.T) {
	bridge := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer bridge.Close()

	auth, err := ualauth.NewPeepsIDiOS(ualauth.Config{
		Chains:      testChains(),
		BridgeURL:   bridge.URL,
		CheckerOpts: []platform.Option{platform.WithGOOS("linux")},
	})
	require.NoError(t, err)

	assert.False(t, auth.ShouldRender())
	assert.Equal(t, "https://github.com/arisenio/arisen-ual-peepsid-ios", auth.OnboardingLink())

	auth.Init(context.Background())
	assert.True(t, auth.IsErrored())

	kind, ok := core.KindOf(auth.Err())
	assert.True(t, ok)
	assert.Equal(t, core.KindInitialization, kind)
	assert.ErrorIs(t, auth.Err(), core.ErrAuthenticatorUnavailable)
	assert.Contains(t, auth.Err().Error(), "Error occurred during initialization")
}

func TestNewRejectsIncompleteConfig(t *testing.T) {
	_, err := ualauth.NewDWebID(ualauth.Config{LocalKeys: []string{testKey}})
	assert.Error(t, err)

	_, err = ualauth.NewDWebID(ualauth.Config{Chains: testChains()})
	assert.Error(t, err)

	_, err = ualauth.NewDWebID(ualauth.Config{Chains: testChains(), LocalKeys: []string{"zz"}})
	assert.Error(t, err)
}
