package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/ualauth/core"
	"github.com/layer-3/ualauth/ports"
)

func testChain() core.Chain {
	return core.Chain{
		ChainID: "testChainId",
		RPCEndpoints: []core.RPCEndpoint{{
			Protocol: "https",
			Host:     "testHost",
			Port:     1234,
		}},
	}
}

func testTransaction() core.Transaction {
	return core.Transaction{
		Actions: []core.Action{{
			Account: "example",
			Name:    "test",
			Authorization: []core.PermissionLevel{{
				Actor:      "test",
				Permission: "active",
			}},
		}},
	}
}

func executedResult() *core.TransactResult {
	return &core.TransactResult{
		TransactionID: "abcd",
		Processed: &core.Processed{
			Receipt: &core.Receipt{Status: "executed"},
		},
	}
}

func boolPtr(b bool) *bool    { return &b }
func u32Ptr(v uint32) *uint32 { return &v }

func TestSessionInit(t *testing.T) {
	ctx := context.Background()

	t.Run("builds signer and ledger client", func(t *testing.T) {
		capability := newFakeCapability()
		ledgers := &ledgerRecorder{}

		session := NewSession(testChain(), "testAccount", nil, capability, ledgers.factory)
		require.NoError(t, session.Init(ctx))

		require.Len(t, capability.configs, 1)
		assert.Equal(t, ports.SignerConfig{
			DeclaredDomain: "testDeclaredDomain",
			ReturnURL:      "testReturnURL",
		}, capability.configs[0])

		require.Len(t, ledgers.ledgers, 1)
		assert.Equal(t, "https://testHost:1234", ledgers.ledgers[0].rpcURL)
		assert.Same(t, capability.signers[0], ledgers.ledgers[0].signer)

		signer, ok := session.Signer()
		require.True(t, ok)
		assert.Same(t, capability.signers[0], signer)
	})

	t.Run("passes options to the signer", func(t *testing.T) {
		capability := newFakeCapability()
		options := &core.Options{AppName: "testAppName"}

		session := NewSession(testChain(), "testAccount", options, capability, (&ledgerRecorder{}).factory)
		require.NoError(t, session.Init(ctx))

		assert.Equal(t, ports.SignerConfig{
			DeclaredDomain: "testDeclaredDomain",
			ReturnURL:      "testReturnURL",
			Options:        options,
		}, capability.configs[0])
	})

	t.Run("passes security exclusions ahead of options", func(t *testing.T) {
		capability := newFakeCapability()
		options := &core.Options{
			AppName:            "testAppName",
			SecurityExclusions: &core.SecurityExclusions{AddAssertToTransactions: false},
		}

		session := NewSession(testChain(), "testAccount", options, capability, (&ledgerRecorder{}).factory)
		require.NoError(t, session.Init(ctx))

		assert.Equal(t, ports.SignerConfig{
			DeclaredDomain:     "testDeclaredDomain",
			ReturnURL:          "testReturnURL",
			SecurityExclusions: options.SecurityExclusions,
			Options:            options,
		}, capability.configs[0])
	})

	t.Run("fails without rpc endpoints", func(t *testing.T) {
		chain := testChain()
		chain.RPCEndpoints = nil

		session := NewSession(chain, "testAccount", nil, newFakeCapability(), (&ledgerRecorder{}).factory)
		err := session.Init(ctx)
		require.Error(t, err)

		kind, ok := core.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, core.KindInitialization, kind)
		assert.ErrorIs(t, err, core.ErrNoRPCEndpoint)
	})

	t.Run("fails when the signer cannot be built", func(t *testing.T) {
		capability := newFakeCapability()
		capability.factory = func(ports.SignerConfig) (ports.SignerHandle, error) {
			return nil, errors.New("extension missing")
		}

		session := NewSession(testChain(), "testAccount", nil, capability, (&ledgerRecorder{}).factory)
		err := session.Init(ctx)

		kind, _ := core.KindOf(err)
		assert.Equal(t, core.KindInitialization, kind)
		_, ok := session.Signer()
		assert.False(t, ok)
	})
}

func TestSessionIsAccountValid(t *testing.T) {
	ctx := context.Background()
	ledgers := &ledgerRecorder{accounts: map[string]bool{"alice": true}}

	alice := NewSession(testChain(), "alice", nil, newFakeCapability(), ledgers.factory)
	require.NoError(t, alice.Init(ctx))
	valid, err := alice.IsAccountValid(ctx)
	require.NoError(t, err)
	assert.True(t, valid)

	bob := NewSession(testChain(), "bob", nil, newFakeCapability(), ledgers.factory)
	require.NoError(t, bob.Init(ctx))
	valid, err = bob.IsAccountValid(ctx)
	require.NoError(t, err)
	assert.False(t, valid)

	uninit := NewSession(testChain(), "alice", nil, newFakeCapability(), ledgers.factory)
	valid, err = uninit.IsAccountValid(ctx)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestSessionSignTransaction(t *testing.T) {
	ctx := context.Background()

	newReadySession := func(t *testing.T, ledgers *ledgerRecorder) *Session {
		session := NewSession(testChain(), "testAccount", nil, newFakeCapability(), ledgers.factory)
		require.NoError(t, session.Init(ctx))
		return session
	}

	t.Run("uses the given configuration", func(t *testing.T) {
		ledgers := &ledgerRecorder{result: executedResult()}
		session := newReadySession(t, ledgers)

		config := core.TransactConfig{Broadcast: boolPtr(false), BlocksBehind: u32Ptr(6), ExpireSeconds: u32Ptr(90)}
		_, err := session.SignTransaction(ctx, testTransaction(), config)
		require.NoError(t, err)

		calls := ledgers.ledgers[0].calls
		require.Len(t, calls, 1)
		assert.Equal(t, testTransaction(), calls[0].tx)
		assert.Equal(t, core.TransactOptions{Broadcast: false, BlocksBehind: 6, ExpireSeconds: 90}, calls[0].opts)
	})

	t.Run("uses defaults when no configuration is given", func(t *testing.T) {
		ledgers := &ledgerRecorder{result: executedResult()}
		session := newReadySession(t, ledgers)

		_, err := session.SignTransaction(ctx, testTransaction(), core.TransactConfig{})
		require.NoError(t, err)

		assert.Equal(t, core.TransactOptions{Broadcast: true, BlocksBehind: 3, ExpireSeconds: 30}, ledgers.ledgers[0].calls[0].opts)
	})

	t.Run("overrides only the given keys", func(t *testing.T) {
		ledgers := &ledgerRecorder{result: executedResult()}
		session := newReadySession(t, ledgers)

		_, err := session.SignTransaction(ctx, testTransaction(), core.TransactConfig{Broadcast: boolPtr(false)})
		require.NoError(t, err)

		assert.Equal(t, core.TransactOptions{Broadcast: false, BlocksBehind: 3, ExpireSeconds: 30}, ledgers.ledgers[0].calls[0].opts)
	})

	t.Run("maps the ledger result", func(t *testing.T) {
		raw := executedResult()
		ledgers := &ledgerRecorder{result: raw}
		publisher := &fakePublisher{}
		session := NewSession(testChain(), "testAccount", nil, newFakeCapability(), ledgers.factory, WithSessionPublisher(publisher))
		require.NoError(t, session.Init(ctx))

		result, err := session.SignTransaction(ctx, testTransaction(), core.TransactConfig{Broadcast: boolPtr(true)})
		require.NoError(t, err)

		assert.Equal(t, &core.SignResult{
			WasBroadcast:  true,
			TransactionID: "abcd",
			Status:        "executed",
			Transaction:   raw,
		}, result)
		assert.Equal(t, []publishedEvent{{kind: "signed", chainID: "testChainId", account: "testAccount"}}, publisher.events)
	})

	t.Run("wraps ledger failures as signing errors", func(t *testing.T) {
		cause := errors.New("Unable to sign")
		ledgers := &ledgerRecorder{err: cause}
		session := newReadySession(t, ledgers)

		_, err := session.SignTransaction(ctx, testTransaction(), core.TransactConfig{})
		require.Error(t, err)

		kind, _ := core.KindOf(err)
		assert.Equal(t, core.KindSigning, kind)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("rejects signing before init", func(t *testing.T) {
		ledgers := &ledgerRecorder{result: executedResult()}
		session := NewSession(testChain(), "testAccount", nil, newFakeCapability(), ledgers.factory, WithErrorSource("UALARISENAuthError"))

		_, err := session.SignTransaction(ctx, testTransaction(), core.TransactConfig{})
		require.Error(t, err)

		kind, _ := core.KindOf(err)
		assert.Equal(t, core.KindSigning, kind)
		causeKind, ok := core.CauseKind(err)
		require.True(t, ok)
		assert.Equal(t, core.KindInitialization, causeKind)
		assert.ErrorIs(t, err, core.ErrNotInitialized)
		assert.Empty(t, ledgers.ledgers)

		var authErr *core.AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, "UALARISENAuthError", authErr.Source)
	})
}

func TestSessionKeys(t *testing.T) {
	ctx := context.Background()
	capability := newFakeCapability()
	session := NewSession(testChain(), "testAccount", nil, capability, (&ledgerRecorder{}).factory)

	_, err := session.Keys(ctx)
	assert.ErrorIs(t, err, core.ErrNotInitialized)

	require.NoError(t, session.Init(ctx))
	capability.signers[0].keys = []string{"PUB_K1_abc"}

	keys, err := session.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"PUB_K1_abc"}, keys)
}
