package signer

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/ualauth/adapters/store"
	"github.com/layer-3/ualauth/core"
	"github.com/layer-3/ualauth/ports"
)

const testKeyHex = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestLocalProvider(t *testing.T) {
	ctx := context.Background()
	cache := store.NewMemoryStore()

	factory, err := NewLocalFactoryFromHex(cache, time.Minute, testKeyHex)
	require.NoError(t, err)

	cfg := ports.SignerConfig{DeclaredDomain: "example.com", ReturnURL: "https://example.com"}
	handle, err := factory(cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg, handle.(*LocalProvider).Config())

	keys, err := handle.AvailableKeys(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 1)

	cached, ok, err := cache.Get(ctx, "example.com")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, keys, cached)

	digest := crypto.Keccak256([]byte("transaction"))
	sigs, err := handle.Sign(ctx, core.SignatureRequest{ChainID: "abc", RequiredKeys: keys, Digest: digest})
	require.NoError(t, err)
	require.Len(t, sigs, 1)

	sig, err := hexutil.Decode(sigs[0])
	require.NoError(t, err)
	pub, err := crypto.SigToPub(digest, sig)
	require.NoError(t, err)
	assert.Equal(t, keys[0], PublicKeyString(pub))

	require.NoError(t, handle.ClearCachedKeys())
	_, ok, err = cache.Get(ctx, "example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, handle.CleanUp())
	_, err = handle.Sign(ctx, core.SignatureRequest{Digest: digest})
	assert.ErrorIs(t, err, ErrSignerClosed)
	_, err = handle.AvailableKeys(ctx)
	assert.ErrorIs(t, err, ErrSignerClosed)
}

func TestLocalProviderRejects(t *testing.T) {
	ctx := context.Background()
	factory, err := NewLocalFactoryFromHex(nil, 0, testKeyHex)
	require.NoError(t, err)
	handle, err := factory(ports.SignerConfig{DeclaredDomain: "example.com"})
	require.NoError(t, err)

	_, err = handle.Sign(ctx, core.SignatureRequest{Digest: []byte("short")})
	assert.ErrorIs(t, err, ErrInvalidDigest)

	_, err = handle.Sign(ctx, core.SignatureRequest{
		RequiredKeys: []string{"0x02deadbeef"},
		Digest:       crypto.Keccak256([]byte("x")),
	})
	assert.ErrorIs(t, err, ErrKeyNotAvailable)

	_, err = NewLocalFactoryFromHex(nil, 0, "not-hex")
	assert.Error(t, err)
}
