package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("put get delete", func(t *testing.T) {
		s := NewMemoryStore()

		_, ok, err := s.Get(ctx, "example.com")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.Put(ctx, "example.com", []string{"PUB_K1_a", "PUB_K1_b"}, time.Minute))
		keys, ok, err := s.Get(ctx, "example.com")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []string{"PUB_K1_a", "PUB_K1_b"}, keys)

		require.NoError(t, s.Delete(ctx, "example.com"))
		_, ok, err = s.Get(ctx, "example.com")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("entries expire", func(t *testing.T) {
		now := time.Now()
		s := NewMemoryStore().(*MemoryStore)
		s.now = func() time.Time { return now }

		require.NoError(t, s.Put(ctx, "example.com", []string{"PUB_K1_a"}, time.Second))
		_, ok, _ := s.Get(ctx, "example.com")
		assert.True(t, ok)

		now = now.Add(2 * time.Second)
		_, ok, _ = s.Get(ctx, "example.com")
		assert.False(t, ok)
		assert.Empty(t, s.entries)
	})

	t.Run("zero ttl never expires", func(t *testing.T) {
		now := time.Now()
		s := NewMemoryStore().(*MemoryStore)
		s.now = func() time.Time { return now }

		require.NoError(t, s.Put(ctx, "example.com", []string{"PUB_K1_a"}, 0))
		now = now.Add(24 * time.Hour)
		_, ok, _ := s.Get(ctx, "example.com")
		assert.True(t, ok)
	})

	t.Run("returned keys are copies", func(t *testing.T) {
		s := NewMemoryStore()
		keys := []string{"PUB_K1_a"}
		require.NoError(t, s.Put(ctx, "example.com", keys, 0))
		keys[0] = "changed"

		got, _, _ := s.Get(ctx, "example.com")
		assert.Equal(t, []string{"PUB_K1_a"}, got)
	})
}
