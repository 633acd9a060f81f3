package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/moveguard/confidential-core/elgamal"
	"github.com/moveguard/confidential-core/group"
)

func TestCachePutGetRoundTrip(t *testing.T) {
	c, err := Open(t.TempDir(), 16)
	require.NoError(t, err)
	defer c.Close()

	ct, _, err := elgamal.EncryptChunked(big.NewInt(4200), group.Generator())
	require.NoError(t, err)
	rec := BalanceRecord{
		EncryptionKey:  group.H(),
		Pending:        elgamal.ZeroChunked(),
		Available:      ct,
		IsNormalized:   true,
		SequenceNumber: 7,
	}

	require.NoError(t, c.Put("alice", "usdc", rec))

	got, ok, err := c.Get("alice", "usdc")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, rec.IsNormalized, got.IsNormalized)
	require.Equal(t, rec.SequenceNumber, got.SequenceNumber)
	require.True(t, rec.EncryptionKey.Equal(got.EncryptionKey))
	for i := range rec.Available.Chunks {
		require.True(t, rec.Available.Chunks[i].C.Equal(got.Available.Chunks[i].C))
		require.True(t, rec.Available.Chunks[i].D.Equal(got.Available.Chunks[i].D))
	}
}

func TestCacheGetMissReturnsFalse(t *testing.T) {
	c, err := Open(t.TempDir(), 16)
	require.NoError(t, err)
	defer c.Close()

	_, ok, err := c.Get("nobody", "usdc")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCacheGetSurvivesHotTierEviction(t *testing.T) {
	c, err := Open(t.TempDir(), 1)
	require.NoError(t, err)
	defer c.Close()

	rec1 := BalanceRecord{EncryptionKey: group.Generator(), Pending: elgamal.ZeroChunked(), Available: elgamal.ZeroChunked(), IsNormalized: true}
	rec2 := BalanceRecord{EncryptionKey: group.H(), Pending: elgamal.ZeroChunked(), Available: elgamal.ZeroChunked(), IsNormalized: true}

	require.NoError(t, c.Put("a", "usdc", rec1))
	require.NoError(t, c.Put("b", "usdc", rec2))

	got, ok, err := c.Get("a", "usdc")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, got.EncryptionKey.Equal(rec1.EncryptionKey))
}

func TestCacheInvalidateForcesMiss(t *testing.T) {
	c, err := Open(t.TempDir(), 16)
	require.NoError(t, err)
	defer c.Close()

	rec := BalanceRecord{EncryptionKey: group.Generator(), Pending: elgamal.ZeroChunked(), Available: elgamal.ZeroChunked(), IsNormalized: true}
	require.NoError(t, c.Put("alice", "usdc", rec))
	c.Invalidate("alice", "usdc")

	_, ok, err := c.Get("alice", "usdc")
	require.NoError(t, err)
	require.False(t, ok)
}
