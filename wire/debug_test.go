package wire

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/moveguard/confidential-core/elgamal"
	"github.com/moveguard/confidential-core/keys"
)

func TestDebugDumpChunkedCiphertextIsStableHex(t *testing.T) {
	key, err := keys.Generate()
	require.NoError(t, err)
	pub, err := key.EncryptionKey()
	require.NoError(t, err)

	ct, _, err := elgamal.EncryptChunked(big.NewInt(12345), pub)
	require.NoError(t, err)

	dump := DebugDumpChunkedCiphertext(ct)
	require.NotEmpty(t, dump)
	require.Equal(t, dump, DebugDumpChunkedCiphertext(ct))
}

func TestDebugDumpChunkedCiphertextDiffersForDifferentCiphertexts(t *testing.T) {
	key, err := keys.Generate()
	require.NoError(t, err)
	pub, err := key.EncryptionKey()
	require.NoError(t, err)

	a, _, err := elgamal.EncryptChunked(big.NewInt(1), pub)
	require.NoError(t, err)
	b, _, err := elgamal.EncryptChunked(big.NewInt(2), pub)
	require.NoError(t, err)

	require.NotEqual(t, DebugDumpChunkedCiphertext(a), DebugDumpChunkedCiphertext(b))
}
