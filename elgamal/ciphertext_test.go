package elgamal

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/moveguard/confidential-core/group"
)

func testKeyPair(t *testing.T) (d *big.Int, pub group.Point) {
	t.Helper()
	d, err := group.RandomScalar()
	require.NoError(t, err)
	inv, err := group.InvertScalar(d)
	require.NoError(t, err)
	return d, group.H().ScalarMult(inv)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	d, pub := testKeyPair(t)
	ct, _, err := Encrypt(big.NewInt(42), pub)
	require.NoError(t, err)

	v, err := DecryptValue(ct, d, 16)
	require.NoError(t, err)
	require.Equal(t, uint64(42), v)
}

func TestZeroDecryptsToZero(t *testing.T) {
	d, _ := testKeyPair(t)
	v, err := DecryptValue(Zero(), d, 16)
	require.NoError(t, err)
	require.Equal(t, uint64(0), v)
}

func TestAddSubHomomorphism(t *testing.T) {
	d, pub := testKeyPair(t)
	a, _, err := Encrypt(big.NewInt(10), pub)
	require.NoError(t, err)
	b, _, err := Encrypt(big.NewInt(5), pub)
	require.NoError(t, err)

	sum := Add(a, b)
	v, err := DecryptValue(sum, d, 16)
	require.NoError(t, err)
	require.Equal(t, uint64(15), v)

	diff := Sub(sum, b)
	v, err = DecryptValue(diff, d, 16)
	require.NoError(t, err)
	require.Equal(t, uint64(10), v)
}

func TestEncryptDeterministicReproducesSameCiphertext(t *testing.T) {
	_, pub := testKeyPair(t)
	r, err := group.RandomScalar()
	require.NoError(t, err)

	a := EncryptDeterministic(big.NewInt(7), pub, r)
	b := EncryptDeterministic(big.NewInt(7), pub, r)
	require.True(t, a.C.Equal(b.C))
	require.True(t, a.D.Equal(b.D))
}

func TestDecryptFailsUnderWrongKey(t *testing.T) {
	_, pub := testKeyPair(t)
	wrongD, _ := testKeyPair(t)
	ct, _, err := Encrypt(big.NewInt(3), pub)
	require.NoError(t, err)

	_, err = DecryptValue(ct, wrongD, 16)
	require.Error(t, err)
}
