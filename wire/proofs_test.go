package wire

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/moveguard/confidential-core/elgamal"
	"github.com/moveguard/confidential-core/group"
	"github.com/moveguard/confidential-core/keys"
	"github.com/moveguard/confidential-core/sigma"
)

func TestMarshalUnmarshalWithdrawalProofRoundTrip(t *testing.T) {
	k, err := keys.Generate()
	require.NoError(t, err)
	pub, err := k.EncryptionKey()
	require.NoError(t, err)

	oldCT, _, err := elgamal.EncryptChunked(big.NewInt(1000), pub)
	require.NoError(t, err)
	newAmount := big.NewInt(700)
	newCT, rs, err := elgamal.EncryptChunked(newAmount, pub)
	require.NoError(t, err)

	w := sigma.WithdrawWitness{D: k.Scalar(), R: rs, M: elgamal.Split(newAmount)}
	proof, err := sigma.BuildWithdrawalProof([]byte("acct"), []byte("tok"), pub, oldCT, newCT, 300, w)
	require.NoError(t, err)

	buf, err := MarshalWithdrawalProof(proof)
	require.NoError(t, err)
	got, err := UnmarshalWithdrawalProof(buf)
	require.NoError(t, err)

	require.NoError(t, sigma.VerifyWithdrawalProof([]byte("acct"), []byte("tok"), pub, oldCT, newCT, 300, got))
}

func TestUnmarshalWithdrawalProofRejectsUnsupportedVersion(t *testing.T) {
	buf := make([]byte, 300)
	buf[0], buf[1] = 9, 0
	_, err := UnmarshalWithdrawalProof(buf)
	require.Error(t, err)
}

func TestUnmarshalWithdrawalProofRejectsTruncatedBuffer(t *testing.T) {
	buf := []byte{1, 0}
	_, err := UnmarshalWithdrawalProof(buf)
	require.Error(t, err)
}

func TestMarshalUnmarshalNormalizationProofRoundTrip(t *testing.T) {
	k, err := keys.Generate()
	require.NoError(t, err)
	pub, err := k.EncryptionKey()
	require.NoError(t, err)

	amount := big.NewInt(555)
	oldCT, _, err := elgamal.EncryptChunked(amount, pub)
	require.NoError(t, err)
	newCT, rs, err := elgamal.EncryptChunked(amount, pub)
	require.NoError(t, err)

	w := sigma.NormalizeWitness{D: k.Scalar(), R: rs, M: elgamal.Split(amount)}
	proof, err := sigma.BuildNormalizationProof([]byte("acct"), []byte("tok"), pub, oldCT, newCT, w)
	require.NoError(t, err)

	buf, err := MarshalNormalizationProof(proof)
	require.NoError(t, err)
	got, err := UnmarshalNormalizationProof(buf)
	require.NoError(t, err)

	require.NoError(t, sigma.VerifyNormalizationProof([]byte("acct"), []byte("tok"), pub, oldCT, newCT, got))
}

func TestMarshalUnmarshalRotationProofRoundTrip(t *testing.T) {
	oldKey, err := keys.Generate()
	require.NoError(t, err)
	oldPub, err := oldKey.EncryptionKey()
	require.NoError(t, err)
	newKey, err := keys.Generate()
	require.NoError(t, err)
	newPub, err := newKey.EncryptionKey()
	require.NoError(t, err)

	amount := big.NewInt(9000)
	oldCT, _, err := elgamal.EncryptChunked(amount, oldPub)
	require.NoError(t, err)
	newCT, ss, err := elgamal.EncryptChunked(amount, newPub)
	require.NoError(t, err)

	w := sigma.RotateWitness{DOld: oldKey.Scalar(), DNew: newKey.Scalar(), S: ss, M: elgamal.Split(amount)}
	proof, err := sigma.BuildRotationProof([]byte("acct"), []byte("tok"), oldPub, newPub, oldCT, newCT, w)
	require.NoError(t, err)

	buf, err := MarshalRotationProof(proof)
	require.NoError(t, err)
	got, err := UnmarshalRotationProof(buf)
	require.NoError(t, err)

	require.NoError(t, sigma.VerifyRotationProof([]byte("acct"), []byte("tok"), oldPub, newPub, oldCT, newCT, got))
}

func buildTestTransferProof(t *testing.T, withAuditor bool) (group.Point, group.Point, elgamal.ChunkedCiphertext, elgamal.ChunkedCiphertext, elgamal.ChunkedCiphertext, group.Point, *elgamal.ChunkedCiphertext, sigma.TransferProof) {
	t.Helper()
	senderKey, err := keys.Generate()
	require.NoError(t, err)
	senderPub, err := senderKey.EncryptionKey()
	require.NoError(t, err)
	recipKey, err := keys.Generate()
	require.NoError(t, err)
	recipPub, err := recipKey.EncryptionKey()
	require.NoError(t, err)

	oldCT, _, err := elgamal.EncryptChunked(big.NewInt(1000), senderPub)
	require.NoError(t, err)
	newCT, rs, err := elgamal.EncryptChunked(big.NewInt(700), senderPub)
	require.NoError(t, err)
	recipCT, ss, err := elgamal.EncryptChunked(big.NewInt(300), recipPub)
	require.NoError(t, err)

	w := sigma.TransferWitness{D: senderKey.Scalar(), V: elgamal.Split(big.NewInt(300)), R: rs, S: ss}

	var auditorPub group.Point
	var auditorCT *elgamal.ChunkedCiphertext
	if withAuditor {
		auditorKey, err := keys.Generate()
		require.NoError(t, err)
		auditorPub, err = auditorKey.EncryptionKey()
		require.NoError(t, err)
		ct, as, err := elgamal.EncryptChunked(big.NewInt(300), auditorPub)
		require.NoError(t, err)
		auditorCT = &ct
		w.A = as
	}

	proof, err := sigma.BuildTransferProof([]byte("acct"), []byte("tok"), senderPub, recipPub, oldCT, newCT, recipCT, auditorPub, auditorCT, w)
	require.NoError(t, err)
	return senderPub, recipPub, oldCT, newCT, recipCT, auditorPub, auditorCT, proof
}

func TestMarshalUnmarshalTransferProofRoundTripNoAuditor(t *testing.T) {
	senderPub, recipPub, oldCT, newCT, recipCT, auditorPub, auditorCT, proof := buildTestTransferProof(t, false)

	buf, err := MarshalTransferProof(proof)
	require.NoError(t, err)
	got, err := UnmarshalTransferProof(buf)
	require.NoError(t, err)
	require.False(t, got.HasAuditor)

	require.NoError(t, sigma.VerifyTransferProof([]byte("acct"), []byte("tok"), senderPub, recipPub, oldCT, newCT, recipCT, auditorPub, auditorCT, got))
}

func TestMarshalUnmarshalTransferProofRoundTripWithAuditor(t *testing.T) {
	senderPub, recipPub, oldCT, newCT, recipCT, auditorPub, auditorCT, proof := buildTestTransferProof(t, true)

	buf, err := MarshalTransferProof(proof)
	require.NoError(t, err)
	got, err := UnmarshalTransferProof(buf)
	require.NoError(t, err)
	require.True(t, got.HasAuditor)

	require.NoError(t, sigma.VerifyTransferProof([]byte("acct"), []byte("tok"), senderPub, recipPub, oldCT, newCT, recipCT, auditorPub, auditorCT, got))
}

func TestUnmarshalTransferProofRejectsTruncatedHeader(t *testing.T) {
	_, err := UnmarshalTransferProof([]byte{1, 0})
	require.Error(t, err)
}
