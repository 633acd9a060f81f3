package sigma

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/moveguard/confidential-core/elgamal"
	"github.com/moveguard/confidential-core/group"
	"github.com/moveguard/confidential-core/keys"
)

type transferScenario struct {
	senderPub, recipPub         group.Point
	oldCT, newCT, recipCT       elgamal.ChunkedCiphertext
	auditorPub                  group.Point
	auditorCT                   *elgamal.ChunkedCiphertext
	witness                     TransferWitness
}

func buildTransferScenario(t *testing.T, senderAmount, transferAmount int64, withAuditor bool) transferScenario {
	t.Helper()
	senderKey, err := keys.Generate()
	require.NoError(t, err)
	senderPub, err := senderKey.EncryptionKey()
	require.NoError(t, err)

	recipKey, err := keys.Generate()
	require.NoError(t, err)
	recipPub, err := recipKey.EncryptionKey()
	require.NoError(t, err)

	oldCT, _, err := elgamal.EncryptChunked(big.NewInt(senderAmount), senderPub)
	require.NoError(t, err)

	newAmount := big.NewInt(senderAmount - transferAmount)
	newCT, rs, err := elgamal.EncryptChunked(newAmount, senderPub)
	require.NoError(t, err)

	recipCT, ss, err := elgamal.EncryptChunked(big.NewInt(transferAmount), recipPub)
	require.NoError(t, err)

	w := TransferWitness{
		D: senderKey.Scalar(),
		V: elgamal.Split(big.NewInt(transferAmount)),
		R: rs,
		S: ss,
	}

	sc := transferScenario{
		senderPub: senderPub, recipPub: recipPub,
		oldCT: oldCT, newCT: newCT, recipCT: recipCT,
		witness: w,
	}

	if withAuditor {
		auditorKey, err := keys.Generate()
		require.NoError(t, err)
		auditorPub, err := auditorKey.EncryptionKey()
		require.NoError(t, err)
		auditorCT, as, err := elgamal.EncryptChunked(big.NewInt(transferAmount), auditorPub)
		require.NoError(t, err)
		sc.auditorPub = auditorPub
		sc.auditorCT = &auditorCT
		sc.witness.A = as
	}
	return sc
}

func TestBuildVerifyTransferProofRoundTripNoAuditor(t *testing.T) {
	sc := buildTransferScenario(t, 1000, 300, false)
	account, token := []byte("acct"), []byte("tok")

	proof, err := BuildTransferProof(account, token, sc.senderPub, sc.recipPub, sc.oldCT, sc.newCT, sc.recipCT, sc.auditorPub, sc.auditorCT, sc.witness)
	require.NoError(t, err)
	require.False(t, proof.HasAuditor)
	require.NoError(t, VerifyTransferProof(account, token, sc.senderPub, sc.recipPub, sc.oldCT, sc.newCT, sc.recipCT, sc.auditorPub, sc.auditorCT, proof))
}

func TestBuildVerifyTransferProofRoundTripWithAuditor(t *testing.T) {
	sc := buildTransferScenario(t, 1000, 300, true)
	account, token := []byte("acct"), []byte("tok")

	proof, err := BuildTransferProof(account, token, sc.senderPub, sc.recipPub, sc.oldCT, sc.newCT, sc.recipCT, sc.auditorPub, sc.auditorCT, sc.witness)
	require.NoError(t, err)
	require.True(t, proof.HasAuditor)
	require.NoError(t, VerifyTransferProof(account, token, sc.senderPub, sc.recipPub, sc.oldCT, sc.newCT, sc.recipCT, sc.auditorPub, sc.auditorCT, proof))
}

func TestVerifyTransferProofRejectsAuditorPresenceMismatch(t *testing.T) {
	sc := buildTransferScenario(t, 1000, 300, true)
	account, token := []byte("acct"), []byte("tok")

	proof, err := BuildTransferProof(account, token, sc.senderPub, sc.recipPub, sc.oldCT, sc.newCT, sc.recipCT, sc.auditorPub, sc.auditorCT, sc.witness)
	require.NoError(t, err)

	require.Error(t, VerifyTransferProof(account, token, sc.senderPub, sc.recipPub, sc.oldCT, sc.newCT, sc.recipCT, sc.auditorPub, nil, proof))
}

func TestVerifyTransferProofRejectsMismatchedRecipientAmount(t *testing.T) {
	sc := buildTransferScenario(t, 1000, 300, false)
	account, token := []byte("acct"), []byte("tok")

	otherRecipCT, ss, err := elgamal.EncryptChunked(big.NewInt(301), sc.recipPub)
	require.NoError(t, err)
	sc.witness.S = ss

	proof, err := BuildTransferProof(account, token, sc.senderPub, sc.recipPub, sc.oldCT, sc.newCT, otherRecipCT, sc.auditorPub, sc.auditorCT, sc.witness)
	require.NoError(t, err)
	require.Error(t, VerifyTransferProof(account, token, sc.senderPub, sc.recipPub, sc.oldCT, sc.newCT, otherRecipCT, sc.auditorPub, sc.auditorCT, proof))
}

func TestVerifyTransferProofRejectsUnsupportedVersion(t *testing.T) {
	sc := buildTransferScenario(t, 1000, 300, false)
	account, token := []byte("acct"), []byte("tok")

	proof, err := BuildTransferProof(account, token, sc.senderPub, sc.recipPub, sc.oldCT, sc.newCT, sc.recipCT, sc.auditorPub, sc.auditorCT, sc.witness)
	require.NoError(t, err)

	proof.Version = 3
	require.Error(t, VerifyTransferProof(account, token, sc.senderPub, sc.recipPub, sc.oldCT, sc.newCT, sc.recipCT, sc.auditorPub, sc.auditorCT, proof))
}
