package sigma

import (
	"fmt"
	"math/big"

	"github.com/moveguard/confidential-core/elgamal"
	"github.com/moveguard/confidential-core/group"
	"github.com/moveguard/confidential-core/rangeproof"
	"github.com/moveguard/confidential-core/transcript"
)

// NormalizeTag is the Fiat-Shamir domain tag for normalization proofs.
const NormalizeTag = "CA-SIGMA-NORM-v1"

// NormalizationProof proves that a chunked ciphertext with one or more
// overflowed (wide) chunks is re-expressed as an equal-value ciphertext
// whose chunks each fit in 16 bits, without revealing the total (spec
// §4.4.3). Structurally this is a withdrawal proof with a zero public
// debit: the same master equation, amount fixed to 0.
type NormalizationProof struct {
	Version     uint16
	Proof       Proof
	RangeProofs [elgamal.NumChunks]rangeproof.RangeProof
}

// NormalizeWitness carries the owner's decryption key and the fresh
// randomness and plaintext chunks used to build the normalized ciphertext.
type NormalizeWitness struct {
	D *big.Int
	R [elgamal.NumChunks]*big.Int
	M [elgamal.NumChunks]*big.Int
}

func normalizeTranscript(account, token []byte, pub group.Point, oldCT, newCT elgamal.ChunkedCiphertext) *transcript.Transcript {
	t := transcript.New(NormalizeTag)
	t.AbsorbBytes(account)
	t.AbsorbBytes(token)
	t.AbsorbPoint(pub)
	for _, c := range oldCT.Chunks {
		t.AbsorbPoint(c.C)
		t.AbsorbPoint(c.D)
	}
	for _, c := range newCT.Chunks {
		t.AbsorbPoint(c.C)
		t.AbsorbPoint(c.D)
	}
	return t
}

// BuildNormalizationProof proves that newCT re-expresses oldCT's total value
// with every chunk of newCT in [0, 2^16).
func BuildNormalizationProof(account, token []byte, pub group.Point, oldCT, newCT elgamal.ChunkedCiphertext, w NormalizeWitness) (NormalizationProof, error) {
	stmt := withdrawStatement(pub, oldCT, newCT, 0)
	t := normalizeTranscript(account, token, pub, oldCT, newCT)

	witness := map[string]*big.Int{"d": w.D}
	for i := 0; i < elgamal.NumChunks; i++ {
		witness[rName(i)] = w.R[i]
	}
	proof, err := Prove(t, stmt, witness)
	if err != nil {
		return NormalizationProof{}, fmt.Errorf("sigma: normalization proof: %w", err)
	}

	var ranges [elgamal.NumChunks]rangeproof.RangeProof
	for i := 0; i < elgamal.NumChunks; i++ {
		rp, err := rangeproof.Prove(w.M[i], w.R[i], elgamal.ChunkBits)
		if err != nil {
			return NormalizationProof{}, fmt.Errorf("sigma: normalization range proof chunk %d: %w", i, err)
		}
		ranges[i] = rp
	}
	return NormalizationProof{Version: 1, Proof: proof, RangeProofs: ranges}, nil
}

// VerifyNormalizationProof checks a NormalizationProof against the public
// statement.
func VerifyNormalizationProof(account, token []byte, pub group.Point, oldCT, newCT elgamal.ChunkedCiphertext, p NormalizationProof) error {
	if p.Version != 1 {
		return fmt.Errorf("sigma: normalization proof: unsupported version %d", p.Version)
	}
	stmt := withdrawStatement(pub, oldCT, newCT, 0)
	t := normalizeTranscript(account, token, pub, oldCT, newCT)
	if err := Verify(t, stmt, p.Proof); err != nil {
		return fmt.Errorf("sigma: normalization proof: %w", err)
	}
	for i, c := range newCT.Chunks {
		if err := rangeproof.Verify(c.C, p.RangeProofs[i]); err != nil {
			return fmt.Errorf("sigma: normalization range proof chunk %d: %w", i, err)
		}
	}
	return nil
}
