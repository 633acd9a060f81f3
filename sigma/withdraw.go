package sigma

import (
	"fmt"
	"math/big"

	"github.com/moveguard/confidential-core/elgamal"
	"github.com/moveguard/confidential-core/group"
	"github.com/moveguard/confidential-core/rangeproof"
	"github.com/moveguard/confidential-core/transcript"
)

// WithdrawTag is the Fiat-Shamir domain tag for withdrawal proofs.
const WithdrawTag = "CA-SIGMA-WITHDRAW-v1"

// WithdrawalProof bundles the linear-relation Sigma proof binding the
// sender's decryption key and new chunk randomness to the claimed debit,
// plus one range proof per new chunk (spec §4.4.1).
type WithdrawalProof struct {
	Version     uint16
	Proof       Proof
	RangeProofs [elgamal.NumChunks]rangeproof.RangeProof
}

// WithdrawWitness carries everything the prover knows that the verifier
// does not: the decryption key and the fresh per-chunk randomness and
// plaintexts used to build the new ciphertext.
type WithdrawWitness struct {
	D *big.Int
	R [elgamal.NumChunks]*big.Int
	M [elgamal.NumChunks]*big.Int
}

func withdrawTranscript(account, token []byte, pub group.Point, oldCT, newCT elgamal.ChunkedCiphertext, amount uint64) *transcript.Transcript {
	t := transcript.New(WithdrawTag)
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
	t.AbsorbScalar(new(big.Int).SetUint64(amount))
	return t
}

// withdrawStatement builds the shared linear-relation statement: one
// discrete-log equation per new chunk's D component (Dᵢ = rᵢ·P), plus a
// master equation tying the sender's decryption key d and the same rᵢ to
// the public debit relation Σ mᵢ·2^16i = m_old - amount. The master
// equation's right-hand side K is computed entirely from public points, so
// neither m_old nor any mᵢ ever needs to appear in the statement.
func withdrawStatement(pub group.Point, oldCT, newCT elgamal.ChunkedCiphertext, amount uint64) Statement {
	stmt := Statement{}
	for i, c := range newCT.Chunks {
		stmt.Equations = append(stmt.Equations, Equation{
			Terms: []Term{{Secret: rName(i), Coeff: big.NewInt(1), Generator: pub}},
			RHS:   c.D,
		})
	}

	masterTerms := []Term{{Secret: "d", Coeff: big.NewInt(1), Generator: aggregateDPoint(oldCT)}}
	power := big.NewInt(1)
	for i := 0; i < elgamal.NumChunks; i++ {
		masterTerms = append(masterTerms, Term{
			Secret:    rName(i),
			Coeff:     new(big.Int).Neg(power),
			Generator: group.H(),
		})
		power = new(big.Int).Lsh(power, elgamal.ChunkBits)
	}
	stmt.Equations = append(stmt.Equations, Equation{
		Terms: masterTerms,
		RHS:   aggregateDebitPoint(oldCT, newCT, amount),
	})
	return stmt
}

// aggregateDebitPoint computes K = Σ2^16i·C_old_i.C - amount·G₀ - Σ2^16i·C_new_i.C.
// For the genuine decryption key d and the genuine aggregate blinding
// R = Σ2^16i·rᵢ baked into newCT, d·D_agg - R·H == K holds exactly iff
// Σ mᵢ·2^16i == m_old - amount, where D_agg is aggregateDPoint(oldCT).
func aggregateDebitPoint(oldCT, newCT elgamal.ChunkedCiphertext, amount uint64) group.Point {
	sumOldC := group.Identity()
	power := big.NewInt(1)
	for _, c := range oldCT.Chunks {
		sumOldC = sumOldC.Add(c.C.ScalarMult(power))
		power = new(big.Int).Lsh(power, elgamal.ChunkBits)
	}
	sumNewC := group.Identity()
	power = big.NewInt(1)
	for _, c := range newCT.Chunks {
		sumNewC = sumNewC.Add(c.C.ScalarMult(power))
		power = new(big.Int).Lsh(power, elgamal.ChunkBits)
	}
	amountPoint := group.ScalarBaseMult(new(big.Int).SetUint64(amount))
	return sumOldC.Sub(amountPoint).Sub(sumNewC)
}

// aggregateDPoint returns the chunk-weighted aggregate of a chunked
// ciphertext's D components, Σ2^16i·Dᵢ.
func aggregateDPoint(ct elgamal.ChunkedCiphertext) group.Point {
	sum := group.Identity()
	power := big.NewInt(1)
	for _, c := range ct.Chunks {
		sum = sum.Add(c.D.ScalarMult(power))
		power = new(big.Int).Lsh(power, elgamal.ChunkBits)
	}
	return sum
}

func rName(i int) string { return fmt.Sprintf("r%d", i) }

// BuildWithdrawalProof proves that newCT debits amount from oldCT under pub,
// with every chunk of newCT in [0, 2^16).
func BuildWithdrawalProof(account, token []byte, pub group.Point, oldCT, newCT elgamal.ChunkedCiphertext, amount uint64, w WithdrawWitness) (WithdrawalProof, error) {
	stmt := withdrawStatement(pub, oldCT, newCT, amount)
	t := withdrawTranscript(account, token, pub, oldCT, newCT, amount)

	witness := map[string]*big.Int{"d": w.D}
	for i := 0; i < elgamal.NumChunks; i++ {
		witness[rName(i)] = w.R[i]
	}
	proof, err := Prove(t, stmt, witness)
	if err != nil {
		return WithdrawalProof{}, fmt.Errorf("sigma: withdrawal proof: %w", err)
	}

	var ranges [elgamal.NumChunks]rangeproof.RangeProof
	for i := 0; i < elgamal.NumChunks; i++ {
		rp, err := rangeproof.Prove(w.M[i], w.R[i], elgamal.ChunkBits)
		if err != nil {
			return WithdrawalProof{}, fmt.Errorf("sigma: withdrawal range proof chunk %d: %w", i, err)
		}
		ranges[i] = rp
	}
	return WithdrawalProof{Version: 1, Proof: proof, RangeProofs: ranges}, nil
}

// VerifyWithdrawalProof checks a WithdrawalProof against the public
// statement.
func VerifyWithdrawalProof(account, token []byte, pub group.Point, oldCT, newCT elgamal.ChunkedCiphertext, amount uint64, p WithdrawalProof) error {
	if p.Version != 1 {
		return fmt.Errorf("sigma: withdrawal proof: unsupported version %d", p.Version)
	}
	stmt := withdrawStatement(pub, oldCT, newCT, amount)
	t := withdrawTranscript(account, token, pub, oldCT, newCT, amount)
	if err := Verify(t, stmt, p.Proof); err != nil {
		return fmt.Errorf("sigma: withdrawal proof: %w", err)
	}
	for i, c := range newCT.Chunks {
		if err := rangeproof.Verify(c.C, p.RangeProofs[i]); err != nil {
			return fmt.Errorf("sigma: withdrawal range proof chunk %d: %w", i, err)
		}
	}
	return nil
}
