package sigma

import (
	"fmt"
	"math/big"

	"github.com/moveguard/confidential-core/elgamal"
	"github.com/moveguard/confidential-core/group"
	"github.com/moveguard/confidential-core/rangeproof"
	"github.com/moveguard/confidential-core/transcript"
)

// TransferTag is the Fiat-Shamir domain tag for transfer proofs.
const TransferTag = "CA-SIGMA-TRANSFER-v1"

// TransferProof bundles the linear-relation Sigma proof that ties the
// sender's debit, the recipient's credit, and (optionally) an auditor's
// mirrored credit to the SAME hidden transfer amount, plus one range proof
// per chunk for both the sender's new balance and the recipient's credit
// (spec §4.4.2).
type TransferProof struct {
	Version            uint16
	HasAuditor         bool
	Proof              Proof
	SenderRangeProofs  [elgamal.NumChunks]rangeproof.RangeProof
	RecipRangeProofs   [elgamal.NumChunks]rangeproof.RangeProof
	AuditorRangeProofs [elgamal.NumChunks]rangeproof.RangeProof
}

// TransferWitness carries the secrets only the sender knows: their
// decryption key, the hidden transfer-amount chunks, and the fresh
// randomness used to build the sender's new balance, the recipient
// ciphertext, and (if present) the auditor ciphertext.
type TransferWitness struct {
	D       *big.Int
	V       [elgamal.NumChunks]*big.Int // transfer amount chunks
	R       [elgamal.NumChunks]*big.Int // sender new-balance randomness
	S       [elgamal.NumChunks]*big.Int // recipient randomness
	A       [elgamal.NumChunks]*big.Int // auditor randomness, if HasAuditor
}

func vName(i int) string { return fmt.Sprintf("v%d", i) }
func sName(i int) string { return fmt.Sprintf("s%d", i) }
func aName(i int) string { return fmt.Sprintf("a%d", i) }

// auditorAbsorb is separated out so both Build and Verify absorb an
// identical sequence regardless of whether an auditor is present: a flag
// scalar first, breaking any ambiguity between "no auditor" and
// "auditor key happens to be the identity" (the tie-break spec §4.4.2
// calls for).
func auditorAbsorb(t *transcript.Transcript, hasAuditor bool, auditorPub group.Point, auditorCT *elgamal.ChunkedCiphertext) {
	if hasAuditor {
		t.AbsorbScalar(big.NewInt(1))
		t.AbsorbPoint(auditorPub)
		for _, c := range auditorCT.Chunks {
			t.AbsorbPoint(c.C)
			t.AbsorbPoint(c.D)
		}
		return
	}
	t.AbsorbScalar(big.NewInt(0))
}

func transferTranscript(account, token []byte, senderPub, recipPub group.Point, oldCT, newCT, recipCT elgamal.ChunkedCiphertext, hasAuditor bool, auditorPub group.Point, auditorCT *elgamal.ChunkedCiphertext) *transcript.Transcript {
	t := transcript.New(TransferTag)
	t.AbsorbBytes(account)
	t.AbsorbBytes(token)
	t.AbsorbPoint(senderPub)
	t.AbsorbPoint(recipPub)
	for _, c := range oldCT.Chunks {
		t.AbsorbPoint(c.C)
		t.AbsorbPoint(c.D)
	}
	for _, c := range newCT.Chunks {
		t.AbsorbPoint(c.C)
		t.AbsorbPoint(c.D)
	}
	for _, c := range recipCT.Chunks {
		t.AbsorbPoint(c.C)
		t.AbsorbPoint(c.D)
	}
	auditorAbsorb(t, hasAuditor, auditorPub, auditorCT)
	return t
}

// transferStatement expresses the transfer relation as a shared linear
// statement: per-chunk discrete-log equations pinning the recipient's (and
// auditor's) randomness, per-chunk discrete-log equations pinning the
// sender's new-balance randomness, per-chunk commitment equations tying the
// SAME hidden amount chunks vᵢ into the recipient's (and auditor's)
// ciphertext, and a master equation forcing the sender's debit to equal
// Σvᵢ·2^16i — all without ever naming m_old, m_new, or v directly; every
// RHS here is a point the verifier already has.
func transferStatement(senderPub, recipPub group.Point, oldCT, newCT, recipCT elgamal.ChunkedCiphertext, hasAuditor bool, auditorPub group.Point, auditorCT *elgamal.ChunkedCiphertext) Statement {
	stmt := Statement{}

	for i, c := range newCT.Chunks {
		stmt.Equations = append(stmt.Equations, Equation{
			Terms: []Term{{Secret: rName(i), Coeff: big.NewInt(1), Generator: senderPub}},
			RHS:   c.D,
		})
	}
	for i, c := range recipCT.Chunks {
		stmt.Equations = append(stmt.Equations, Equation{
			Terms: []Term{{Secret: sName(i), Coeff: big.NewInt(1), Generator: recipPub}},
			RHS:   c.D,
		})
		stmt.Equations = append(stmt.Equations, Equation{
			Terms: []Term{
				{Secret: vName(i), Coeff: big.NewInt(1), Generator: group.Generator()},
				{Secret: sName(i), Coeff: big.NewInt(1), Generator: group.H()},
			},
			RHS: c.C,
		})
	}
	if hasAuditor {
		for i, c := range auditorCT.Chunks {
			stmt.Equations = append(stmt.Equations, Equation{
				Terms: []Term{{Secret: aName(i), Coeff: big.NewInt(1), Generator: auditorPub}},
				RHS:   c.D,
			})
			stmt.Equations = append(stmt.Equations, Equation{
				Terms: []Term{
					{Secret: vName(i), Coeff: big.NewInt(1), Generator: group.Generator()},
					{Secret: aName(i), Coeff: big.NewInt(1), Generator: group.H()},
				},
				RHS: c.C,
			})
		}
	}

	// Master equation: d·D_old_agg - Σrᵢ·2^16i·H + Σvᵢ·2^16i·G₀ = K,
	// where K = C_old_agg - C_new_agg (see withdraw.go's aggregateDebitPoint
	// derivation; the transfer case is identical with amount replaced by
	// the hidden Σvᵢ·2^16i).
	masterTerms := []Term{{Secret: "d", Coeff: big.NewInt(1), Generator: aggregateDPoint(oldCT)}}
	power := big.NewInt(1)
	for i := 0; i < elgamal.NumChunks; i++ {
		masterTerms = append(masterTerms,
			Term{Secret: rName(i), Coeff: new(big.Int).Neg(power), Generator: group.H()},
			Term{Secret: vName(i), Coeff: power, Generator: group.Generator()},
		)
		power = new(big.Int).Lsh(power, elgamal.ChunkBits)
	}
	stmt.Equations = append(stmt.Equations, Equation{
		Terms: masterTerms,
		RHS:   aggregateDebitPoint(oldCT, newCT, 0),
	})
	return stmt
}

// BuildTransferProof proves that recipCT (and, if present, auditorCT)
// credit the same hidden amount that newCT debits from oldCT under
// senderPub.
func BuildTransferProof(account, token []byte, senderPub, recipPub group.Point, oldCT, newCT, recipCT elgamal.ChunkedCiphertext, auditorPub group.Point, auditorCT *elgamal.ChunkedCiphertext, w TransferWitness) (TransferProof, error) {
	hasAuditor := auditorCT != nil
	stmt := transferStatement(senderPub, recipPub, oldCT, newCT, recipCT, hasAuditor, auditorPub, auditorCT)
	t := transferTranscript(account, token, senderPub, recipPub, oldCT, newCT, recipCT, hasAuditor, auditorPub, auditorCT)

	witness := map[string]*big.Int{"d": w.D}
	for i := 0; i < elgamal.NumChunks; i++ {
		witness[rName(i)] = w.R[i]
		witness[sName(i)] = w.S[i]
		witness[vName(i)] = w.V[i]
		if hasAuditor {
			witness[aName(i)] = w.A[i]
		}
	}
	proof, err := Prove(t, stmt, witness)
	if err != nil {
		return TransferProof{}, fmt.Errorf("sigma: transfer proof: %w", err)
	}

	out := TransferProof{Version: 1, HasAuditor: hasAuditor, Proof: proof}
	for i := 0; i < elgamal.NumChunks; i++ {
		mNew, err := elgamal.DecryptValue(newCT.Chunks[i], w.D, elgamal.ChunkBits)
		if err != nil {
			return TransferProof{}, fmt.Errorf("sigma: transfer sender new-balance chunk %d: %w", i, err)
		}
		rp, err := rangeproof.Prove(new(big.Int).SetUint64(mNew), w.R[i], elgamal.ChunkBits)
		if err != nil {
			return TransferProof{}, fmt.Errorf("sigma: transfer sender range proof chunk %d: %w", i, err)
		}
		out.SenderRangeProofs[i] = rp

		rp2, err := rangeproof.Prove(w.V[i], w.S[i], elgamal.ChunkBits)
		if err != nil {
			return TransferProof{}, fmt.Errorf("sigma: transfer recipient range proof chunk %d: %w", i, err)
		}
		out.RecipRangeProofs[i] = rp2

		if hasAuditor {
			rp3, err := rangeproof.Prove(w.V[i], w.A[i], elgamal.ChunkBits)
			if err != nil {
				return TransferProof{}, fmt.Errorf("sigma: transfer auditor range proof chunk %d: %w", i, err)
			}
			out.AuditorRangeProofs[i] = rp3
		}
	}
	return out, nil
}

// VerifyTransferProof checks a TransferProof against the public statement.
func VerifyTransferProof(account, token []byte, senderPub, recipPub group.Point, oldCT, newCT, recipCT elgamal.ChunkedCiphertext, auditorPub group.Point, auditorCT *elgamal.ChunkedCiphertext, p TransferProof) error {
	if p.Version != 1 {
		return fmt.Errorf("sigma: transfer proof: unsupported version %d", p.Version)
	}
	hasAuditor := auditorCT != nil
	if hasAuditor != p.HasAuditor {
		return fmt.Errorf("sigma: transfer proof: auditor presence mismatch")
	}
	stmt := transferStatement(senderPub, recipPub, oldCT, newCT, recipCT, hasAuditor, auditorPub, auditorCT)
	t := transferTranscript(account, token, senderPub, recipPub, oldCT, newCT, recipCT, hasAuditor, auditorPub, auditorCT)
	if err := Verify(t, stmt, p.Proof); err != nil {
		return fmt.Errorf("sigma: transfer proof: %w", err)
	}
	for i, c := range newCT.Chunks {
		if err := rangeproof.Verify(c.C, p.SenderRangeProofs[i]); err != nil {
			return fmt.Errorf("sigma: transfer sender range proof chunk %d: %w", i, err)
		}
	}
	for i, c := range recipCT.Chunks {
		if err := rangeproof.Verify(c.C, p.RecipRangeProofs[i]); err != nil {
			return fmt.Errorf("sigma: transfer recipient range proof chunk %d: %w", i, err)
		}
	}
	if hasAuditor {
		for i, c := range auditorCT.Chunks {
			if err := rangeproof.Verify(c.C, p.AuditorRangeProofs[i]); err != nil {
				return fmt.Errorf("sigma: transfer auditor range proof chunk %d: %w", i, err)
			}
		}
	}
	return nil
}
