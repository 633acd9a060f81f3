package sigma

import (
	"fmt"
	"math/big"

	"github.com/moveguard/confidential-core/elgamal"
	"github.com/moveguard/confidential-core/group"
	"github.com/moveguard/confidential-core/rangeproof"
	"github.com/moveguard/confidential-core/transcript"
)

// RotateTag is the Fiat-Shamir domain tag for key-rotation proofs.
const RotateTag = "CA-SIGMA-ROTATE-v1"

// RotationProof proves that a balance re-encrypted under a new encryption
// key preserves its total value, and that both the old and new decryption
// keys genuinely pair with their respective public keys (spec §4.4.4).
type RotationProof struct {
	Version     uint16
	Proof       Proof
	RangeProofs [elgamal.NumChunks]rangeproof.RangeProof
}

// RotateWitness carries both decryption keys and the fresh randomness and
// plaintext chunks used to re-encrypt the balance under the new key.
type RotateWitness struct {
	DOld *big.Int
	DNew *big.Int
	S    [elgamal.NumChunks]*big.Int // new ciphertext randomness
	M    [elgamal.NumChunks]*big.Int // chunk plaintexts, unchanged by rotation
}

func rotateTranscript(account, token []byte, oldPub, newPub group.Point, oldCT, newCT elgamal.ChunkedCiphertext) *transcript.Transcript {
	t := transcript.New(RotateTag)
	t.AbsorbBytes(account)
	t.AbsorbBytes(token)
	t.AbsorbPoint(oldPub)
	t.AbsorbPoint(newPub)
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

// rotateStatement ties three facts into one statement: d_old is the real
// decryption key behind oldPub (d_old·oldPub = H), d_new is the real
// decryption key behind newPub (d_new·newPub = H), and the value decrypted
// under (d_old, oldCT) equals the value decrypted under (d_new, newCT).
// The last fact is expressed without naming either plaintext: rearranging
// m_old·G₀ = C_old_agg - d_old·D_old_agg and m_new·G₀ = C_new_agg -
// d_new·D_new_agg and setting them equal gives
// d_new·D_new_agg - d_old·D_old_agg = C_new_agg - C_old_agg, a relation
// entirely over public points.
func rotateStatement(oldPub, newPub group.Point, oldCT, newCT elgamal.ChunkedCiphertext) Statement {
	stmt := Statement{
		Equations: []Equation{
			{
				Terms: []Term{{Secret: "d_old", Coeff: big.NewInt(1), Generator: oldPub}},
				RHS:   group.H(),
			},
			{
				Terms: []Term{{Secret: "d_new", Coeff: big.NewInt(1), Generator: newPub}},
				RHS:   group.H(),
			},
		},
	}

	sumOldC := group.Identity()
	sumNewC := group.Identity()
	power := big.NewInt(1)
	for i := 0; i < elgamal.NumChunks; i++ {
		sumOldC = sumOldC.Add(oldCT.Chunks[i].C.ScalarMult(power))
		sumNewC = sumNewC.Add(newCT.Chunks[i].C.ScalarMult(power))
		power = new(big.Int).Lsh(power, elgamal.ChunkBits)
	}
	rhs := sumNewC.Sub(sumOldC)

	stmt.Equations = append(stmt.Equations, Equation{
		Terms: []Term{
			{Secret: "d_new", Coeff: big.NewInt(1), Generator: aggregateDPoint(newCT)},
			{Secret: "d_old", Coeff: big.NewInt(-1), Generator: aggregateDPoint(oldCT)},
		},
		RHS: rhs,
	})
	return stmt
}

// BuildRotationProof proves that newCT, encrypted under newPub, preserves
// the value oldCT holds under oldPub, with every chunk of newCT in
// [0, 2^16).
func BuildRotationProof(account, token []byte, oldPub, newPub group.Point, oldCT, newCT elgamal.ChunkedCiphertext, w RotateWitness) (RotationProof, error) {
	stmt := rotateStatement(oldPub, newPub, oldCT, newCT)
	t := rotateTranscript(account, token, oldPub, newPub, oldCT, newCT)

	witness := map[string]*big.Int{"d_old": w.DOld, "d_new": w.DNew}
	proof, err := Prove(t, stmt, witness)
	if err != nil {
		return RotationProof{}, fmt.Errorf("sigma: rotation proof: %w", err)
	}

	var ranges [elgamal.NumChunks]rangeproof.RangeProof
	for i := 0; i < elgamal.NumChunks; i++ {
		rp, err := rangeproof.Prove(w.M[i], w.S[i], elgamal.ChunkBits)
		if err != nil {
			return RotationProof{}, fmt.Errorf("sigma: rotation range proof chunk %d: %w", i, err)
		}
		ranges[i] = rp
	}
	return RotationProof{Version: 1, Proof: proof, RangeProofs: ranges}, nil
}

// VerifyRotationProof checks a RotationProof against the public statement.
func VerifyRotationProof(account, token []byte, oldPub, newPub group.Point, oldCT, newCT elgamal.ChunkedCiphertext, p RotationProof) error {
	if p.Version != 1 {
		return fmt.Errorf("sigma: rotation proof: unsupported version %d", p.Version)
	}
	stmt := rotateStatement(oldPub, newPub, oldCT, newCT)
	t := rotateTranscript(account, token, oldPub, newPub, oldCT, newCT)
	if err := Verify(t, stmt, p.Proof); err != nil {
		return fmt.Errorf("sigma: rotation proof: %w", err)
	}
	for i, c := range newCT.Chunks {
		if err := rangeproof.Verify(c.C, p.RangeProofs[i]); err != nil {
			return fmt.Errorf("sigma: rotation range proof chunk %d: %w", i, err)
		}
	}
	return nil
}
