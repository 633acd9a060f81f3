package rangeproof

import (
	"fmt"
	"math/big"

	"github.com/moveguard/confidential-core/group"
	"github.com/moveguard/confidential-core/transcript"
)

// proveBit builds a Chaum-Pedersen OR-proof that commitment opens to 0 or
// to 1 under blinding r, without revealing which. isOne selects the real
// branch; the other branch is simulated per the standard OR-composition
// (Camenisch-Stadler / Cramer-Damgård-Schoenmakers).
func proveBit(index int, isOne bool, commitment group.Point, r *big.Int) (BitProof, error) {
	y0 := commitment             // branch "bit=0": commitment == r·H
	y1 := commitment.Sub(group.Generator()) // branch "bit=1": commitment-G₀ == r·H

	var proof BitProof
	var kTrue *big.Int

	simC, err := group.RandomScalar()
	if err != nil {
		return BitProof{}, err
	}
	simZ, err := group.RandomScalar()
	if err != nil {
		return BitProof{}, err
	}

	if isOne {
		// Simulate branch 0: pick c0, z0 at random, derive A0 = z0·H - c0·y0.
		proof.C0 = simC
		proof.Z0 = simZ
		proof.A0 = group.H().ScalarMult(simZ).Sub(y0.ScalarMult(simC))

		k, err := group.RandomScalar()
		if err != nil {
			return BitProof{}, err
		}
		kTrue = k
		proof.A1 = group.H().ScalarMult(k)
	} else {
		// Simulate branch 1.
		proof.C1 = simC
		proof.Z1 = simZ
		proof.A1 = group.H().ScalarMult(simZ).Sub(y1.ScalarMult(simC))

		k, err := group.RandomScalar()
		if err != nil {
			return BitProof{}, err
		}
		kTrue = k
		proof.A0 = group.H().ScalarMult(k)
	}

	c, err := bitChallenge(index, commitment, proof.A0, proof.A1)
	if err != nil {
		return BitProof{}, err
	}

	if isOne {
		proof.C1 = group.SubScalars(c, proof.C0)
		proof.Z1 = group.AddScalars(kTrue, group.MulScalars(proof.C1, r))
	} else {
		proof.C0 = group.SubScalars(c, proof.C1)
		proof.Z0 = group.AddScalars(kTrue, group.MulScalars(proof.C0, r))
	}
	return proof, nil
}

func verifyBit(index int, commitment group.Point, proof BitProof) error {
	c, err := bitChallenge(index, commitment, proof.A0, proof.A1)
	if err != nil {
		return err
	}
	if group.AddScalars(proof.C0, proof.C1).Cmp(group.ReduceScalar(c)) != 0 {
		return fmt.Errorf("challenge split c0+c1 != c")
	}

	y0 := commitment
	y1 := commitment.Sub(group.Generator())

	lhs0 := group.H().ScalarMult(proof.Z0)
	rhs0 := proof.A0.Add(y0.ScalarMult(proof.C0))
	if !lhs0.Equal(rhs0) {
		return fmt.Errorf("branch 0 equation failed")
	}

	lhs1 := group.H().ScalarMult(proof.Z1)
	rhs1 := proof.A1.Add(y1.ScalarMult(proof.C1))
	if !lhs1.Equal(rhs1) {
		return fmt.Errorf("branch 1 equation failed")
	}
	return nil
}

func bitChallenge(index int, commitment, a0, a1 group.Point) (*big.Int, error) {
	t := transcript.New(bitProofTag)
	t.AbsorbScalar(big.NewInt(int64(index)))
	t.AbsorbPoint(commitment)
	t.AbsorbPoint(a0)
	t.AbsorbPoint(a1)
	return t.Challenge()
}
