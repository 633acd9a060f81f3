// Package rangeproof is the range-proof adapter (spec component 4.5): it
// proves that a Pedersen-committed value lies in [0, 2^bitLength) without
// revealing the value.
//
// No Bulletproofs implementation exists anywhere in the reference corpus.
// The concrete technique here is the classical Sigma-protocol bit
// decomposition range proof (the historical predecessor to Bulletproofs):
// commit to each bit separately and prove each is 0 or 1 with a Chaum-
// Pedersen OR-proof, then tie the per-bit commitments back to the main
// commitment with the public aggregation identity Σ 2^i·Cᵢ = C. This keeps
// the adapter grounded in techniques the corpus actually demonstrates
// (Pedersen commitments — parsdao-pars/zk/pedersen.go — and the Sigma/
// Fiat-Shamir transcript built in package transcript) rather than introducing an
// unreachable dependency. See DESIGN.md.
package rangeproof

import (
	"fmt"
	"math/big"

	"github.com/moveguard/confidential-core/group"
)

// bitProofTag is the Fiat-Shamir domain tag for a single bit's OR-proof.
const bitProofTag = "CA-RANGEPROOF-BIT-v1"

// BitProof is a Chaum-Pedersen OR-proof that a commitment Cᵢ = bᵢ·G₀ + rᵢ·H
// opens with bᵢ ∈ {0, 1}, without revealing which.
type BitProof struct {
	A0, A1 group.Point
	C0, C1 *big.Int
	Z0, Z1 *big.Int
}

// RangeProof bundles one Pedersen commitment and one BitProof per bit of
// the claimed range.
type RangeProof struct {
	BitLength      int
	BitCommitments []group.Point
	BitProofs      []BitProof
}

// Commit returns the Pedersen commitment value·G₀ + blinding·H.
func Commit(value, blinding *big.Int) group.Point {
	return group.ScalarBaseMult(value).Add(group.H().ScalarMult(blinding))
}

// Prove proves value ∈ [0, 2^bitLength) given its Pedersen commitment
// commitment = value·G₀ + blinding·H.
func Prove(value, blinding *big.Int, bitLength int) (RangeProof, error) {
	if value.Sign() < 0 {
		return RangeProof{}, fmt.Errorf("rangeproof: value must be non-negative")
	}
	maxVal := new(big.Int).Lsh(big.NewInt(1), uint(bitLength))
	if value.Cmp(maxVal) >= 0 {
		return RangeProof{}, fmt.Errorf("rangeproof: value does not fit in %d bits", bitLength)
	}

	perBitBlinding, err := splitBlinding(blinding, bitLength)
	if err != nil {
		return RangeProof{}, err
	}

	proof := RangeProof{
		BitLength:      bitLength,
		BitCommitments: make([]group.Point, bitLength),
		BitProofs:      make([]BitProof, bitLength),
	}
	for i := 0; i < bitLength; i++ {
		bit := value.Bit(i)
		r := perBitBlinding[i]
		commitment := Commit(big.NewInt(int64(bit)), r)
		proof.BitCommitments[i] = commitment

		bp, err := proveBit(i, bit == 1, commitment, r)
		if err != nil {
			return RangeProof{}, fmt.Errorf("rangeproof: bit %d: %w", i, err)
		}
		proof.BitProofs[i] = bp
	}
	return proof, nil
}

// Verify checks proof against the claimed aggregate commitment.
func Verify(commitment group.Point, proof RangeProof) error {
	if len(proof.BitCommitments) != proof.BitLength || len(proof.BitProofs) != proof.BitLength {
		return fmt.Errorf("rangeproof: malformed proof shape")
	}

	aggregate := group.Identity()
	power := big.NewInt(1)
	for i := 0; i < proof.BitLength; i++ {
		if err := verifyBit(i, proof.BitCommitments[i], proof.BitProofs[i]); err != nil {
			return fmt.Errorf("rangeproof: bit %d: %w", i, err)
		}
		aggregate = aggregate.Add(proof.BitCommitments[i].ScalarMult(power))
		power = new(big.Int).Lsh(power, 1)
	}
	if !aggregate.Equal(commitment) {
		return fmt.Errorf("rangeproof: aggregated bit commitments do not match claimed commitment")
	}
	return nil
}

// BatchVerify verifies many (commitment, proof) pairs of the same bit
// length. Per spec §4.5, batches up to 16 are expected during transfers.
// Each pair is checked independently with Verify, stopping at the first
// failure; no verification work is shared or combined across pairs.
func BatchVerify(commitments []group.Point, proofs []RangeProof) error {
	if len(commitments) != len(proofs) {
		return fmt.Errorf("rangeproof: batch size mismatch: %d commitments, %d proofs", len(commitments), len(proofs))
	}
	for i := range commitments {
		if err := Verify(commitments[i], proofs[i]); err != nil {
			return fmt.Errorf("rangeproof: batch item %d: %w", i, err)
		}
	}
	return nil
}

// splitBlinding decomposes blinding into bitLength per-bit blinding factors
// r_i such that Σ r_i·2^i ≡ blinding (mod ℓ): all but the last are random,
// the last is solved for.
func splitBlinding(blinding *big.Int, bitLength int) ([]*big.Int, error) {
	rs := make([]*big.Int, bitLength)
	acc := big.NewInt(0)
	power := big.NewInt(1)
	for i := 0; i < bitLength-1; i++ {
		r, err := group.RandomScalar()
		if err != nil {
			return nil, fmt.Errorf("rangeproof: split blinding: %w", err)
		}
		rs[i] = r
		acc = group.AddScalars(acc, group.MulScalars(r, power))
		power = new(big.Int).Lsh(power, 1)
	}
	lastPowerInv, err := group.InvertScalar(power)
	if err != nil {
		return nil, fmt.Errorf("rangeproof: split blinding: %w", err)
	}
	remainder := group.SubScalars(blinding, acc)
	rs[bitLength-1] = group.MulScalars(remainder, lastPowerInv)
	return rs, nil
}
