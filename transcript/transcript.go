// Package transcript is the shared Fiat-Shamir transcript used by both the
// Sigma-proof engine (package sigma) and the range-proof adapter (package
// rangeproof). It lives in its own package, rather than inside sigma,
// purely so rangeproof can depend on it without an import cycle — both
// packages build proofs on the same transcript discipline.
//
// Grounded on the teacher's crypto/elgamal/proof.go hashPointsToScalar
// (Poseidon-based point hashing) and crypto/hash/poseidon/multiposeidon.go
// (chunked recursive combination for more than 16 inputs).
package transcript

import (
	"math/big"

	"github.com/iden3/go-iden3-crypto/poseidon"

	"github.com/moveguard/confidential-core/group"
)

const maxPoseidonInputs = 16

// multiPoseidon hashes an arbitrary number of field elements to one,
// chunking into groups of maxPoseidonInputs and recursively combining.
func multiPoseidon(inputs []*big.Int) (*big.Int, error) {
	if len(inputs) == 0 {
		return big.NewInt(0), nil
	}
	if len(inputs) <= maxPoseidonInputs {
		return poseidon.Hash(inputs)
	}
	var combined []*big.Int
	for i := 0; i < len(inputs); i += maxPoseidonInputs {
		end := i + maxPoseidonInputs
		if end > len(inputs) {
			end = len(inputs)
		}
		h, err := poseidon.Hash(inputs[i:end])
		if err != nil {
			return nil, err
		}
		combined = append(combined, h)
	}
	return multiPoseidon(combined)
}

// Transcript accumulates field elements in absorption order and derives the
// Fiat-Shamir challenge as a single Poseidon hash over all of them.
//
// Absorption order per spec §4.4.5: tag -> account -> token -> public keys
// (in statement order) -> input ciphertexts -> output ciphertexts ->
// commitment points. Verifiers must reconstruct the identical sequence.
type Transcript struct {
	elems []*big.Int
}

// New starts a transcript with its domain tag absorbed first.
func New(tag string) *Transcript {
	t := &Transcript{}
	t.AbsorbBytes([]byte(tag))
	return t
}

// AbsorbBytes folds an arbitrary byte string into the transcript, reduced to
// a field element via group.HashToScalar (always < ℓ, hence a valid
// Poseidon input).
func (t *Transcript) AbsorbBytes(b []byte) {
	t.elems = append(t.elems, group.HashToScalar("CA-TRANSCRIPT-BYTES", b))
}

// AbsorbScalar absorbs a scalar field element directly.
func (t *Transcript) AbsorbScalar(s *big.Int) {
	t.elems = append(t.elems, new(big.Int).Set(s))
}

// AbsorbPoint absorbs both coordinates of a group element.
func (t *Transcript) AbsorbPoint(p group.Point) {
	x, y := p.Coordinates()
	t.elems = append(t.elems, x, y)
}

// Challenge derives the Fiat-Shamir challenge scalar from everything
// absorbed so far, reduced into the group's scalar field.
func (t *Transcript) Challenge() (*big.Int, error) {
	h, err := multiPoseidon(t.elems)
	if err != nil {
		return nil, err
	}
	return group.ReduceScalar(h), nil
}
