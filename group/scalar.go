package group

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// RandomScalar draws a uniform scalar in [1, ℓ) from a CSPRNG, as required
// by every prover (fresh randomness per proof, spec §4.4.5).
func RandomScalar() (*big.Int, error) {
	order := Order()
	for {
		s, err := rand.Int(rand.Reader, order)
		if err != nil {
			return nil, fmt.Errorf("group: rng failure: %w", err)
		}
		if s.Sign() != 0 {
			return s, nil
		}
	}
}

// MarshalScalar encodes s as 32 little-endian bytes, s < ℓ.
func MarshalScalar(s *big.Int) []byte {
	reduced := reduce(s)
	buf := make([]byte, ScalarSize)
	b := reduced.Bytes() // big-endian
	for i := 0; i < len(b); i++ {
		buf[i] = b[len(b)-1-i]
	}
	return buf
}

// UnmarshalScalar decodes 32 little-endian bytes into a scalar, rejecting
// encodings that are not reduced mod ℓ (non-canonical).
func UnmarshalScalar(buf []byte) (*big.Int, error) {
	if len(buf) != ScalarSize {
		return nil, fmt.Errorf("group: scalar must be %d bytes, got %d", ScalarSize, len(buf))
	}
	be := make([]byte, ScalarSize)
	for i := 0; i < ScalarSize; i++ {
		be[i] = buf[ScalarSize-1-i]
	}
	s := new(big.Int).SetBytes(be)
	if s.Cmp(Order()) >= 0 {
		return nil, fmt.Errorf("group: scalar %s is not canonical (>= order)", s.String())
	}
	return s, nil
}

// AddScalars returns (a+b) mod ℓ.
func AddScalars(a, b *big.Int) *big.Int {
	return reduce(new(big.Int).Add(a, b))
}

// SubScalars returns (a-b) mod ℓ.
func SubScalars(a, b *big.Int) *big.Int {
	return reduce(new(big.Int).Sub(a, b))
}

// MulScalars returns (a*b) mod ℓ.
func MulScalars(a, b *big.Int) *big.Int {
	return reduce(new(big.Int).Mul(a, b))
}

// InvertScalar returns a⁻¹ mod ℓ.
func InvertScalar(a *big.Int) (*big.Int, error) {
	reduced := reduce(a)
	if reduced.Sign() == 0 {
		return nil, fmt.Errorf("group: cannot invert zero scalar")
	}
	return new(big.Int).ModInverse(reduced, Order()), nil
}

// ReduceScalar reduces an arbitrary big.Int mod ℓ.
func ReduceScalar(a *big.Int) *big.Int {
	return reduce(a)
}

// ZeroizeScalar overwrites the backing representation of s with zero bytes.
// Go's big.Int has no direct memory-zeroing API; this best-effort wipe
// overwrites every word of the existing backing array (s.Bits()) in place
// and then sets the value to zero, which is the pattern the rest of this
// module relies on to
// satisfy spec §5's "zeroized on drop" requirement for secret scalars.
func ZeroizeScalar(s *big.Int) {
	if s == nil {
		return
	}
	buf := s.Bits()
	for i := range buf {
		buf[i] = 0
	}
	s.SetInt64(0)
}
