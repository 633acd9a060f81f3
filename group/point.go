// Package group is the group arithmetic adapter (spec component 4.1). It
// wraps a single concrete prime-order group — BabyJubJub, a twisted-Edwards
// curve — behind a small value type so the rest of the module never touches
// curve internals directly. The concrete curve is grounded on the teacher's
// crypto/ecc/bjj_iden3 wrapper around github.com/iden3/go-iden3-crypto/babyjub;
// unlike the teacher we ship a single curve, so the multi-curve factory
// layer is not reproduced.
package group

import (
	"encoding/json"
	"fmt"
	"math/big"
	"sync"

	"github.com/fxamacker/cbor/v2"
	babyjub "github.com/iden3/go-iden3-crypto/babyjub"
)

// Order is the prime order of the BabyJubJub subgroup our generators live
// in (the spec's scalar field ℓ).
func Order() *big.Int { return babyjub.SubOrder }

// PointSize is the canonical compressed point encoding length in bytes.
const PointSize = 32

// ScalarSize is the canonical little-endian scalar encoding length in bytes.
const ScalarSize = 32

// Point is an element of the group, backed by a BabyJubJub affine point.
// The zero value is NOT valid; use Identity() or Generator().
type Point struct {
	inner *babyjub.Point
}

func wrap(p *babyjub.Point) Point { return Point{inner: p} }

// pointFromXY builds a Point directly from affine coordinates, without
// validating curve membership; callers (HashToPoint's try-and-increment
// solver) already derived x from the curve equation.
func pointFromXY(x, y *big.Int) Point {
	return wrap(&babyjub.Point{X: new(big.Int).Set(x), Y: new(big.Int).Set(y)})
}

// Identity returns the group's identity element (0, 1) in twisted-Edwards
// affine coordinates.
func Identity() Point {
	return wrap(&babyjub.Point{X: big.NewInt(0), Y: big.NewInt(1)})
}

// Generator returns the canonical base generator G₀ (babyjub.B8).
func Generator() Point {
	return wrap(&babyjub.Point{X: new(big.Int).Set(babyjub.B8.X), Y: new(big.Int).Set(babyjub.B8.Y)})
}

func (p Point) requireInner() *babyjub.Point {
	if p.inner == nil {
		panic("group: use of zero-value Point; call Identity() or Generator()")
	}
	return p.inner
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	a := p.requireInner().Projective()
	b := q.requireInner().Projective()
	return wrap(new(babyjub.PointProjective).Add(a, b).Affine())
}

// Neg returns -p.
func (p Point) Neg() Point {
	inner := p.requireInner()
	return wrap(&babyjub.Point{X: new(big.Int).Neg(inner.X), Y: new(big.Int).Set(inner.Y)})
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return p.Add(q.Neg())
}

// ScalarMult returns scalar·p (variable-base multiplication).
func (p Point) ScalarMult(scalar *big.Int) Point {
	return wrap(new(babyjub.Point).Mul(reduce(scalar), p.requireInner()))
}

// ScalarBaseMult returns scalar·G₀ (fixed-base multiplication).
func ScalarBaseMult(scalar *big.Int) Point {
	return wrap(new(babyjub.Point).Mul(reduce(scalar), babyjub.B8))
}

// Equal reports whether p and q are the same point.
func (p Point) Equal(q Point) bool {
	a, b := p.requireInner(), q.requireInner()
	return a.X.Cmp(b.X) == 0 && a.Y.Cmp(b.Y) == 0
}

// IsIdentity reports whether p is the group identity.
func (p Point) IsIdentity() bool {
	return p.Equal(Identity())
}

// Marshal returns the 32-byte canonical compressed encoding.
func (p Point) Marshal() []byte {
	c := p.requireInner().Compress()
	return c[:]
}

// Unmarshal decodes 32 canonical compressed bytes into a Point, rejecting
// malformed or non-canonical input.
func Unmarshal(buf []byte) (Point, error) {
	if len(buf) != PointSize {
		return Point{}, fmt.Errorf("group: point must be %d bytes, got %d", PointSize, len(buf))
	}
	var b32 [32]byte
	copy(b32[:], buf)
	decoded, err := new(babyjub.Point).Decompress(b32)
	if err != nil {
		return Point{}, fmt.Errorf("group: non-canonical point encoding: %w", err)
	}
	return wrap(decoded), nil
}

// MarshalJSON implements json.Marshaler as the canonical hex of Marshal().
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal(fmt.Sprintf("%x", p.Marshal()))
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Point) UnmarshalJSON(buf []byte) error {
	var hexStr string
	if err := json.Unmarshal(buf, &hexStr); err != nil {
		return err
	}
	var raw [32]byte
	if _, err := fmt.Sscanf(hexStr, "%x", &raw); err != nil {
		return fmt.Errorf("group: invalid point hex: %w", err)
	}
	decoded, err := Unmarshal(raw[:])
	if err != nil {
		return err
	}
	*p = decoded
	return nil
}

// MarshalCBOR implements cbor.Marshaler, encoding the point as its 32-byte
// canonical compressed form. Used by wire.DebugDumpChunkedCiphertext, which
// dumps ciphertext points in CBOR for debug log lines rather than the
// canonical wire codec, mirroring the teacher's bn254.G1 CBOR methods.
func (p Point) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(p.Marshal())
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (p *Point) UnmarshalCBOR(buf []byte) error {
	var raw []byte
	if err := cbor.Unmarshal(buf, &raw); err != nil {
		return err
	}
	decoded, err := Unmarshal(raw)
	if err != nil {
		return err
	}
	*p = decoded
	return nil
}

// Coordinates returns the point's affine (x, y) coordinates, for callers
// that need to feed them into a field-element-based hash (e.g. the Sigma
// transcript's Poseidon challenge).
func (p Point) Coordinates() (*big.Int, *big.Int) {
	inner := p.requireInner()
	return new(big.Int).Set(inner.X), new(big.Int).Set(inner.Y)
}

func (p Point) String() string {
	inner := p.requireInner()
	return fmt.Sprintf("%s,%s", inner.X.String(), inner.Y.String())
}

// hGenerator is the process-wide second generator H, built lazily and
// idempotently (spec §5 shared-resource policy: "process-wide state
// initialized on first use with idempotent construction").
var (
	hOnce sync.Once
	hVal  Point
)

// H returns the fixed, nothing-up-my-sleeve second generator used for
// Pedersen-style commitments and Twisted-ElGamal's blinding term. It is
// defined once as hashToPoint("TwistedElGamalH", G₀_bytes) and cached.
func H() Point {
	hOnce.Do(func() {
		hVal = HashToPoint("TwistedElGamalH", Generator().Marshal())
	})
	return hVal
}

func reduce(s *big.Int) *big.Int {
	return new(big.Int).Mod(s, Order())
}
