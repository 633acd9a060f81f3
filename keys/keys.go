// Package keys implements the confidential account's key material (spec
// component 4.3): the secret DecryptionKey scalar and the published
// EncryptionKey point P = d⁻¹·H, plus deterministic derivation from an
// externally supplied wallet signature.
package keys

import (
	"fmt"
	"math/big"

	"github.com/moveguard/confidential-core/group"
)

// DomainClaim is the fixed 53-byte domain-separation string an external
// wallet signs over to deterministically derive a DecryptionKey.
const DomainClaim = "CONFIDENTIAL_ASSET__TWISTED_ED25519_PRIVATE_KEY_CLAIM"

// derivationLabel is the Fiat-Shamir-style label used to hash a signature
// down to a scalar.
const derivationLabel = "CA-DK-v1"

// DecryptionKey is the secret scalar d. It is never sent on-chain.
type DecryptionKey struct {
	d *big.Int
}

// Generate draws a fresh DecryptionKey from the CSPRNG.
func Generate() (DecryptionKey, error) {
	d, err := group.RandomScalar()
	if err != nil {
		return DecryptionKey{}, fmt.Errorf("keys: generate: %w", err)
	}
	return DecryptionKey{d: d}, nil
}

// FromSignature deterministically derives a DecryptionKey from sigBytes, the
// signature an external wallet produced over DomainClaim. Derivation is
// HashToScalar(derivationLabel, sigBytes) — deterministic and
// byte-for-byte reproducible across runs (spec §8 property 3).
func FromSignature(sigBytes []byte) DecryptionKey {
	return DecryptionKey{d: group.HashToScalar(derivationLabel, sigBytes)}
}

// Scalar exposes the raw secret scalar for use by proof construction. The
// caller must not retain it beyond the proving call; use Zeroize when done.
func (k DecryptionKey) Scalar() *big.Int {
	return k.d
}

// EncryptionKey computes the published public point P = d⁻¹·H.
func (k DecryptionKey) EncryptionKey() (group.Point, error) {
	inv, err := group.InvertScalar(k.d)
	if err != nil {
		return group.Point{}, fmt.Errorf("keys: encryption key: %w", err)
	}
	return group.H().ScalarMult(inv), nil
}

// Zeroize wipes the secret scalar's backing storage. Call via defer
// immediately after a DecryptionKey's last use (spec §5 secret-material
// discipline).
func (k *DecryptionKey) Zeroize() {
	group.ZeroizeScalar(k.d)
}

// EncryptionKey is the account's published confidential public key for a
// given token: P = d⁻¹·H.
type EncryptionKey = group.Point
