package group

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashToPointLiesInPrimeOrderSubgroup(t *testing.T) {
	p := HashToPoint("some-label", []byte("seed"))
	// A point cleared by the cofactor must vanish under multiplication by
	// the subgroup order.
	require.True(t, p.ScalarMult(Order()).IsIdentity())
}

func TestHashToPointVariesWithParts(t *testing.T) {
	a := HashToPoint("label", []byte("part-a"))
	b := HashToPoint("label", []byte("part-b"))
	require.False(t, a.Equal(b))
}
