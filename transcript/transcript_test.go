package transcript

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/moveguard/confidential-core/group"
)

func TestChallengeIsDeterministic(t *testing.T) {
	build := func() *big.Int {
		tr := New("test-tag")
		tr.AbsorbBytes([]byte("account"))
		tr.AbsorbBytes([]byte("token"))
		tr.AbsorbPoint(group.Generator())
		tr.AbsorbScalar(big.NewInt(42))
		c, err := tr.Challenge()
		require.NoError(t, err)
		return c
	}
	require.Equal(t, 0, build().Cmp(build()))
}

func TestChallengeVariesWithAbsorbedData(t *testing.T) {
	a := New("tag")
	a.AbsorbBytes([]byte("alice"))
	ca, err := a.Challenge()
	require.NoError(t, err)

	b := New("tag")
	b.AbsorbBytes([]byte("bob"))
	cb, err := b.Challenge()
	require.NoError(t, err)

	require.NotEqual(t, 0, ca.Cmp(cb))
}

func TestChallengeVariesWithTag(t *testing.T) {
	a := New("tag-one")
	b := New("tag-two")
	ca, err := a.Challenge()
	require.NoError(t, err)
	cb, err := b.Challenge()
	require.NoError(t, err)
	require.NotEqual(t, 0, ca.Cmp(cb))
}

func TestChallengeIsReducedBelowOrder(t *testing.T) {
	tr := New("tag")
	tr.AbsorbPoint(group.H())
	c, err := tr.Challenge()
	require.NoError(t, err)
	require.True(t, c.Cmp(group.Order()) < 0)
}

func TestAbsorptionOrderMatters(t *testing.T) {
	a := New("tag")
	a.AbsorbScalar(big.NewInt(1))
	a.AbsorbScalar(big.NewInt(2))
	ca, err := a.Challenge()
	require.NoError(t, err)

	b := New("tag")
	b.AbsorbScalar(big.NewInt(2))
	b.AbsorbScalar(big.NewInt(1))
	cb, err := b.Challenge()
	require.NoError(t, err)

	require.NotEqual(t, 0, ca.Cmp(cb))
}

func TestChallengeHandlesMoreThanSixteenAbsorptions(t *testing.T) {
	tr := New("tag")
	for i := 0; i < 40; i++ {
		tr.AbsorbScalar(big.NewInt(int64(i)))
	}
	c, err := tr.Challenge()
	require.NoError(t, err)
	require.NotNil(t, c)
}
