package group

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIdentityIsAdditiveIdentity(t *testing.T) {
	g := Generator()
	require.True(t, g.Add(Identity()).Equal(g))
	require.True(t, Identity().IsIdentity())
	require.False(t, g.IsIdentity())
}

func TestAddSubRoundTrip(t *testing.T) {
	g := Generator()
	h := H()
	sum := g.Add(h)
	require.True(t, sum.Sub(h).Equal(g))
	require.True(t, sum.Sub(g).Equal(h))
}

func TestNegCancelsOut(t *testing.T) {
	g := Generator()
	require.True(t, g.Add(g.Neg()).IsIdentity())
}

func TestScalarMultMatchesRepeatedAdd(t *testing.T) {
	g := Generator()
	viaMult := g.ScalarMult(big.NewInt(5))

	viaAdd := Identity()
	for i := 0; i < 5; i++ {
		viaAdd = viaAdd.Add(g)
	}
	require.True(t, viaMult.Equal(viaAdd))
}

func TestScalarBaseMultMatchesScalarMult(t *testing.T) {
	s, err := RandomScalar()
	require.NoError(t, err)
	require.True(t, ScalarBaseMult(s).Equal(Generator().ScalarMult(s)))
}

func TestScalarMultReducesModOrder(t *testing.T) {
	g := Generator()
	beyond := new(big.Int).Add(Order(), big.NewInt(3))
	require.True(t, g.ScalarMult(beyond).Equal(g.ScalarMult(big.NewInt(3))))
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	pts := []Point{Generator(), H(), Identity(), Generator().ScalarMult(big.NewInt(12345))}
	for _, p := range pts {
		buf := p.Marshal()
		require.Len(t, buf, PointSize)
		decoded, err := Unmarshal(buf)
		require.NoError(t, err)
		require.True(t, p.Equal(decoded))
	}
}

func TestUnmarshalRejectsWrongLength(t *testing.T) {
	_, err := Unmarshal(make([]byte, PointSize-1))
	require.Error(t, err)
}

func TestJSONRoundTrip(t *testing.T) {
	p := Generator().ScalarMult(big.NewInt(99))
	buf, err := p.MarshalJSON()
	require.NoError(t, err)

	var decoded Point
	require.NoError(t, decoded.UnmarshalJSON(buf))
	require.True(t, p.Equal(decoded))
}

func TestCBORRoundTrip(t *testing.T) {
	p := Generator().ScalarMult(big.NewInt(99))
	buf, err := p.MarshalCBOR()
	require.NoError(t, err)

	var decoded Point
	require.NoError(t, decoded.UnmarshalCBOR(buf))
	require.True(t, p.Equal(decoded))
}

func TestHIsStableAndIndependentOfGenerator(t *testing.T) {
	require.True(t, H().Equal(H()))
	require.False(t, H().Equal(Generator()))
	require.False(t, H().IsIdentity())
}

func TestHashToPointIsDeterministic(t *testing.T) {
	a := HashToPoint("label-one", []byte("data"))
	b := HashToPoint("label-one", []byte("data"))
	require.True(t, a.Equal(b))

	c := HashToPoint("label-two", []byte("data"))
	require.False(t, a.Equal(c))
}
