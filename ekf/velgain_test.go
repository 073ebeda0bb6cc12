package ekf

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNEVelocityGainMatchesInverse(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))

	for n := 0; n < 100; n++ {
		p00 := rnd.Float64()*4 + 0.01
		p11 := rnd.Float64()*4 + 0.01
		p01 := (rnd.Float64()*2 - 1) * 0.9 * math.Sqrt(p00*p11)
		r := rnd.Float64() + 0.01

		k00, k01, k11, ok := NEVelocityGain(p00, p01, p11, r)
		require.True(t, ok)

		p := mat.NewDense(2, 2, []float64{p00, p01, p01, p11})
		s := mat.NewDense(2, 2, []float64{p00 + r, p01, p01, p11 + r})
		var sInv, k mat.Dense
		require.NoError(t, sInv.Inverse(s))
		k.Mul(p, &sInv)

		assert.InDelta(t, k.At(0, 0), k00, 1e-9)
		assert.InDelta(t, k.At(0, 1), k01, 1e-9)
		assert.InDelta(t, k.At(1, 0), k01, 1e-9)
		assert.InDelta(t, k.At(1, 1), k11, 1e-9)
	}
}

func TestNEVelocityGainSingular(t *testing.T) {
	_, _, _, ok := NEVelocityGain(0, 0, 0, 0)
	assert.False(t, ok)
}

func TestFuseVelNE(t *testing.T) {
	s := NewState()
	s.VN, s.VE = 1, -1
	p00 := s.P.Get(IdxVN, IdxVN)
	r := 0.01

	require.True(t, s.FuseVelNE(5, 3, r))

	k := p00 / (p00 + r)
	assert.InDelta(t, 1+k*4, s.VN, 1e-12)
	assert.InDelta(t, -1+k*4, s.VE, 1e-12)
	assert.InDelta(t, p00*r/(p00+r), s.P.Get(IdxVN, IdxVN), 1e-12)
	assert.InDelta(t, 0, s.P.Get(IdxVN, IdxVE), 1e-12)
	assert.Equal(t, 0.0, s.WN)
}
