package ekf

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/westphae/quaternion"
)

const Tolerance = 1e-6

func notSmall(x float64) bool {
	return math.Abs(x) > Tolerance
}

// wrapPi brings an angle difference into [-Pi, Pi).
func wrapPi(x float64) float64 {
	for x >= Pi {
		x -= 2 * Pi
	}
	for x < -Pi {
		x += 2 * Pi
	}
	return x
}

func TestRoundTrips(t *testing.T) {
	rolls := []float64{0, 0.1, 0.2, 0.5, 1, 1.5, 2, 2.5, 3, -3, -2, -1, -0.5, -0.2}
	pitches := []float64{0.1, 0.2, 0.5, 1, 1.5, -1.5, -0.5, -0.2, 0.2, 0.1, -1, -0.5, -0.2, 0}
	yaws := []float64{1, 1.5, 2, 2.5, 3, 4, 0.1, 0.2, 0.5, 5, 5.5, 3.5, 6, 0}

	for i := range rolls {
		q0, q1, q2, q3 := ToQuaternion(rolls[i], pitches[i], yaws[i])
		if notSmall(q0*q0 + q1*q1 + q2*q2 + q3*q3 - 1) {
			t.Errorf("quaternion not unit: %f %f %f %f", q0, q1, q2, q3)
		}
		r, p, y := FromQuaternion(q0, q1, q2, q3)
		if notSmall(wrapPi(r-rolls[i])) || notSmall(p-pitches[i]) || notSmall(wrapPi(y-yaws[i])) {
			t.Errorf("round trip: roll %1.4f==%1.4f, pitch %1.4f==%1.4f, yaw %1.4f==%1.4f",
				r, rolls[i], p, pitches[i], y, yaws[i])
		}
		if y < -Tolerance || y >= 2*Pi {
			t.Errorf("yaw %f outside [0, 2*Pi)", y)
		}
	}
}

func TestHeadings(t *testing.T) {
	tests := []struct {
		yaw     float64
		n, e, d float64 // nose direction in earth frame
	}{
		{0, 1, 0, 0},
		{90 * Deg, 0, 1, 0},
		{180 * Deg, -1, 0, 0},
		{270 * Deg, 0, -1, 0},
	}

	s := NewState()
	for _, tt := range tests {
		t.Run(fmt.Sprintf("yaw %3.0f", tt.yaw/Deg), func(t *testing.T) {
			s.Q0, s.Q1, s.Q2, s.Q3 = ToQuaternion(0, 0, tt.yaw)
			n, e, d := s.BodyToEarth(1, 0, 0)
			if notSmall(n-tt.n) || notSmall(e-tt.e) || notSmall(d-tt.d) {
				t.Errorf("nose points %f %f %f, expected %f %f %f", n, e, d, tt.n, tt.e, tt.d)
			}
		})
	}
}

// TestRotationMatchesQuaternionProduct checks the cached rotation matrix
// against Q*X*conj(Q) computed by quaternion multiplication.
func TestRotationMatchesQuaternionProduct(t *testing.T) {
	rnd := rand.New(rand.NewSource(17))
	s := NewState()

	for i := 0; i < 50; i++ {
		s.Q0, s.Q1, s.Q2, s.Q3 = rnd.Float64()*2-1, rnd.Float64()*2-1, rnd.Float64()*2-1, rnd.Float64()*2-1
		s.Normalize()
		x, y, z := rnd.Float64()*20-10, rnd.Float64()*20-10, rnd.Float64()*20-10

		e := quaternion.Quaternion{W: s.Q0, X: s.Q1, Y: s.Q2, Z: s.Q3}
		v := quaternion.Prod(e, quaternion.Quaternion{X: x, Y: y, Z: z}, e.Conj())

		n, ee, d := s.BodyToEarth(x, y, z)
		if notSmall(n-v.X) || notSmall(ee-v.Y) || notSmall(d-v.Z) {
			t.Errorf("BodyToEarth %f %f %f, quaternion product %f %f %f", n, ee, d, v.X, v.Y, v.Z)
		}

		bx, by, bz := s.EarthToBody(n, ee, d)
		if notSmall(bx-x) || notSmall(by-y) || notSmall(bz-z) {
			t.Errorf("EarthToBody did not invert BodyToEarth: %f %f %f vs %f %f %f", bx, by, bz, x, y, z)
		}
	}
}

func TestNormalizeDegenerate(t *testing.T) {
	s := NewState()
	s.Q0, s.Q1, s.Q2, s.Q3 = 0, 0, 0, 0
	s.Normalize()
	if s.Q0 != 1 || s.Q1 != 0 || s.Q2 != 0 || s.Q3 != 0 {
		t.Errorf("zero quaternion should reset to identity, got %f %f %f %f", s.Q0, s.Q1, s.Q2, s.Q3)
	}
}
