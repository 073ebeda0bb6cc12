package main

import (
	"math"
	"math/rand"

	"github.com/westphae/windfusion/ekf"
)

// Situation is a truth timeline the simulator samples.
type Situation interface {
	BeginTime() float64
	EndTime() float64
	Interpolate(t float64, x *Truth) error
}

// Truth is the actual vehicle condition at one instant, which the filter
// only sees through noisy measurements.
type Truth struct {
	T                float64 // s
	VN, VE, VD       float64 // Velocity, earth frame, m/s
	Roll, Pitch, Yaw float64 // Attitude, rad
	WN, WE           float64 // Wind, earth frame, m/s
}

// Quaternion returns the attitude as a body-to-earth quaternion.
func (x *Truth) Quaternion() (q0, q1, q2, q3 float64) {
	return ekf.ToQuaternion(x.Roll, x.Pitch, x.Yaw)
}

// relativeWindBody returns the velocity of the vehicle through the air along
// the body X and Y axes.
func (x *Truth) relativeWindBody() (vx, vy float64) {
	s := ekf.NewState()
	s.Q0, s.Q1, s.Q2, s.Q3 = x.Quaternion()
	vx, vy, _ = s.EarthToBody(x.VN-x.WN, x.VE-x.WE, x.VD)
	return
}

// DragSample synthesizes the specific force a multirotor body would feel
// from quadratic drag, plus Gaussian noise of stdev noise m/s^2.
func (x *Truth) DragSample(cfg *ekf.DragConfig, noise float64, rnd *rand.Rand) ekf.DragSample {
	vx, vy := x.relativeWindBody()
	return ekf.DragSample{
		AccelX: -0.5*cfg.AirDensity/cfg.BCoefX*vx*math.Abs(vx) + gauss(rnd, noise),
		AccelY: -0.5*cfg.AirDensity/cfg.BCoefY*vy*math.Abs(vy) + gauss(rnd, noise),
		T:      x.T,
	}
}

// GPSVelocity returns a north/east velocity measurement with Gaussian noise
// of stdev noise m/s.
func (x *Truth) GPSVelocity(noise float64, rnd *rand.Rand) (vn, ve float64) {
	return x.VN + gauss(rnd, noise), x.VE + gauss(rnd, noise)
}

// gauss returns Gaussian noise with standard deviation sigma; rnd is only
// consulted when sigma is nonzero.
func gauss(rnd *rand.Rand, sigma float64) float64 {
	if sigma == 0 {
		return 0
	}
	return sigma * rnd.NormFloat64()
}
