package main

import (
	"errors"
	"math"
	"sort"
)

const pi = math.Pi

var errOutsideScenario = errors.New("requested time is outside of scenario")

// SituationSim defines a scenario by piecewise-linear interpolation
type SituationSim struct {
	t               []float64 // times for situation, s
	vn, ve, vd      []float64 // velocity, m/s, earth frame [N/S, E/W, and U/D]
	phi, theta, psi []float64 // attitude, rad [roll R/L, pitch U/D, heading N->E->S->W]
	wn, we          []float64 // windspeed, m/s, earth frame [N/S, E/W]
}

// BeginTime returns the time stamp when the simulation begins
func (s *SituationSim) BeginTime() float64 {
	return s.t[0]
}

// EndTime returns the time stamp when the simulation ends
func (s *SituationSim) EndTime() float64 {
	return s.t[len(s.t)-1]
}

// Interpolate the Truth from a Situation definition at a given time
func (s *SituationSim) Interpolate(t float64, x *Truth) error {
	if len(s.t) < 2 || t < s.t[0] || t > s.t[len(s.t)-1] {
		return errOutsideScenario
	}
	ix := 0
	if t > s.t[0] {
		ix = sort.SearchFloat64s(s.t, t) - 1
	}

	f := (s.t[ix+1] - t) / (s.t[ix+1] - s.t[ix])
	lerp := func(a []float64) float64 {
		return f*a[ix] + (1-f)*a[ix+1]
	}

	x.T = t
	x.VN = lerp(s.vn)
	x.VE = lerp(s.ve)
	x.VD = lerp(s.vd)
	x.Roll = lerp(s.phi)
	x.Pitch = lerp(s.theta)
	x.Yaw = lerp(s.psi)
	x.WN = lerp(s.wn)
	x.WE = lerp(s.we)
	return nil
}

func repeat(v float64, n int) []float64 {
	a := make([]float64, n)
	for i := range a {
		a[i] = v
	}
	return a
}

// newHoverSituation holds position in a steady wind for two minutes.
func newHoverSituation(wn, we float64) *SituationSim {
	return &SituationSim{
		t:     []float64{0, 120},
		vn:    repeat(0, 2),
		ve:    repeat(0, 2),
		vd:    repeat(0, 2),
		phi:   repeat(0, 2),
		theta: repeat(0, 2),
		psi:   repeat(0, 2),
		wn:    repeat(wn, 2),
		we:    repeat(we, 2),
	}
}

// newCruiseSituation accelerates north, cruises, then slows and hovers.
func newCruiseSituation(wn, we float64) *SituationSim {
	// start, accelerate, cruise, decelerate, hover, end
	return &SituationSim{
		t:     []float64{0, 10, 20, 80, 90, 120},
		vn:    []float64{0, 0, 12, 12, 0, 0},
		ve:    repeat(0, 6),
		vd:    repeat(0, 6),
		phi:   repeat(0, 6),
		theta: []float64{0, 0, -0.15, -0.15, 0, 0},
		psi:   repeat(0, 6),
		wn:    repeat(wn, 6),
		we:    repeat(we, 6),
	}
}

// newTurnSituation flies two laps of a square-ish circuit, yawing with the
// velocity so the drag moves between body axes.
func newTurnSituation(wn, we float64) *SituationSim {
	const v = 8.0
	t := []float64{0, 10}
	vn := []float64{0, v}
	ve := []float64{0, 0}
	psi := []float64{0, 0}
	for lap := 0; lap < 2; lap++ {
		for q := 1; q <= 4; q++ {
			t = append(t, t[len(t)-1]+10)
			a := float64(lap*4+q) * pi / 2
			vn = append(vn, v*math.Cos(a))
			ve = append(ve, v*math.Sin(a))
			psi = append(psi, a)
		}
	}
	n := len(t)
	return &SituationSim{
		t:     t,
		vn:    vn,
		ve:    ve,
		vd:    repeat(0, n),
		phi:   repeat(0.1, n),
		theta: repeat(-0.1, n),
		psi:   psi,
		wn:    repeat(wn, n),
		we:    repeat(we, n),
	}
}
