package ekf

import "math"

// FusionOutcome records what happened to one axis of a drag observation.
type FusionOutcome int

const (
	Skipped        FusionOutcome = iota // Axis not processed
	Disabled                            // Ballistic coefficients unusable, nothing done
	IllConditioned                      // Innovation variance fell below the noise floor
	Rejected                            // Failed the innovation consistency gate
	Unhealthy                           // Covariance correction would go negative; variances reset
	Fused                               // Covariance and state corrected
)

func (o FusionOutcome) String() string {
	switch o {
	case Disabled:
		return "disabled"
	case IllConditioned:
		return "ill-conditioned"
	case Rejected:
		return "rejected"
	case Unhealthy:
		return "unhealthy"
	case Fused:
		return "fused"
	}
	return "skipped"
}

// DragDiagnostics holds the per-axis results of a drag fusion, published for
// fault detection and logging. Index 0 is body X, index 1 is body Y.
type DragDiagnostics struct {
	Innov     [2]float64 // Predicted minus measured specific force, m/s^2
	InnovVar  [2]float64 // Innovation variance, (m/s^2)^2
	TestRatio [2]float64 // Innov^2 / (25*InnovVar)
	Outcome   [2]FusionOutcome
}

// AxisResult holds the diagnostics for a single axis.
type AxisResult struct {
	Innov, InnovVar, TestRatio float64
	Outcome                    FusionOutcome
}

// DragObservation is the linearized drag observation along one body axis.
type DragObservation struct {
	Measured  float64 // Bias-corrected measured specific force, m/s^2
	Airspeed  float64 // Airspeed implied by the measured drag, m/s
	Slope     float64 // d(specific force)/d(airspeed) used for linearization, floored, 1/s
	RelWind   float64 // Relative wind along the axis, body frame, m/s
	Predicted float64 // Predicted specific force, m/s^2
	Innov     float64 // Predicted minus measured, m/s^2

	// H is the observation Jacobian over the states in dragStates:
	// Q0, Q1, Q2, Q3, VN, VE, VD, WN, WE.
	H [9]float64
}

// DragModel evaluates the drag observation for axis 0 (X) or 1 (Y) at the
// current state, along with its Jacobian.
func DragModel(axis int, s *State, d DragSample, cfg *DragConfig) (o DragObservation) {
	rho := cfg.rho()
	bcInv := cfg.bcInv(axis)

	// Convert the delta velocity bias state into an acceleration bias
	bias := s.DVX
	if axis == 1 {
		bias = s.DVY
	}
	o.Measured = d.Accel(axis) - bias/cfg.DtAvg

	// Airspeed implied by the measured drag; its derivative vanishes near
	// zero relative wind, so floor it to keep the update well posed
	o.Airspeed = math.Sqrt(2 * math.Abs(o.Measured) / (bcInv * rho))
	o.Slope = rho * bcInv * o.Airspeed
	if !(o.Slope >= minDragSlope) || math.IsInf(o.Slope, 1) {
		// Also catches a NaN or infinite sample, which then fails the gate
		o.Slope = minDragSlope
	}

	// Relative wind, earth frame; wind has no vertical component
	rn := s.VN - s.WN
	re := s.VE - s.WE
	rd := s.VD

	s.calcRotationMatrices()
	var dv [9]float64 // d(RelWind)/d(state), same order as H
	if axis == 0 {
		o.RelWind = s.t11*rn + s.t21*re + s.t31*rd
		dv[0] = 2 * (+s.Q0*rn + s.Q3*re - s.Q2*rd) // X/Q0
		dv[1] = 2 * (+s.Q1*rn + s.Q2*re + s.Q3*rd) // X/Q1
		dv[2] = 2 * (-s.Q2*rn + s.Q1*re - s.Q0*rd) // X/Q2
		dv[3] = 2 * (-s.Q3*rn + s.Q0*re + s.Q1*rd) // X/Q3
		dv[4] = s.t11                              // X/VN
		dv[5] = s.t21                              // X/VE
		dv[6] = s.t31                              // X/VD
		dv[7] = -s.t11                             // X/WN
		dv[8] = -s.t21                             // X/WE
	} else {
		o.RelWind = s.t12*rn + s.t22*re + s.t32*rd
		dv[0] = 2 * (-s.Q3*rn + s.Q0*re + s.Q1*rd) // Y/Q0
		dv[1] = 2 * (+s.Q2*rn - s.Q1*re + s.Q0*rd) // Y/Q1
		dv[2] = 2 * (+s.Q1*rn + s.Q2*re + s.Q3*rd) // Y/Q2
		dv[3] = 2 * (-s.Q0*rn - s.Q3*re + s.Q2*rd) // Y/Q3
		dv[4] = s.t12                              // Y/VN
		dv[5] = s.t22                              // Y/VE
		dv[6] = s.t32                              // Y/VD
		dv[7] = -s.t12                             // Y/WN
		dv[8] = -s.t22                             // Y/WE
	}

	// Quadratic drag opposing the relative wind
	sign := 1.0
	if o.RelWind < 0 {
		sign = -1
	}
	o.Predicted = -bcInv * 0.5 * rho * o.RelWind * o.RelWind * sign
	o.Innov = o.Predicted - o.Measured

	// Linearized about the measured slope: d(Predicted) = -Slope*d(RelWind)
	for i := range dv {
		o.H[i] = -o.Slope * dv[i]
	}
	return
}

// FuseDrag fuses a body X then body Y specific force observation into the
// wind estimate. The axes are fused sequentially, so the Y axis sees the
// covariance left by the X axis.
// Only the states listed in cfg.GainStates (the wind by default) are
// corrected, while the covariance correction spans every state the
// observation depends on.
func (s *State) FuseDrag(d DragSample, cfg *DragConfig) (diag DragDiagnostics) {
	if !cfg.Enabled() {
		diag.Outcome = [2]FusionOutcome{Disabled, Disabled}
		return
	}

	for axis := 0; axis < 2; axis++ {
		r := s.FuseDragAxis(axis, d, cfg)
		diag.Innov[axis] = r.Innov
		diag.InnovVar[axis] = r.InnovVar
		diag.TestRatio[axis] = r.TestRatio
		diag.Outcome[axis] = r.Outcome
	}
	return
}

// FuseDragAxis fuses the specific force observation along a single body axis,
// 0 (X) or 1 (Y).
func (s *State) FuseDragAxis(axis int, d DragSample, cfg *DragConfig) (r AxisResult) {
	if !cfg.Enabled() {
		r.Outcome = Disabled
		return
	}
	if axis != 0 && axis != 1 {
		return
	}

	o := DragModel(axis, s, d, cfg)
	rr := cfg.R()

	// Innovation variance, only over the states the observation touches
	ss := rr
	for a, ia := range dragStates {
		var ph float64
		for b, ib := range dragStates {
			ph += s.P.Get(ia, ib) * o.H[b]
		}
		ss += o.H[a] * ph
	}

	r.Innov = o.Innov
	r.InnovVar = ss
	r.TestRatio = o.Innov * o.Innov / (gateSigma * gateSigma * ss)

	if ss < rr {
		// Badly conditioned
		r.Outcome = IllConditioned
		return
	}
	if !(r.TestRatio <= 1) {
		r.Outcome = Rejected
		return
	}

	// Kalman gain, structurally zero outside the permitted states
	mask := cfg.gainMask()
	var k [NumStates]float64
	for i := 0; i < NumStates; i++ {
		if !mask[i] {
			continue
		}
		var pht float64
		for a, ia := range dragStates {
			pht += s.P.Get(i, ia) * o.H[a]
		}
		k[i] = pht / ss
	}

	// KHP(i,j) = k[i]*hp[j]
	var hp [NumStates]float64
	for j := 0; j < NumStates; j++ {
		for a, ia := range dragStates {
			hp[j] += o.H[a] * s.P.Get(ia, j)
		}
	}

	// If the correction would make any variance negative, the covariance
	// is unhealthy and must be repaired instead
	healthy := true
	for i := 0; i < NumStates; i++ {
		if s.P.Get(i, i) < k[i]*hp[i] {
			repairUnhealthyVariance(s.P, i)
			healthy = false
		}
	}
	if !healthy {
		r.Outcome = Unhealthy
		return
	}

	// P = P - KHP
	for i := 0; i < NumStates; i++ {
		if k[i] == 0 {
			continue
		}
		for j := 0; j < NumStates; j++ {
			s.P.Set(i, j, s.P.Get(i, j)-k[i]*hp[j])
		}
	}
	FixCovarianceErrors(s.P)

	// x = x - K*innov
	for i := 0; i < NumStates; i++ {
		if k[i] != 0 {
			s.SetComponent(i, s.Component(i)-k[i]*o.Innov)
		}
	}

	r.Outcome = Fused
	return
}
