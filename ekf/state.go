package ekf

import (
	"math"

	"github.com/skelterjohn/go.matrix"
)

// State holds the navigation state shared by all fusion channels.
// Body frame: 1 is to nose; 2 is to right wing; 3 is down.
// Earth frame is local NED: 1 is north; 2 is east; 3 is down.
type State struct {
	Q0, Q1, Q2, Q3 float64 // Quaternion rotating body frame to earth frame
	VN, VE, VD     float64 // Velocity, earth frame, m/s
	PN, PE, PD     float64 // Position, earth frame, m
	DAX, DAY, DAZ  float64 // Delta angle bias, body frame, rad
	DVX, DVY, DVZ  float64 // Delta velocity bias, body frame, m/s
	MN, ME, MD     float64 // Earth magnetic field, earth frame, gauss
	MX, MY, MZ     float64 // Magnetometer bias, body frame, gauss
	WN, WE         float64 // Wind velocity, earth frame, m/s

	T float64 // Time when state last updated

	P *matrix.DenseMatrix // Covariance matrix of state uncertainty, same order as above vars

	t11, t12, t13 float64 // cached body-to-earth rotation matrix
	t21, t22, t23 float64
	t31, t32, t33 float64
}

// NewState returns a level, stationary State with a diagonal covariance of
// plausible initial uncertainties.
func NewState() (s *State) {
	s = new(State)
	s.Q0 = 1

	// Standard deviations, squared into variances below
	s.P = matrix.Diagonal([]float64{
		0.1, 0.1, 0.1, 0.1, // Q*4
		0.5, 0.5, 0.5, // V*3
		0.5, 0.5, 5, // P*3
		0.1 * Deg * 0.01, 0.1 * Deg * 0.01, 0.1 * Deg * 0.01, // DA*3
		0.2 * 0.01, 0.2 * 0.01, 0.2 * 0.01, // DV*3
		0.05, 0.05, 0.05, // M earth*3
		0.05, 0.05, 0.05, // M body*3
		5, 5, // W*2
	})
	s.P = matrix.Product(s.P, s.P)

	s.calcRotationMatrices()
	return
}

// Copy returns a deep copy of the State, including its covariance.
func (s *State) Copy() (c *State) {
	c = new(State)
	*c = *s
	if s.P != nil {
		c.P = s.P.Copy()
	}
	return
}

// componentPtr returns a pointer to the state component at covariance index i.
func (s *State) componentPtr(i int) *float64 {
	switch i {
	case IdxQ0:
		return &s.Q0
	case IdxQ1:
		return &s.Q1
	case IdxQ2:
		return &s.Q2
	case IdxQ3:
		return &s.Q3
	case IdxVN:
		return &s.VN
	case IdxVE:
		return &s.VE
	case IdxVD:
		return &s.VD
	case IdxPN:
		return &s.PN
	case IdxPE:
		return &s.PE
	case IdxPD:
		return &s.PD
	case IdxDAX:
		return &s.DAX
	case IdxDAY:
		return &s.DAY
	case IdxDAZ:
		return &s.DAZ
	case IdxDVX:
		return &s.DVX
	case IdxDVY:
		return &s.DVY
	case IdxDVZ:
		return &s.DVZ
	case IdxMN:
		return &s.MN
	case IdxME:
		return &s.ME
	case IdxMD:
		return &s.MD
	case IdxMX:
		return &s.MX
	case IdxMY:
		return &s.MY
	case IdxMZ:
		return &s.MZ
	case IdxWN:
		return &s.WN
	case IdxWE:
		return &s.WE
	}
	return nil
}

// Component returns the state component at covariance index i.
func (s *State) Component(i int) float64 {
	if p := s.componentPtr(i); p != nil {
		return *p
	}
	return 0
}

// SetComponent sets the state component at covariance index i.
// Out-of-range indices are ignored.
func (s *State) SetComponent(i int, v float64) {
	if p := s.componentPtr(i); p != nil {
		*p = v
	}
}

// Vector returns the state components in covariance order.
func (s *State) Vector() (x [NumStates]float64) {
	for i := range x {
		x[i] = s.Component(i)
	}
	return
}

// Normalize scales the attitude quaternion to unit magnitude and refreshes
// the cached rotation matrix.
func (s *State) Normalize() {
	qq := math.Sqrt(s.Q0*s.Q0 + s.Q1*s.Q1 + s.Q2*s.Q2 + s.Q3*s.Q3)
	if qq < Small {
		s.Q0, s.Q1, s.Q2, s.Q3 = 1, 0, 0, 0
	} else {
		s.Q0 /= qq
		s.Q1 /= qq
		s.Q2 /= qq
		s.Q3 /= qq
	}

	s.calcRotationMatrices()
}

// calcRotationMatrices populates the body-to-earth rotation matrix based on
// the quaternion Q*.
func (s *State) calcRotationMatrices() {
	// tij rotates body frame j component into earth frame i component
	// X_e = Q*X_b*conj(Q)
	s.t11 = +s.Q0*s.Q0 + s.Q1*s.Q1 - s.Q2*s.Q2 - s.Q3*s.Q3
	s.t12 = 2 * (+s.Q1*s.Q2 - s.Q0*s.Q3)
	s.t13 = 2 * (+s.Q1*s.Q3 + s.Q0*s.Q2)
	s.t21 = 2 * (+s.Q1*s.Q2 + s.Q0*s.Q3)
	s.t22 = +s.Q0*s.Q0 - s.Q1*s.Q1 + s.Q2*s.Q2 - s.Q3*s.Q3
	s.t23 = 2 * (+s.Q2*s.Q3 - s.Q0*s.Q1)
	s.t31 = 2 * (+s.Q1*s.Q3 - s.Q0*s.Q2)
	s.t32 = 2 * (+s.Q2*s.Q3 + s.Q0*s.Q1)
	s.t33 = +s.Q0*s.Q0 - s.Q1*s.Q1 - s.Q2*s.Q2 + s.Q3*s.Q3
}

// EarthToBody rotates an earth frame vector into the body frame.
func (s *State) EarthToBody(n, e, d float64) (x, y, z float64) {
	s.calcRotationMatrices()
	x = s.t11*n + s.t21*e + s.t31*d
	y = s.t12*n + s.t22*e + s.t32*d
	z = s.t13*n + s.t23*e + s.t33*d
	return
}

// BodyToEarth rotates a body frame vector into the earth frame.
func (s *State) BodyToEarth(x, y, z float64) (n, e, d float64) {
	s.calcRotationMatrices()
	n = s.t11*x + s.t12*y + s.t13*z
	e = s.t21*x + s.t22*y + s.t23*z
	d = s.t31*x + s.t32*y + s.t33*z
	return
}

// RollPitchYaw returns the current attitude, in radians.
func (s *State) RollPitchYaw() (roll, pitch, yaw float64) {
	return FromQuaternion(s.Q0, s.Q1, s.Q2, s.Q3)
}

// WindUncertainty returns the standard deviation of the wind estimate, m/s.
func (s *State) WindUncertainty() (dwn, dwe float64) {
	return math.Sqrt(math.Max(s.P.Get(IdxWN, IdxWN), 0)), math.Sqrt(math.Max(s.P.Get(IdxWE, IdxWE), 0))
}

// UpdateLogMap fills p with current state, measurement and diagnostic values
// for analysis.
func (s *State) UpdateLogMap(d *DragSample, diag *DragDiagnostics, p map[string]interface{}) {
	var logMap = map[string]func(s *State, d *DragSample, diag *DragDiagnostics) float64{
		"T":  func(s *State, d *DragSample, diag *DragDiagnostics) float64 { return s.T },
		"TD": func(s *State, d *DragSample, diag *DragDiagnostics) float64 { return d.T },
		"AX": func(s *State, d *DragSample, diag *DragDiagnostics) float64 { return d.AccelX },
		"AY": func(s *State, d *DragSample, diag *DragDiagnostics) float64 { return d.AccelY },
		"VN": func(s *State, d *DragSample, diag *DragDiagnostics) float64 { return s.VN },
		"VE": func(s *State, d *DragSample, diag *DragDiagnostics) float64 { return s.VE },
		"VD": func(s *State, d *DragSample, diag *DragDiagnostics) float64 { return s.VD },
		"WN": func(s *State, d *DragSample, diag *DragDiagnostics) float64 { return s.WN },
		"WE": func(s *State, d *DragSample, diag *DragDiagnostics) float64 { return s.WE },
		"DWN": func(s *State, d *DragSample, diag *DragDiagnostics) float64 {
			dwn, _ := s.WindUncertainty()
			return dwn
		},
		"DWE": func(s *State, d *DragSample, diag *DragDiagnostics) float64 {
			_, dwe := s.WindUncertainty()
			return dwe
		},
		"InnovX":     func(s *State, d *DragSample, diag *DragDiagnostics) float64 { return diag.Innov[0] },
		"InnovY":     func(s *State, d *DragSample, diag *DragDiagnostics) float64 { return diag.Innov[1] },
		"InnovVarX":  func(s *State, d *DragSample, diag *DragDiagnostics) float64 { return diag.InnovVar[0] },
		"InnovVarY":  func(s *State, d *DragSample, diag *DragDiagnostics) float64 { return diag.InnovVar[1] },
		"TestRatioX": func(s *State, d *DragSample, diag *DragDiagnostics) float64 { return diag.TestRatio[0] },
		"TestRatioY": func(s *State, d *DragSample, diag *DragDiagnostics) float64 { return diag.TestRatio[1] },
		"OutcomeX":   func(s *State, d *DragSample, diag *DragDiagnostics) float64 { return float64(diag.Outcome[0]) },
		"OutcomeY":   func(s *State, d *DragSample, diag *DragDiagnostics) float64 { return float64(diag.Outcome[1]) },
	}

	for k := range logMap {
		p[k] = logMap[k](s, d, diag)
	}
}
