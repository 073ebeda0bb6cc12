// Package ekf implements the body-frame drag fusion step of a 24-state
// navigation Kalman filter, used by multirotors to estimate horizontal wind.
package ekf

import "math"

const (
	Pi    = math.Pi
	Deg   = Pi / 180
	Small = 1e-9
	Big   = 1e9

	NumStates = 24

	minBCoef      = 1.0 // ballistic coefficients below this disable drag fusion, kg/m^2
	minAirDensity = 0.1 // kg/m^3
	minDragSlope  = 0.1 // floor on d(specific force)/d(airspeed), 1/s
	gateSigma     = 5.0 // innovation consistency gate, standard deviations
)

// Indices into the state vector and covariance matrix.
const (
	IdxQ0 = iota // Quaternion rotating body frame to earth (NED) frame
	IdxQ1
	IdxQ2
	IdxQ3
	IdxVN // Velocity, earth frame, m/s
	IdxVE
	IdxVD
	IdxPN // Position, earth frame, m
	IdxPE
	IdxPD
	IdxDAX // Delta angle bias, body frame, rad
	IdxDAY
	IdxDAZ
	IdxDVX // Delta velocity bias, body frame, m/s
	IdxDVY
	IdxDVZ
	IdxMN // Earth magnetic field, earth frame, gauss
	IdxME
	IdxMD
	IdxMX // Magnetometer bias, body frame, gauss
	IdxMY
	IdxMZ
	IdxWN // Wind velocity, earth frame, m/s
	IdxWE
)

var stateNames = [NumStates]string{
	"Q0", "Q1", "Q2", "Q3",
	"VN", "VE", "VD",
	"PN", "PE", "PD",
	"DAX", "DAY", "DAZ",
	"DVX", "DVY", "DVZ",
	"MN", "ME", "MD",
	"MX", "MY", "MZ",
	"WN", "WE",
}

// StateIndex returns the covariance index of the named state component,
// or -1 if there is no such component.
func StateIndex(name string) int {
	for i, n := range stateNames {
		if n == name {
			return i
		}
	}
	return -1
}

// StateName returns the name of the state component at index i.
func StateName(i int) string {
	if i < 0 || i >= NumStates {
		return ""
	}
	return stateNames[i]
}

// dragStates lists the states a drag observation depends on, in the order
// used for the Jacobian row.
var dragStates = [9]int{IdxQ0, IdxQ1, IdxQ2, IdxQ3, IdxVN, IdxVE, IdxVD, IdxWN, IdxWE}

// DragSample holds a time-aligned specific force measurement along the body
// X and Y axes, m/s^2.
type DragSample struct {
	AccelX, AccelY float64
	T              float64 // Time of validity, s
}

// Accel returns the measured specific force along axis 0 (X) or 1 (Y).
func (d DragSample) Accel(axis int) float64 {
	if axis == 0 {
		return d.AccelX
	}
	return d.AccelY
}
