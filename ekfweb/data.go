// Package ekfweb publishes drag fusion snapshots over a websocket so a
// browser or logger can watch the wind estimate live.
package ekfweb

// Port is the default port the telemetry server listens on.
const Port = 8000

// Path is the websocket endpoint served by the Room.
const Path = "/ekfweb"

// DragData is one JSON telemetry snapshot.
type DragData struct {
	T float64 // Time of the snapshot, s

	// Kalman state variables
	Roll, Pitch, Heading float64 // Attitude, °
	VN, VE, VD           float64 // Velocity, earth frame, m/s
	WN, WE               float64 // Wind velocity, earth frame, m/s

	// Kalman state uncertainties
	DVN, DVE float64 // Velocity, m/s
	DWN, DWE float64 // Wind velocity, m/s

	// Measurement variables
	AX, AY float64 // Specific force, body frame, m/s^2
	TD     float64 // Time of validity of the drag sample, s

	// Fusion diagnostics, X then Y
	InnovX, InnovY         float64
	InnovVarX, InnovVarY   float64
	TestRatioX, TestRatioY float64
	OutcomeX, OutcomeY     string

	// Monitor output
	Suspect                bool
	RejectionX, RejectionY float64
}
