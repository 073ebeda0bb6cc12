package ekf

import (
	"errors"
	"fmt"
)

// DragConfig holds the tuning used by drag fusion. It is read-only during fusion.
type DragConfig struct {
	BCoefX     float64 `mapstructure:"bcoef_x" json:"bcoef_x"`         // Ballistic coefficient along body X, kg/m^2
	BCoefY     float64 `mapstructure:"bcoef_y" json:"bcoef_y"`         // Ballistic coefficient along body Y, kg/m^2
	DragNoise  float64 `mapstructure:"drag_noise" json:"drag_noise"`   // Specific force observation noise, m/s^2
	AirDensity float64 `mapstructure:"air_density" json:"air_density"` // kg/m^3
	DtAvg      float64 `mapstructure:"dt_avg" json:"dt_avg"`           // Filter-averaged update interval, s

	// GainStates lists the state indices allowed to receive a correction from
	// a drag observation. Everything else has its gain held at zero.
	GainStates []int `mapstructure:"gain_states" json:"gain_states"`
}

// DefaultDragConfig returns the tuning for a typical small multirotor.
func DefaultDragConfig() *DragConfig {
	return &DragConfig{
		BCoefX:     25,
		BCoefY:     25,
		DragNoise:  2.5,
		AirDensity: 1.225,
		DtAvg:      0.01,
		GainStates: []int{IdxWN, IdxWE},
	}
}

// Enabled reports whether both ballistic coefficients are usable.
func (c *DragConfig) Enabled() bool {
	return c.BCoefX >= minBCoef && c.BCoefY >= minBCoef
}

// R returns the observation noise variance, (m/s^2)^2.
func (c *DragConfig) R() float64 {
	return c.DragNoise * c.DragNoise
}

// rho returns the air density, floored to avoid division pathologies.
func (c *DragConfig) rho() float64 {
	if c.AirDensity < minAirDensity {
		return minAirDensity
	}
	return c.AirDensity
}

// bcInv returns the inverse ballistic coefficient for axis 0 (X) or 1 (Y).
func (c *DragConfig) bcInv(axis int) float64 {
	if axis == 0 {
		return 1 / c.BCoefX
	}
	return 1 / c.BCoefY
}

// gainMask expands GainStates into a per-state lookup.
func (c *DragConfig) gainMask() (mask [NumStates]bool) {
	gs := c.GainStates
	if gs == nil {
		gs = []int{IdxWN, IdxWE}
	}
	for _, i := range gs {
		if i >= 0 && i < NumStates {
			mask[i] = true
		}
	}
	return
}

// SetConfig lets the user alter some of the configuration settings.
// Unknown keys are ignored, as are non-positive noise, density and dt values.
func (c *DragConfig) SetConfig(configMap map[string]float64) {
	for k, v := range configMap {
		switch k {
		case "bcoef_x":
			c.BCoefX = v
		case "bcoef_y":
			c.BCoefY = v
		case "drag_noise":
			if v > 0 {
				c.DragNoise = v
			}
		case "air_density":
			if v > 0 {
				c.AirDensity = v
			}
		case "dt_avg":
			if v > 0 {
				c.DtAvg = v
			}
		}
	}
}

// Validate reports tuning that would make fusion numerically meaningless.
// Ballistic coefficients below the usable minimum are not an error: they
// simply disable drag fusion.
func (c *DragConfig) Validate() error {
	if c.DragNoise <= 0 {
		return errors.New("drag_noise must be positive")
	}
	if c.DtAvg <= 0 {
		return errors.New("dt_avg must be positive")
	}
	for _, i := range c.GainStates {
		if i < 0 || i >= NumStates {
			return fmt.Errorf("gain_states: index %d out of range", i)
		}
	}
	return nil
}
