package ekf

// NewVarianceAccumulator returns a function that, when passed a float,
// accumulates an exponentially weighted mean and variance with decay
// constant "decay". The accumulator is initialized with an observation
// "init" and returns the current estimates of the effective number of
// observations, the mean and the variance.
func NewVarianceAccumulator(init, decay float64) func(float64) (float64, float64, float64) {
	var (
		n float64 = 1
		m         = init
		v float64 = 0
	)

	f := func(obs float64) (float64, float64, float64) {
		d := obs - m
		dm := (1 - decay) * d

		n = 1 + decay*n
		m += dm
		v = decay * (v + dm*d)
		return n, m, v
	}
	return f
}

// InnovationMonitor tracks smoothed drag test ratios and outcome counts so a
// supervisor can decide when the wind estimate has stopped being trustworthy.
type InnovationMonitor struct {
	accums   [2]func(float64) (float64, float64, float64)
	mean     [2]float64
	variance [2]float64
	Counts   [2]map[FusionOutcome]int
}

// NewInnovationMonitor returns a monitor whose averages forget with the
// given decay constant, e.g. 1-1.0/50 for a 50 sample time constant.
func NewInnovationMonitor(decay float64) *InnovationMonitor {
	m := new(InnovationMonitor)
	for i := range m.accums {
		m.accums[i] = NewVarianceAccumulator(0, decay)
		m.Counts[i] = make(map[FusionOutcome]int)
	}
	return m
}

// Add records the diagnostics of one drag fusion. Disabled and skipped axes
// carry no information and only bump the counters.
func (m *InnovationMonitor) Add(diag *DragDiagnostics) {
	for i := 0; i < 2; i++ {
		m.Counts[i][diag.Outcome[i]]++
		if diag.Outcome[i] == Disabled || diag.Outcome[i] == Skipped {
			continue
		}
		_, m.mean[i], m.variance[i] = m.accums[i](diag.TestRatio[i])
	}
}

// TestRatio returns the smoothed mean and variance of the test ratio for axis i.
func (m *InnovationMonitor) TestRatio(i int) (mean, variance float64) {
	return m.mean[i], m.variance[i]
}

// RejectionFraction returns the fraction of evaluated observations on axis i
// that failed the consistency gate.
func (m *InnovationMonitor) RejectionFraction(i int) float64 {
	c := m.Counts[i]
	total := c[Fused] + c[Rejected] + c[Unhealthy] + c[IllConditioned]
	if total == 0 {
		return 0
	}
	return float64(c[Rejected]) / float64(total)
}

// Suspect reports whether either axis has a smoothed test ratio above the gate.
func (m *InnovationMonitor) Suspect() bool {
	return m.mean[0] > 1 || m.mean[1] > 1
}
