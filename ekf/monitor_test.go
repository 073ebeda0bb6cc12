package ekf

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarianceAccumulator(t *testing.T) {
	f := NewVarianceAccumulator(0, 0.5)
	var n, m, v float64
	for i := 0; i < 100; i++ {
		n, m, v = f(2)
	}
	assert.InDelta(t, 2, n, 1e-9)
	assert.InDelta(t, 2, m, 1e-9)
	assert.InDelta(t, 0, v, 1e-9)
}

func TestInnovationMonitor(t *testing.T) {
	m := NewInnovationMonitor(0.9)
	ok := DragDiagnostics{TestRatio: [2]float64{0.1, 0.2}, Outcome: [2]FusionOutcome{Fused, Fused}}
	bad := DragDiagnostics{TestRatio: [2]float64{4, 0.2}, Outcome: [2]FusionOutcome{Rejected, Fused}}
	off := DragDiagnostics{Outcome: [2]FusionOutcome{Disabled, Disabled}}

	for i := 0; i < 20; i++ {
		m.Add(&ok)
		m.Add(&off)
	}
	assert.False(t, m.Suspect())
	assert.Equal(t, 0.0, m.RejectionFraction(0))
	assert.Equal(t, 20, m.Counts[0][Disabled])

	for i := 0; i < 60; i++ {
		m.Add(&bad)
	}
	assert.True(t, m.Suspect())
	assert.InDelta(t, 0.75, m.RejectionFraction(0), 1e-12)
	assert.Equal(t, 0.0, m.RejectionFraction(1))
	mean, _ := m.TestRatio(0)
	assert.Greater(t, mean, 1.0)
}

func TestDragLogger(t *testing.T) {
	s := NewState()
	s.WN = 1.5
	d := DragSample{AccelX: -0.25, T: 3}
	diag := DragDiagnostics{Outcome: [2]FusionOutcome{Fused, Rejected}}

	logMap := make(map[string]interface{})
	s.UpdateLogMap(&d, &diag, logMap)

	var buf bytes.Buffer
	l, err := NewDragLogger(&buf, logMap)
	require.NoError(t, err)
	require.NoError(t, l.Log())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	header := strings.Split(lines[0], ",")
	row := strings.Split(lines[1], ",")
	require.Equal(t, len(header), len(row))

	vals := make(map[string]string)
	for i, h := range header {
		vals[h] = row[i]
	}
	assert.Equal(t, "1.5", vals["WN"])
	assert.Equal(t, "-0.25", vals["AX"])
	assert.Equal(t, "3", vals["TD"])
	assert.Equal(t, "5", vals["OutcomeX"])
	assert.Equal(t, "3", vals["OutcomeY"])
	assert.NoError(t, l.Close())
}
