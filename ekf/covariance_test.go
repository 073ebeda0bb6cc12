package ekf

import (
	"testing"

	"github.com/skelterjohn/go.matrix"
)

func TestFixCovarianceErrors(t *testing.T) {
	p := matrix.Zeros(NumStates, NumStates)
	p.Set(IdxQ0, IdxQ0, 5)
	p.Set(IdxVN, IdxVN, -1)
	p.Set(IdxWN, IdxWN, 2e6)
	p.Set(IdxVN, IdxWN, 1)
	p.Set(IdxWN, IdxVN, 3)

	FixCovarianceErrors(p)

	if p.Get(IdxQ0, IdxQ0) != 1 {
		t.Errorf("quaternion variance not clamped: %f", p.Get(IdxQ0, IdxQ0))
	}
	if p.Get(IdxVN, IdxVN) != 0 {
		t.Errorf("negative variance not zeroed: %f", p.Get(IdxVN, IdxVN))
	}
	if p.Get(IdxWN, IdxWN) != 1e6 {
		t.Errorf("wind variance not clamped: %f", p.Get(IdxWN, IdxWN))
	}
	if p.Get(IdxVN, IdxWN) != 2 || p.Get(IdxWN, IdxVN) != 2 {
		t.Errorf("off-diagonals not averaged: %f %f", p.Get(IdxVN, IdxWN), p.Get(IdxWN, IdxVN))
	}
}

func TestUncorrelateSetVariance(t *testing.T) {
	s := NewState()
	s.P.Set(IdxWE, IdxVE, 0.3)
	s.P.Set(IdxVE, IdxWE, 0.3)

	UncorrelateSetVariance(s.P, IdxWE, 4)
	for j := 0; j < NumStates; j++ {
		if j == IdxWE {
			continue
		}
		if s.P.Get(IdxWE, j) != 0 || s.P.Get(j, IdxWE) != 0 {
			t.Errorf("WE still correlated with %s", StateName(j))
		}
	}
	if s.P.Get(IdxWE, IdxWE) != 4 {
		t.Errorf("WE variance %f, expected 4", s.P.Get(IdxWE, IdxWE))
	}
	if s.P.Get(IdxVE, IdxVE) != 0.25 {
		t.Errorf("VE variance changed to %f", s.P.Get(IdxVE, IdxVE))
	}
}
