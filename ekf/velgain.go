package ekf

// NEVelocityGain returns the Kalman gain for a direct observation of north
// and east velocity with noise variance velObsVar on each axis, given the
// 2x2 velocity covariance block [[p00, p01], [p01, p11]]. The gain matrix is
// symmetric: k10 == k01.
// ok is false if the innovation covariance is singular.
func NEVelocityGain(p00, p01, p11, velObsVar float64) (k00, k01, k11 float64, ok bool) {
	s0 := p01 * p01
	s1 := p11 + velObsVar
	s2 := p00 + velObsVar
	det := s0 - s1*s2
	if det == 0 {
		return 0, 0, 0, false
	}
	s3 := 1 / det
	s4 := -p01 * s3 * velObsVar

	k00 = s3 * (-p00*s1 + s0)
	k01 = s4
	k11 = s3 * (-p11*s2 + s0)
	return k00, k01, k11, true
}

// FuseVelNE corrects the north and east velocity with a direct velocity
// observation, using only the 2x2 velocity covariance block to form the gain.
// Cross-covariances between velocity and the other states are scaled by the
// same (I-K) factor so the matrix stays symmetric.
func (s *State) FuseVelNE(vn, ve, velObsVar float64) bool {
	p00 := s.P.Get(IdxVN, IdxVN)
	p01 := 0.5 * (s.P.Get(IdxVN, IdxVE) + s.P.Get(IdxVE, IdxVN))
	p11 := s.P.Get(IdxVE, IdxVE)

	k00, k01, k11, ok := NEVelocityGain(p00, p01, p11, velObsVar)
	if !ok {
		return false
	}

	yn := vn - s.VN
	ye := ve - s.VE
	s.VN += k00*yn + k01*ye
	s.VE += k01*yn + k11*ye

	// P = (I-K)*P on the velocity rows, mirrored into the columns
	for j := 0; j < NumStates; j++ {
		if j == IdxVN || j == IdxVE {
			continue
		}
		a := s.P.Get(IdxVN, j)
		b := s.P.Get(IdxVE, j)
		na := (1-k00)*a - k01*b
		nb := -k01*a + (1-k11)*b
		s.P.Set(IdxVN, j, na)
		s.P.Set(j, IdxVN, na)
		s.P.Set(IdxVE, j, nb)
		s.P.Set(j, IdxVE, nb)
	}
	n00 := (1-k00)*p00 - k01*p01
	n01 := (1-k00)*p01 - k01*p11
	n11 := -k01*p01 + (1-k11)*p11
	s.P.Set(IdxVN, IdxVN, n00)
	s.P.Set(IdxVN, IdxVE, n01)
	s.P.Set(IdxVE, IdxVN, n01)
	s.P.Set(IdxVE, IdxVE, n11)

	FixCovarianceErrors(s.P)
	return true
}
