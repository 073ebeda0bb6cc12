package ekf

import "github.com/skelterjohn/go.matrix"

// varianceLimit returns the largest variance allowed for state i.
func varianceLimit(i int) float64 {
	switch {
	case i <= IdxQ3:
		return 1
	case i <= IdxVD:
		return 1e6
	case i <= IdxPD:
		return 1e6
	case i <= IdxDAZ:
		return 1e-2
	case i <= IdxDVZ:
		return 1e-1
	case i <= IdxMZ:
		return 1
	}
	return 1e6 // Wind
}

// FixCovarianceErrors bounds every variance to [0, limit] and forces the
// covariance matrix to be symmetric by averaging mirrored off-diagonals.
func FixCovarianceErrors(p *matrix.DenseMatrix) {
	n := p.Rows()
	for i := 0; i < n; i++ {
		v := p.Get(i, i)
		if v < 0 {
			p.Set(i, i, 0)
		} else if lim := varianceLimit(i); v > lim {
			p.Set(i, i, lim)
		}
	}
	ForceSymmetry(p)
}

// ForceSymmetry replaces each off-diagonal pair with its mean.
func ForceSymmetry(p *matrix.DenseMatrix) {
	n := p.Rows()
	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			m := 0.5 * (p.Get(i, j) + p.Get(j, i))
			p.Set(i, j, m)
			p.Set(j, i, m)
		}
	}
}

// UncorrelateSetVariance zeroes row and column i of the covariance matrix,
// then sets the variance of state i to v.
func UncorrelateSetVariance(p *matrix.DenseMatrix, i int, v float64) {
	n := p.Rows()
	for j := 0; j < n; j++ {
		p.Set(i, j, 0)
		p.Set(j, i, 0)
	}
	p.Set(i, i, v)
}

// repairUnhealthyVariance is applied to a state whose variance a fusion
// would drive negative. The state is decorrelated from everything else and
// its variance zeroed; the fusion itself is then skipped.
// TODO: compare flooring the variance against zeroing it once flight logs
// with unhealthy drag fusions are available.
func repairUnhealthyVariance(p *matrix.DenseMatrix, i int) {
	UncorrelateSetVariance(p, i, 0)
}
