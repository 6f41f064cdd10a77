// Package diff provides the numerical differentiation used to
// cross-validate closed-form constraint Jacobians and to derive
// time-law rates: central finite differences for vector functions and
// exact first derivatives through dual numbers
// ([gonum.org/v1/gonum/num/dual]).
package diff

import "gonum.org/v1/gonum/num/dual"

// DefaultStep is the central-difference step. With float64 residuals the
// resulting Jacobians are accurate to roughly 1e-10 absolute, well
// inside the 1e-6 relative tolerance the verification suite uses.
const DefaultStep = 1e-6

// Central differentiates a scalar function at x.
func Central(f func(float64) float64, x, h float64) float64 {
	return (f(x+h) - f(x-h)) / (2 * h)
}

// Jacobian computes the m×n central-difference Jacobian of f at x,
// returned in row-major order. f must not retain the slice it is given.
func Jacobian(f func([]float64) []float64, x []float64, h float64) [][]float64 {
	n := len(x)
	xw := make([]float64, n)
	copy(xw, x)

	var rows [][]float64
	for j := 0; j < n; j++ {
		xw[j] = x[j] + h
		fp := f(xw)
		xw[j] = x[j] - h
		fm := f(xw)
		xw[j] = x[j]

		if rows == nil {
			rows = make([][]float64, len(fp))
			for i := range rows {
				rows[i] = make([]float64, n)
			}
		}
		for i := range fp {
			rows[i][j] = (fp[i] - fm[i]) / (2 * h)
		}
	}
	return rows
}

// Dual evaluates f and its exact first derivative at t using a dual
// number with unit infinitesimal part.
func Dual(f func(dual.Number) dual.Number, t float64) (val, deriv float64) {
	r := f(dual.Number{Real: t, Emag: 1})
	return r.Real, r.Emag
}
