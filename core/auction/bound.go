package auction

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// lpEpsilon absorbs simplex round-off when turning the relaxation into an
// integer target. lpRelEpsilon scales it with the bound.
const (
	lpEpsilon    = 1e-6
	lpRelEpsilon = 1e-9
)

// maxExactFloat is the largest total below which every integer is an exact
// float64. Larger components get no relaxation target.
const maxExactFloat int64 = 1 << 53

// solveRelaxation maximises the total amount of a fractional selection
// where every contested cell is used at most once and every bid at most
// once. The optimum bounds the integer optimum from above.
//
// The problem is written directly in standard form with one slack per row,
// so the slacks form a feasible starting basis.
func solveRelaxation(weights []float64, rows [][]int) (float64, error) {
	m := len(weights)
	r := len(rows) + m
	c := make([]float64, m+r)
	for i, w := range weights {
		c[i] = -w
	}
	A := mat.NewDense(r, m+r, nil)
	b := make([]float64, r)
	for i, row := range rows {
		for _, j := range row {
			A.Set(i, j, 1)
		}
		b[i] = 1
	}
	for j := 0; j < m; j++ {
		A.Set(len(rows)+j, j, 1)
		b[len(rows)+j] = 1
	}
	basic := make([]int, r)
	for i := 0; i < r; i++ {
		A.Set(i, m+i, 1)
		basic[i] = m + i
	}
	optF, _, err := lp.Simplex(c, A, b, 1e-9, basic)
	if err != nil {
		return 0, err
	}
	return -optF, nil
}

// lpSolve points to the relaxation solver. Tests override it to simulate
// failures.
var lpSolve = solveRelaxation

// integerTarget converts a relaxation value to the best integer total that
// could possibly be reached. Rounding errs upwards: a target above the
// optimum only disables the early stop.
func integerTarget(bound float64) int64 {
	return int64(math.Floor(bound + lpEpsilon + math.Abs(bound)*lpRelEpsilon))
}
