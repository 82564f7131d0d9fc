package grn

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

//NormalizedL2Norm normalizes every row: w[i][j] = x[i][j]^2 / sqrt(sum_k x[i][k]^2).
//Rows of zeros stay zero.
func NormalizedL2Norm(x mat.Matrix) *mat.Dense {
	r, c := x.Dims()
	w := mat.NewDense(r, c, nil)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, x)
		sumSquares := floats.Dot(row, row)
		if sumSquares == 0 {
			continue
		}
		norm := math.Sqrt(sumSquares)
		for j, v := range row {
			w.Set(i, j, v*v/norm)
		}
	}
	return w
}

//StatisticalMethod returns a matrix shaped like x whose row i is filled with the
//sample variance (n-1 in the denominator) of row i of x.
func StatisticalMethod(x mat.Matrix) *mat.Dense {
	r, c := x.Dims()
	w := mat.NewDense(r, c, nil)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, x)
		variance := stat.Variance(row, nil)
		for j := range row {
			row[j] = variance
		}
		w.SetRow(i, row)
	}
	return w
}

//Refine scales every row of vim by its variance.
func Refine(vim mat.Matrix) *mat.Dense {
	var refined mat.Dense
	refined.MulElem(vim, StatisticalMethod(vim))
	return &refined
}
