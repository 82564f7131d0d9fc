package gbl

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

//createStepDMatrix returns x = 1..h in the first column, a constant second column and y = 0 / 10 around the middle.
func createStepDMatrix(t *testing.T, h int) DMatrix {
	t.Helper()
	features := mat.NewDense(h, 2, nil)
	target := mat.NewDense(h, 1, nil)
	for p := 0; p < h; p++ {
		features.Set(p, 0, float64(p+1))
		features.Set(p, 1, 7)
		if p >= h/2 {
			target.Set(p, 0, 10)
		}
	}
	dmatrix, err := NewDMatrix(features, target, nil, nil)
	if err != nil {
		t.Fatalf("NewDMatrix: %v", err)
	}
	return dmatrix
}

//exactParams disables sampling, regularization and shrinkage.
func exactParams(dmatrix DMatrix) BoosterParams {
	return BoosterParams{
		Matrix:          dmatrix,
		NRounds:         1,
		Eta:             1,
		MaxDepth:        1,
		MinChildWeight:  1,
		Subsample:       1,
		ColsampleByTree: 1,
		ThreadsNum:      1,
	}
}
