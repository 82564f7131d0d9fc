package grn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNormalizedL2Norm(t *testing.T) {
	x := mat.NewDense(3, 2, []float64{
		3, 4,
		0, 0,
		-1, 0,
	})

	w := NormalizedL2Norm(x)

	assert.InDeltaSlice(t, []float64{1.8, 3.2}, mat.Row(nil, 0, w), 1e-12)
	assert.Equal(t, []float64{0, 0}, mat.Row(nil, 1, w), "zero rows stay zero")
	assert.InDeltaSlice(t, []float64{1, 0}, mat.Row(nil, 2, w), 1e-12)
}

func TestStatisticalMethodUsesSampleVariance(t *testing.T) {
	x := mat.NewDense(2, 3, []float64{
		1, 2, 3,
		2, 2, 2,
	})

	w := StatisticalMethod(x)

	assert.Equal(t, []float64{1, 1, 1}, mat.Row(nil, 0, w))
	assert.Equal(t, []float64{0, 0, 0}, mat.Row(nil, 1, w))
}

func TestRefineScalesRowsByVariance(t *testing.T) {
	x := mat.NewDense(2, 3, []float64{
		1, 2, 3,
		4, 6, 8,
	})

	refined := Refine(x)

	expected := mat.NewDense(2, 3, []float64{
		1, 2, 3,
		16, 24, 32,
	})
	assert.True(t, mat.EqualApprox(expected, refined, 1e-12), "got %v", mat.Formatted(refined))
}

func TestNormalizationKeepsNonSquareShape(t *testing.T) {
	x := mat.NewDense(2, 4, []float64{
		1, 0, 2, 0,
		0, 5, 0, 1,
	})

	w := Refine(NormalizedL2Norm(x))

	r, c := w.Dims()
	require.Equal(t, 2, r)
	require.Equal(t, 4, c)
	for _, v := range w.RawMatrix().Data {
		assert.False(t, math.IsNaN(v))
	}
}
