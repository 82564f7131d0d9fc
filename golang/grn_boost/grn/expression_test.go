package grn

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tarstars/xgb_grn/golang/grn_boost/gbl"
	"gonum.org/v1/gonum/mat"
)

func TestReadExpressionCSVWithHeader(t *testing.T) {
	input := "G1,G2,G3\n0.1,0.2,0.3\n1, 2, 3\n"

	expression, err := ReadExpressionCSV(strings.NewReader(input), true)
	require.NoError(t, err)

	assert.Equal(t, []string{"G1", "G2", "G3"}, expression.Genes)
	r, c := expression.Values.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, 2.0, expression.Values.At(1, 1))
}

func TestReadExpressionCSVWithoutHeader(t *testing.T) {
	expression, err := ReadExpressionCSV(strings.NewReader("1,2\n3,4\n5,6\n"), false)
	require.NoError(t, err)

	assert.Equal(t, []string{"G1", "G2"}, expression.Genes)
	assert.Equal(t, 6.0, expression.Values.At(2, 1))
}

func TestReadExpressionCSVErrors(t *testing.T) {
	for name, input := range map[string]string{
		"empty":       "",
		"ragged":      "a,b\n1,2\n3\n",
		"not a float": "a,b\n1,x\n3,4\n",
		"nan":         "a,b\n1,NaN\n3,4\n",
		"one sample":  "a,b\n1,2\n",
		"one gene":    "a\n1\n2\n",
		"no samples":  "a,b\n",
	} {
		_, err := ReadExpressionCSV(strings.NewReader(input), true)
		assert.Error(t, err, name)
	}
}

func TestReadExpressionNpy(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "data.npy")
	values := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, gbl.WriteNpy(fileName, values))

	expression, err := ReadExpression(fileName, true)
	require.NoError(t, err)
	assert.True(t, mat.Equal(values, expression.Values))
	assert.Equal(t, []string{"G1", "G2"}, expression.Genes)
}

func TestReadExpressionFile(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(fileName, []byte("x,y\n1,2\n3,4\n"), 0o600))

	expression, err := ReadExpression(fileName, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, expression.Genes)

	_, err = ReadExpression(filepath.Join(t.TempDir(), "missing.csv"), true)
	assert.Error(t, err)
}
