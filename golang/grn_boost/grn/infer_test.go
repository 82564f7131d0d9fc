package grn

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tarstars/xgb_grn/golang/grn_boost/gbl"
)

func TestInferBuildsRefinedNetwork(t *testing.T) {
	expression, err := NewExpression(syntheticExpression(80), []string{"a", "b", "c", "d"})
	require.NoError(t, err)

	opts := DefaultInferOptions(20)
	opts.Params.Eta = 0.3
	opts.Params.MinChildWeight = 1
	opts.Workers = 2

	network, err := Infer(expression, opts)
	require.NoError(t, err)

	r, c := network.Weights.Dims()
	require.Equal(t, 4, r)
	require.Equal(t, 4, c)
	assert.Equal(t, expression.Genes, network.Regulators)

	cube, err := XGBoostWeight(expression.Values, 4, opts.WeightOptions)
	require.NoError(t, err)
	expected := Refine(NormalizedL2Norm(cube.Matrix(gbl.ImportanceWeight).T()))

	for i := 0; i < r; i++ {
		assert.Zero(t, network.Weights.At(i, i))
		for j := 0; j < c; j++ {
			v := network.Weights.At(i, j)
			assert.False(t, math.IsNaN(v))
			assert.GreaterOrEqual(t, v, 0.0)
			assert.InDelta(t, expected.At(i, j), v, 1e-12)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, network.WriteLinkList(&buf, 0))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.NotEmpty(t, lines)
	assert.Len(t, strings.Split(lines[0], "\t"), 3)
}

func TestInferWithRegulatorSubset(t *testing.T) {
	expression, err := NewExpression(syntheticExpression(40), nil)
	require.NoError(t, err)

	opts := DefaultInferOptions(5)
	opts.Params.MinChildWeight = 1
	opts.Regulators = 2
	opts.ImportanceType = gbl.ImportanceTotalGain

	network, err := Infer(expression, opts)
	require.NoError(t, err)

	r, c := network.Weights.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 4, c)
	assert.Equal(t, []string{"G1", "G2"}, network.Regulators)

	opts.Regulators = 9
	_, err = Infer(expression, opts)
	assert.Error(t, err)
}

func TestInferNamesGenesOfBareExpression(t *testing.T) {
	opts := DefaultInferOptions(3)
	opts.Params.MinChildWeight = 1

	network, err := Infer(&Expression{Values: syntheticExpression(20)}, opts)
	require.NoError(t, err)
	assert.Equal(t, DefaultGeneNames(4), network.Genes)
	assert.Equal(t, DefaultGeneNames(4), network.Regulators)

	_, err = Infer(&Expression{Values: syntheticExpression(20), Genes: []string{"a"}}, opts)
	assert.Error(t, err)
}
