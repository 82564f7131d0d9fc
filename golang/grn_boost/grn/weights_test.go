package grn

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tarstars/xgb_grn/golang/grn_boost/gbl"
	"gonum.org/v1/gonum/mat"
)

//syntheticExpression has four genes, the third one is driven by the first one.
func syntheticExpression(samples int) *mat.Dense {
	data := mat.NewDense(samples, 4, nil)
	for p := 0; p < samples; p++ {
		g0 := math.Sin(0.37 * float64(p))
		data.Set(p, 0, g0)
		data.Set(p, 1, math.Cos(1.3*float64(p)))
		data.Set(p, 2, 3*g0+1)
		data.Set(p, 3, math.Cos(0.71*float64(p)+0.5))
	}
	return data
}

func fastWeightOptions() WeightOptions {
	params := gbl.DefaultBoosterParams()
	params.NRounds = 25
	params.Eta = 0.3
	params.MinChildWeight = 1
	params.Seed = 7
	return WeightOptions{Params: params, Workers: 1}
}

func TestFeatureToGeneMatchesPredictorColumns(t *testing.T) {
	for subprobNum := 2; subprobNum <= 6; subprobNum++ {
		for i := 0; i < 8; i++ {
			columns := predictorColumns(i, subprobNum)
			for num, column := range columns {
				assert.Equal(t, column, featureToGene(num, i, subprobNum), "num %d, gene %d, regulators %d", num, i, subprobNum)
			}
		}
	}
	assert.Equal(t, []int{1, 2, 3}, predictorColumns(0, 4))
	assert.Equal(t, []int{0, 1, 3}, predictorColumns(2, 4))
	assert.Equal(t, []int{0, 1}, predictorColumns(5, 2))
}

func TestXGBoostWeightFindsDriver(t *testing.T) {
	data := syntheticExpression(120)

	cube, err := XGBoostWeight(data, 4, fastWeightOptions())
	require.NoError(t, err)

	for _, kind := range gbl.ImportanceTypes {
		vim := cube.Matrix(kind)
		r, c := vim.Dims()
		require.Equal(t, 4, r)
		require.Equal(t, 4, c)
		for i := 0; i < 4; i++ {
			assert.Zero(t, vim.At(i, i), "a gene never regulates itself (%s)", kind)
		}
	}

	gain := cube.Matrix(gbl.ImportanceTotalGain)
	assert.Greater(t, gain.At(2, 0), gain.At(2, 1))
	assert.Greater(t, gain.At(2, 0), gain.At(2, 3))
	assert.Greater(t, gain.At(0, 2), gain.At(0, 1))

	weight := cube.Matrix(gbl.ImportanceWeight)
	assert.Greater(t, weight.At(2, 0), 0.0)
	assert.Equal(t, math.Trunc(weight.At(2, 0)), weight.At(2, 0), "split counts are integers")
}

func TestXGBoostWeightWithFewerRegulators(t *testing.T) {
	data := syntheticExpression(60)

	cube, err := XGBoostWeight(data, 2, fastWeightOptions())
	require.NoError(t, err)

	vim := cube.Matrix(gbl.ImportanceWeight)
	r, c := vim.Dims()
	require.Equal(t, 4, r)
	require.Equal(t, 2, c)
	assert.Zero(t, vim.At(0, 0))
	assert.Zero(t, vim.At(1, 1))
	assert.Greater(t, vim.At(2, 0), 0.0)
}

func TestXGBoostWeightDoesNotDependOnWorkers(t *testing.T) {
	data := syntheticExpression(60)
	opts := fastWeightOptions()

	serial, err := XGBoostWeight(data, 4, opts)
	require.NoError(t, err)
	opts.Workers = 3
	parallel, err := XGBoostWeight(data, 4, opts)
	require.NoError(t, err)

	for _, kind := range gbl.ImportanceTypes {
		assert.True(t, mat.Equal(serial.Matrix(kind), parallel.Matrix(kind)), "importance %s", kind)
	}
}

func TestXGBoostWeightValidates(t *testing.T) {
	data := syntheticExpression(20)

	_, err := XGBoostWeight(data, 1, fastWeightOptions())
	assert.Error(t, err)
	_, err = XGBoostWeight(data, 5, fastWeightOptions())
	assert.Error(t, err)

	opts := fastWeightOptions()
	opts.Params.NRounds = 0
	_, err = XGBoostWeight(data, 4, opts)
	assert.Error(t, err)

	opts = fastWeightOptions()
	opts.GeneNames = []string{"a"}
	_, err = XGBoostWeight(data, 4, opts)
	assert.Error(t, err)
}

func TestXGBoostWeightSavesGeneModels(t *testing.T) {
	dir := t.TempDir()
	opts := fastWeightOptions()
	opts.Params.NRounds = 2
	opts.ModelDir = dir
	opts.GeneNames = []string{"a", "b", "c/d", "e"}

	_, err := XGBoostWeight(syntheticExpression(30), 4, opts)
	require.NoError(t, err)

	for _, name := range []string{"a", "b", "c_d", "e"} {
		_, err := os.Stat(filepath.Join(dir, "gene_"+name+".json"))
		assert.NoError(t, err)
		_, err = os.Stat(filepath.Join(dir, "gene_"+name+".xgb.json"))
		assert.NoError(t, err)
	}

	model, err := gbl.LoadModel(filepath.Join(dir, "gene_c_d.json"))
	require.NoError(t, err)
	assert.Len(t, model.Trees, 2)
	assert.Equal(t, 3, model.NumFeatures)
}
