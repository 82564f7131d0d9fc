package grn

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tarstars/xgb_grn/golang/grn_boost/gbl"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

//ImportanceCube keeps every importance type of every (target, regulator) pair.
type ImportanceCube struct {
	Targets, Regulators int

	mu     sync.Mutex
	values *tensor.Dense
}

//NewImportanceCube allocates a zero cube.
func NewImportanceCube(targets, regulators int) *ImportanceCube {
	return &ImportanceCube{
		Targets:    targets,
		Regulators: regulators,
		values:     tensor.New(tensor.WithShape(targets, regulators, len(gbl.ImportanceTypes)), tensor.Of(tensor.Float64)),
	}
}

//Set stores the split statistics of regulator for target.
func (cube *ImportanceCube) Set(target, regulator int, stats gbl.FeatureStats) error {
	cube.mu.Lock()
	defer cube.mu.Unlock()
	for _, kind := range gbl.ImportanceTypes {
		if err := cube.values.SetAt(stats.Value(kind), target, regulator, int(kind)); err != nil {
			return fmt.Errorf("importance cube (%d, %d, %s): %w", target, regulator, kind, err)
		}
	}
	return nil
}

//At returns one importance value.
func (cube *ImportanceCube) At(target, regulator int, kind gbl.ImportanceType) float64 {
	cube.mu.Lock()
	defer cube.mu.Unlock()
	value, err := cube.values.At(target, regulator, int(kind))
	gbl.HandleError(err)
	return value.(float64)
}

//Matrix returns the targets x regulators matrix of one importance type.
func (cube *ImportanceCube) Matrix(kind gbl.ImportanceType) *mat.Dense {
	m := mat.NewDense(cube.Targets, cube.Regulators, nil)
	for i := 0; i < cube.Targets; i++ {
		for j := 0; j < cube.Regulators; j++ {
			m.Set(i, j, cube.At(i, j, kind))
		}
	}
	return m
}

//predictorColumns returns the candidate regulators of gene i: columns [0, subprobNum) without i.
func predictorColumns(i, subprobNum int) []int {
	columns := make([]int, 0, subprobNum)
	for q := 0; q < subprobNum; q++ {
		if q != i {
			columns = append(columns, q)
		}
	}
	return columns
}

//featureToGene converts a feature number of the model of gene i back to a column of the data.
func featureToGene(num, i, subprobNum int) int {
	if i >= subprobNum-1 || num < i {
		return num
	}
	return num + 1
}

//WeightOptions controls XGBoostWeight.
type WeightOptions struct {
	//Params are used for every gene, Matrix is filled in and Seed is shifted by the gene index.
	Params  gbl.BoosterParams
	Workers int
	//ModelDir receives gene_<name>.json and gene_<name>.xgb.json when not empty.
	ModelDir  string
	GeneNames []string
}

//XGBoostWeight trains one model per gene of data (samples x genes) and collects feature importances.
//The predictors of gene i are the first subprobNum genes except i itself.
//The cube holds targets (all genes) x regulators (subprobNum).
func XGBoostWeight(data *mat.Dense, subprobNum int, opts WeightOptions) (*ImportanceCube, error) {
	samples, n := data.Dims()
	if n < 2 || samples < 2 {
		return nil, fmt.Errorf("expression matrix %dx%d is too small", samples, n)
	}
	if subprobNum < 2 || subprobNum > n {
		return nil, fmt.Errorf("number of regulators %d must be in [2, %d]", subprobNum, n)
	}
	if err := opts.Params.Validate(); err != nil {
		return nil, err
	}
	if opts.GeneNames != nil && len(opts.GeneNames) != n {
		return nil, fmt.Errorf("%d gene names for %d genes", len(opts.GeneNames), n)
	}

	order := gbl.NewColumnOrder(data)
	cube := NewImportanceCube(n, subprobNum)
	errs := make([]error, n)

	pool := gbl.NewPool(opts.Workers)
	for i := 0; i < n; i++ {
		gene := i
		pool.AddTask(gbl.TaskFunc(func() {
			errs[gene] = geneWeights(data, order, gene, subprobNum, opts, cube)
		}))
	}
	pool.Close()
	pool.WaitAll()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return cube, nil
}

//geneWeights trains the model of gene i and writes its row of the cube.
func geneWeights(data *mat.Dense, order gbl.ColumnOrder, i, subprobNum int, opts WeightOptions, cube *ImportanceCube) error {
	log.Printf("---------------------------------------- %d ----------------------------------------", i)

	samples, _ := data.Dims()
	target := mat.NewDense(samples, 1, nil)
	target.Copy(data.Slice(0, samples, i, i+1))

	dmatrix, err := gbl.NewDMatrix(data, target, predictorColumns(i, subprobNum), order)
	if err != nil {
		return fmt.Errorf("gene %d: %w", i, err)
	}

	params := opts.Params
	params.Matrix = dmatrix
	params.Seed += uint64(i)
	params.PrintMessages = nil

	model, err := gbl.NewBooster(params)
	if err != nil {
		return fmt.Errorf("gene %d: %w", i, err)
	}

	for num, stats := range model.FeatureStats() {
		if err := cube.Set(i, featureToGene(num, i, subprobNum), stats); err != nil {
			return err
		}
	}

	if opts.ModelDir != "" {
		return saveGeneModel(model, dmatrix.Columns, i, opts)
	}
	return nil
}

func saveGeneModel(model *gbl.Booster, columns []int, i int, opts WeightOptions) error {
	name := fmt.Sprint(i)
	var featureNames []string
	if opts.GeneNames != nil {
		name = sanitizeFileName(opts.GeneNames[i])
		for _, column := range columns {
			featureNames = append(featureNames, opts.GeneNames[column])
		}
	}
	base := filepath.Join(opts.ModelDir, "gene_"+name)
	if err := model.Save(base + ".json"); err != nil {
		return fmt.Errorf("gene %d: %w", i, err)
	}
	if err := model.SaveXGBoostJSON(base+".xgb.json", featureNames); err != nil {
		return fmt.Errorf("gene %d: %w", i, err)
	}
	return nil
}

func sanitizeFileName(name string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ':' || r == ' ' {
			return '_'
		}
		return r
	}, name)
}
