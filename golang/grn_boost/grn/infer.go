package grn

import (
	"fmt"
	"log"
	"time"

	"github.com/tarstars/xgb_grn/golang/grn_boost/gbl"
	"gonum.org/v1/gonum/mat"
)

//InferOptions collects everything Infer needs besides the data.
type InferOptions struct {
	WeightOptions
	//Regulators is the number of leading genes used as candidate regulators, 0 means all genes.
	Regulators     int
	ImportanceType gbl.ImportanceType
}

//DefaultInferOptions returns the boosting parameters of the reference pipeline with iterNum rounds.
func DefaultInferOptions(iterNum int) InferOptions {
	params := gbl.DefaultBoosterParams()
	params.NRounds = iterNum
	return InferOptions{WeightOptions: WeightOptions{Params: params, Workers: 1}}
}

//Infer computes the weights of the gene regulatory network of the expression data.
func Infer(expression *Expression, opts InferOptions) (*Network, error) {
	timeStart := time.Now()

	if expression == nil || expression.Values == nil {
		return nil, fmt.Errorf("no expression data")
	}
	_, n := expression.Values.Dims()
	genes := expression.Genes
	if genes == nil {
		genes = DefaultGeneNames(n)
	} else if len(genes) != n {
		return nil, fmt.Errorf("%d gene names for %d genes", len(genes), n)
	}
	regulators := opts.Regulators
	if regulators == 0 {
		regulators = n
	}
	opts.GeneNames = genes

	cube, err := XGBoostWeight(expression.Values, regulators, opts.WeightOptions)
	if err != nil {
		return nil, fmt.Errorf("xgboost weights: %w", err)
	}
	vv := mat.DenseCopyOf(cube.Matrix(opts.ImportanceType).T())

	vim := NormalizedL2Norm(vv)
	vim = Refine(vim)

	log.Print("totally cost ", time.Since(timeStart))

	return &Network{
		Genes:      genes,
		Regulators: genes[:regulators],
		Weights:    vim,
	}, nil
}
