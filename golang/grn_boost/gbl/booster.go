package gbl

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/goccy/go-graphviz"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/sampleuv"
)

//Booster is the model class.
type Booster struct {
	Trees               []OneTree
	BaseScore           float64
	NumFeatures         int
	Columns             []int // data column of every local feature
	LearningCurveTitles []string
}

//BoosterParams collect arguments required to construct a booster.
//The names follow the xgboost gbtree parameters.
type BoosterParams struct {
	Matrix          DMatrix
	NRounds         int
	Eta             float64
	Gamma           float64
	MaxDepth        int
	MinChildWeight  float64
	Lambda          float64
	Subsample       float64
	ColsampleByTree float64
	BaseScore       float64
	Seed            uint64
	ThreadsNum      int
	Verbose         bool
	PrintMessages   []DMatrix
}

//DefaultBoosterParams returns the parameters used for gene regulatory network inference.
func DefaultBoosterParams() BoosterParams {
	return BoosterParams{
		NRounds:         1000,
		Eta:             0.0008,
		Gamma:           0.2,
		MaxDepth:        4,
		MinChildWeight:  4,
		Lambda:          1,
		Subsample:       0.7,
		ColsampleByTree: 0.9,
		BaseScore:       0.5,
		ThreadsNum:      1,
	}
}

//Validate checks the ranges of parameters.
func (params BoosterParams) Validate() error {
	switch {
	case params.NRounds <= 0:
		return fmt.Errorf("number of rounds must be positive, got %d", params.NRounds)
	case params.Eta <= 0:
		return fmt.Errorf("eta must be positive, got %g", params.Eta)
	case params.MaxDepth <= 0:
		return fmt.Errorf("max depth must be positive, got %d", params.MaxDepth)
	case params.Gamma < 0:
		return fmt.Errorf("gamma must not be negative, got %g", params.Gamma)
	case params.MinChildWeight < 0:
		return fmt.Errorf("min child weight must not be negative, got %g", params.MinChildWeight)
	case params.Lambda < 0:
		return fmt.Errorf("lambda must not be negative, got %g", params.Lambda)
	case params.Subsample <= 0 || params.Subsample > 1:
		return fmt.Errorf("subsample must be in (0, 1], got %g", params.Subsample)
	case params.ColsampleByTree <= 0 || params.ColsampleByTree > 1:
		return fmt.Errorf("colsample_bytree must be in (0, 1], got %g", params.ColsampleByTree)
	}
	return nil
}

//sampleRows marks rows that take part in the current tree.
func sampleRows(h int, subsample float64, rng *rand.Rand) []bool {
	if subsample >= 1 {
		return nil
	}
	sampled := make([]bool, h)
	for p := range sampled {
		sampled[p] = rng.Float64() < subsample
	}
	return sampled
}

//sampleFeatures selects max(1, colsample*w) features without replacement, in ascending order.
func sampleFeatures(w int, colsample float64, rng *rand.Rand) []int {
	k := int(colsample * float64(w))
	if k < 1 {
		k = 1
	}
	if k >= w {
		return AllColumns(w)
	}
	features := make([]int, k)
	sampleuv.WithoutReplacement(features, w, rng)
	sort.Ints(features)
	return features
}

//NewBooster trains a squared error regression model.
func NewBooster(params BoosterParams) (*Booster, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if params.Matrix.Features == nil || params.Matrix.Target == nil {
		return nil, errors.New("training matrix has no features or no target")
	}
	h, w := params.Matrix.validatedDimensions()
	if w == 0 {
		return nil, errors.New("training matrix has no visible features")
	}

	booster := &Booster{
		Trees:       make([]OneTree, 0, params.NRounds),
		BaseScore:   params.BaseScore,
		NumFeatures: w,
		Columns:     append([]int(nil), params.Matrix.Columns...),
	}

	var testBiases []*mat.Dense
	for _, currentMessage := range params.PrintMessages {
		booster.LearningCurveTitles = append(booster.LearningCurveTitles, currentMessage.description())
		testBiases = append(testBiases, nil)
	}

	prediction := make([]float64, h)
	for p := range prediction {
		prediction[p] = params.BaseScore
	}
	gpair := make([]GradPair, h)
	rng := rand.New(rand.NewSource(params.Seed))

	for stage := 0; stage < params.NRounds; stage++ {
		if params.Verbose {
			log.Printf("Tree number %d\n", stage+1)
		}
		for p := 0; p < h; p++ {
			gpair[p] = GradPair{Grad: prediction[p] - params.Matrix.Target.At(p, 0), Hess: 1}
		}
		sampled := sampleRows(h, params.Subsample, rng)
		features := sampleFeatures(w, params.ColsampleByTree, rng)

		tree := NewTree(&params.Matrix, gpair, sampled, features, params)
		for p := 0; p < h; p++ {
			prediction[p] += tree.predictRow(params.Matrix.Features, p, params.Matrix.Columns)
		}

		for testIndex, currentDMatrix := range params.PrintMessages {
			learningCurveValue := currentDMatrix.Message(tree, testIndex, testBiases, params.BaseScore)
			tree.LearningCurveRow = append(tree.LearningCurveRow, learningCurveValue)
		}
		booster.Trees = append(booster.Trees, tree)
	}
	return booster, nil
}

//PredictValue infers values of the Target. A nil treesNumber uses all trees.
func (booster Booster) PredictValue(features mat.Matrix, columns []int, treesNumber *int) (prediction *mat.Dense) {
	h := Height(features)
	prediction = mat.NewDense(h, 1, nil)
	for p := 0; p < h; p++ {
		prediction.Set(p, 0, booster.BaseScore)
	}

	n := len(booster.Trees)
	if treesNumber != nil && *treesNumber < n {
		n = *treesNumber
	}

	for treeInd := 0; treeInd < n; treeInd++ {
		deltaPrediction := booster.Trees[treeInd].PredictValue(features, columns)
		prediction.Add(prediction, deltaPrediction)
	}

	return
}

//VisibleColumns returns the data columns the model was trained on. Models without a mapping read columns 0..NumFeatures-1.
func (booster Booster) VisibleColumns() []int {
	if len(booster.Columns) == booster.NumFeatures {
		return booster.Columns
	}
	return AllColumns(booster.NumFeatures)
}

//Save writes the model as JSON.
func (booster Booster) Save(filename string) error {
	dest, err := os.Create(filepath.Clean(filename))
	if err != nil {
		return fmt.Errorf("can't open file %s to write: %w", filename, err)
	}
	defer func() { HandleError(dest.Close()) }()

	modelByteRepr, err := json.MarshalIndent(booster, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling model: %w", err)
	}

	_, err = dest.Write(modelByteRepr)
	return err
}

//LoadModel reads a model written by Save.
func LoadModel(filename string) (*Booster, error) {
	source, err := os.Open(filepath.Clean(filename))
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	defer func() { HandleError(source.Close()) }()

	var booster Booster
	decoder := json.NewDecoder(source)
	if err := decoder.Decode(&booster); err != nil {
		return nil, fmt.Errorf("decoding model %s: %w", filename, err)
	}
	return &booster, nil
}

//RenderTrees draws every tree of the model into picturesDirectory.
func (booster Booster) RenderTrees(dumpPrefix, figureType, picturesDirectory string) error {
	graphvizType, ok := map[string]graphviz.Format{
		"png": graphviz.PNG,
		"svg": graphviz.SVG,
		"jpg": graphviz.JPG,
	}[figureType]
	if !ok {
		return fmt.Errorf("unknown figure type %q", figureType)
	}

	for graphInd, currentTree := range booster.Trees {
		filename := fmt.Sprintf("%s_%05d.%s", dumpPrefix, graphInd, figureType)
		graphViz, graph, err := currentTree.DrawGraph()
		if err != nil {
			return err
		}
		err = graphViz.RenderFilename(graph, graphvizType, path.Join(picturesDirectory, filename))
		HandleError(graph.Close())
		HandleError(graphViz.Close())
		if err != nil {
			return fmt.Errorf("rendering tree %d: %w", graphInd, err)
		}
	}
	return nil
}

//LearningCurvesDump is the JSON layout written by DumpLearningCurves.
type LearningCurvesDump struct {
	Titles []string
	Values [][]float64
}

//DumpLearningCurves writes the monitored RMSE of every stage as JSON.
func (booster Booster) DumpLearningCurves(filenameLearningCurves string) error {
	destination, err := os.Create(filepath.Clean(filenameLearningCurves))
	if err != nil {
		return err
	}
	defer func() { HandleError(destination.Close()) }()

	var learningCurvesDump LearningCurvesDump

	learningCurvesDump.Titles = booster.LearningCurveTitles
	learningCurvesDump.Values = make([][]float64, 0)

	for _, currentTree := range booster.Trees {
		learningCurvesDump.Values = append(learningCurvesDump.Values, currentTree.LearningCurveRow)
	}

	bytesResult, err := json.MarshalIndent(learningCurvesDump, "", "  ")
	if err != nil {
		return err
	}
	_, err = destination.Write(bytesResult)
	return err
}
