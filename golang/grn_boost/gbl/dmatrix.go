package gbl

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
)

//ColumnOrder keeps an ascending argsort of every column of a feature matrix.
//It depends only on the features, so every model trained on the same matrix shares it.
type ColumnOrder [][]int

//NewColumnOrder sorts every column of features.
func NewColumnOrder(features mat.Matrix) ColumnOrder {
	_, w := features.Dims()
	order := make(ColumnOrder, w)
	dense := mat.DenseCopyOf(features)
	for q := 0; q < w; q++ {
		order[q] = columnArgsort(dense.ColView(q))
	}
	return order
}

//DMatrix contains data for a squared error regression.
//Columns lists the columns of Features that are visible to the model: the local feature f is Features[:, Columns[f]].
type DMatrix struct {
	Features    *mat.Dense
	Target      *mat.Dense
	Columns     []int
	Order       ColumnOrder
	Description *string
}

//NewDMatrix collects a data set. A nil columns means all columns, a nil order is computed.
func NewDMatrix(features, target *mat.Dense, columns []int, order ColumnOrder) (DMatrix, error) {
	h, w := features.Dims()
	if h == 0 || w == 0 {
		return DMatrix{}, fmt.Errorf("empty feature matrix %dx%d", h, w)
	}
	if target != nil {
		targetH, targetW := target.Dims()
		if targetH != h || targetW != 1 {
			return DMatrix{}, fmt.Errorf("target shape %dx%d does not match %d rows", targetH, targetW, h)
		}
	}
	if columns == nil {
		columns = AllColumns(w)
	}
	for _, column := range columns {
		if column < 0 || column >= w {
			return DMatrix{}, fmt.Errorf("column %d out of range [0, %d)", column, w)
		}
	}
	if order == nil {
		order = NewColumnOrder(features)
	} else if len(order) != w {
		return DMatrix{}, fmt.Errorf("column order has %d columns, features have %d", len(order), w)
	}
	return DMatrix{Features: features, Target: target, Columns: columns, Order: order}, nil
}

//SetDescription sets a description for a DMatrix object
func (dmatrix *DMatrix) SetDescription(description string) {
	dmatrix.Description = &description
}

func (dmatrix DMatrix) description() string {
	if dmatrix.Description == nil {
		return ""
	}
	return *dmatrix.Description
}

//NumFeatures returns the number of features visible to the model.
func (dmatrix DMatrix) NumFeatures() int {
	return len(dmatrix.Columns)
}

//Message accumulates the prediction of the current tree for this data set and logs its RMSE.
func (dmatrix DMatrix) Message(tree OneTree, testIndex int, testBiases []*mat.Dense, baseScore float64) float64 {
	currentPrediction := tree.PredictValue(dmatrix.Features, dmatrix.Columns)
	if testBiases[testIndex] == nil {
		testBiases[testIndex] = mat.NewDense(Height(currentPrediction), 1, nil)
		for p := 0; p < Height(currentPrediction); p++ {
			testBiases[testIndex].Set(p, 0, baseScore)
		}
	}
	testBiases[testIndex].Add(testBiases[testIndex], currentPrediction)

	learningCurveValue := Rmse(dmatrix.Target, testBiases[testIndex])
	log.Print("RMSE for ", dmatrix.description(), " = ", learningCurveValue)
	return learningCurveValue
}

//ReadDMatrix reads features and target npy files and unites them into one DMatrix object
func ReadDMatrix(fileNameFeatures, fileNameTarget string) (DMatrix, error) {
	log.Print("\ttry to load features <", fileNameFeatures, ">")
	features, err := ReadNpy(fileNameFeatures)
	if err != nil {
		return DMatrix{}, err
	}
	log.Print("\ttry to load target <", fileNameTarget, ">")
	target, err := ReadNpy(fileNameTarget)
	if err != nil {
		return DMatrix{}, err
	}
	if Width(target) != 1 && Height(target) == 1 {
		target = mat.DenseCopyOf(target.T())
	}
	return NewDMatrix(features, target, nil, nil)
}

//ReadNpy reads the content of npy file
func ReadNpy(fileName string) (*mat.Dense, error) {
	f, err := os.Open(filepath.Clean(fileName))
	if err != nil {
		return nil, fmt.Errorf("open npy: %w", err)
	}
	defer func() { HandleError(f.Close()) }()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("read npy header of %s: %w", fileName, err)
	}

	denseMat := &mat.Dense{}
	if err := r.Read(denseMat); err != nil {
		return nil, fmt.Errorf("read npy data of %s: %w", fileName, err)
	}
	return denseMat, nil
}

//WriteNpy stores a matrix as a npy file
func WriteNpy(fileName string, m *mat.Dense) error {
	dst, err := os.Create(filepath.Clean(fileName))
	if err != nil {
		return fmt.Errorf("create npy: %w", err)
	}
	if err := npyio.Write(dst, m); err != nil {
		_ = dst.Close()
		return fmt.Errorf("write npy %s: %w", fileName, err)
	}
	return dst.Close()
}

//validatedDimensions checks the consistency of dimensions in arrays from the current dataset
//and returns the height (the number of objects) and the width (the number of visible features).
func (dmatrix DMatrix) validatedDimensions() (h, w int) {
	h, _ = dmatrix.Features.Dims()
	if dmatrix.Target == nil {
		log.Panic("the Target is not set")
	}
	targetH, targetW := dmatrix.Target.Dims()
	if targetH != h {
		log.Panicf("the Target height %d is not equal to the features height %d", targetH, h)
	}
	if targetW != 1 {
		log.Panicf("the width of Target should be 1 not %d", targetW)
	}
	return h, len(dmatrix.Columns)
}
