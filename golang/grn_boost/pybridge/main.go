// SPDX-License-Identifier: Apache-2.0

package main

/*
#cgo CFLAGS: -I.
#include <stdlib.h>
*/
import "C"

import (
	"errors"
	"io"
	"log"
	"sync"
	"unsafe"

	"github.com/tarstars/xgb_grn/golang/grn_boost/gbl"
	"github.com/tarstars/xgb_grn/golang/grn_boost/grn"
	"gonum.org/v1/gonum/mat"
)

//geneModel is a trained booster together with the data columns its features refer to.
type geneModel struct {
	booster *gbl.Booster
	columns []int
}

var (
	handleMu   sync.Mutex
	nextHandle uint64 = 1
	models            = make(map[uint64]*geneModel)

	lastErrorMu sync.Mutex
	lastError   string

	logSilenceOnce sync.Once
)

func setLastError(err error) {
	lastErrorMu.Lock()
	defer lastErrorMu.Unlock()
	if err != nil {
		lastError = err.Error()
	} else {
		lastError = ""
	}
}

func getLastError() string {
	lastErrorMu.Lock()
	defer lastErrorMu.Unlock()
	return lastError
}

func silenceLogs() {
	logSilenceOnce.Do(func() {
		log.SetOutput(io.Discard)
	})
}

func storeModel(model *geneModel) uint64 {
	handleMu.Lock()
	defer handleMu.Unlock()
	handle := nextHandle
	models[handle] = model
	nextHandle++
	return handle
}

func fetchModel(handle uint64) (*geneModel, error) {
	handleMu.Lock()
	defer handleMu.Unlock()
	model, ok := models[handle]
	if !ok {
		return nil, errors.New("invalid model handle")
	}
	return model, nil
}

//export FreeModel
func FreeModel(handle C.ulonglong) {
	handleMu.Lock()
	defer handleMu.Unlock()
	delete(models, uint64(handle))
}

func copyFloatSlice(ptr *C.double, length int) ([]float64, error) {
	if length < 0 {
		return nil, errors.New("negative length")
	}
	if length == 0 {
		return nil, nil
	}
	if ptr == nil {
		return nil, errors.New("null pointer for non-empty slice")
	}
	src := unsafe.Slice((*float64)(unsafe.Pointer(ptr)), length)
	dst := make([]float64, length)
	copy(dst, src)
	return dst, nil
}

func sliceFromPtr(ptr *C.double, length int) ([]float64, error) {
	if length < 0 {
		return nil, errors.New("negative length")
	}
	if length == 0 {
		return nil, nil
	}
	if ptr == nil {
		return nil, errors.New("null pointer for non-empty slice")
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(ptr)), length), nil
}

func buildDense(ptr *C.double, rows, cols C.int) (*mat.Dense, error) {
	r := int(rows)
	c := int(cols)
	if r <= 0 || c <= 0 {
		return nil, errors.New("invalid matrix dimensions")
	}
	data, err := copyFloatSlice(ptr, r*c)
	if err != nil {
		return nil, err
	}
	return mat.NewDense(r, c, data), nil
}

func inferOptions(iterNum, workers C.int, seed C.ulonglong) grn.InferOptions {
	opts := grn.DefaultInferOptions(int(iterNum))
	opts.Workers = int(workers)
	opts.Params.Seed = uint64(seed)
	return opts
}

//export InferNetwork
func InferNetwork(
	dataPtr *C.double,
	rows C.int,
	cols C.int,
	regulators C.int,
	iterNum C.int,
	importanceType C.int,
	workers C.int,
	seed C.ulonglong,
	outputPtr *C.double,
) C.int {
	setLastError(nil)
	silenceLogs()

	data, err := buildDense(dataPtr, rows, cols)
	if err != nil {
		setLastError(err)
		return 1
	}
	expression, err := grn.NewExpression(data, nil)
	if err != nil {
		setLastError(err)
		return 2
	}

	opts := inferOptions(iterNum, workers, seed)
	opts.Regulators = int(regulators)
	opts.ImportanceType = gbl.ImportanceType(importanceType)
	if !opts.ImportanceType.IsValid() {
		setLastError(errors.New("unsupported importance type"))
		return 3
	}

	network, err := grn.Infer(expression, opts)
	if err != nil {
		setLastError(err)
		return 4
	}

	r, c := network.Weights.Dims()
	outSlice, err := sliceFromPtr(outputPtr, r*c)
	if err != nil {
		setLastError(err)
		return 5
	}
	copy(outSlice, network.Weights.RawMatrix().Data)
	return 0
}

//export TrainGeneModel
func TrainGeneModel(
	dataPtr *C.double,
	rows C.int,
	cols C.int,
	gene C.int,
	regulators C.int,
	iterNum C.int,
	threadsNum C.int,
	seed C.ulonglong,
) C.ulonglong {
	setLastError(nil)
	silenceLogs()

	data, err := buildDense(dataPtr, rows, cols)
	if err != nil {
		setLastError(err)
		return 0
	}
	i, subprobNum := int(gene), int(regulators)
	if subprobNum == 0 {
		subprobNum = int(cols)
	}
	if i < 0 || i >= int(cols) || subprobNum < 2 || subprobNum > int(cols) {
		setLastError(errors.New("gene or regulators out of range"))
		return 0
	}

	columns := make([]int, 0, subprobNum)
	for q := 0; q < subprobNum; q++ {
		if q != i {
			columns = append(columns, q)
		}
	}
	target := mat.DenseCopyOf(data.Slice(0, int(rows), i, i+1))
	dmatrix, err := gbl.NewDMatrix(data, target, columns, nil)
	if err != nil {
		setLastError(err)
		return 0
	}

	params := inferOptions(iterNum, 1, seed).Params
	params.Matrix = dmatrix
	params.ThreadsNum = int(threadsNum)
	booster, err := gbl.NewBooster(params)
	if err != nil {
		setLastError(err)
		return 0
	}
	return C.ulonglong(storeModel(&geneModel{booster: booster, columns: booster.VisibleColumns()}))
}

//export GeneImportance
func GeneImportance(handle C.ulonglong, importanceType C.int, outputPtr *C.double, length C.int) C.int {
	setLastError(nil)
	model, err := fetchModel(uint64(handle))
	if err != nil {
		setLastError(err)
		return 1
	}
	kind := gbl.ImportanceType(importanceType)
	if !kind.IsValid() {
		setLastError(errors.New("unsupported importance type"))
		return 2
	}
	if int(length) != model.booster.NumFeatures {
		setLastError(errors.New("output length must equal the number of features"))
		return 3
	}
	outSlice, err := sliceFromPtr(outputPtr, int(length))
	if err != nil {
		setLastError(err)
		return 4
	}
	for ind := range outSlice {
		outSlice[ind] = 0
	}
	for feature, value := range model.booster.GetScore(kind) {
		outSlice[feature] = value
	}
	return 0
}

//export Predict
func Predict(
	handle C.ulonglong,
	dataPtr *C.double,
	rows C.int,
	cols C.int,
	outputPtr *C.double,
	treeLimit C.int,
) C.int {
	setLastError(nil)
	model, err := fetchModel(uint64(handle))
	if err != nil {
		setLastError(err)
		return 1
	}

	data, err := buildDense(dataPtr, rows, cols)
	if err != nil {
		setLastError(err)
		return 2
	}
	for _, column := range model.columns {
		if column >= int(cols) {
			setLastError(errors.New("data has fewer columns than the model uses"))
			return 3
		}
	}

	var limit *int
	if treeLimit > 0 {
		l := int(treeLimit)
		limit = &l
	}

	prediction := model.booster.PredictValue(data, model.columns, limit)

	outSlice, err := sliceFromPtr(outputPtr, int(rows))
	if err != nil {
		setLastError(err)
		return 4
	}
	copy(outSlice, prediction.RawMatrix().Data)
	return 0
}

//export SaveModel
func SaveModel(handle C.ulonglong, path *C.char) C.int {
	setLastError(nil)
	model, err := fetchModel(uint64(handle))
	if err != nil {
		setLastError(err)
		return 1
	}
	if err := model.booster.Save(C.GoString(path)); err != nil {
		setLastError(err)
		return 2
	}
	return 0
}

//export RenderTrees
func RenderTrees(handle C.ulonglong, prefix, figureType, directory *C.char) C.int {
	setLastError(nil)
	model, err := fetchModel(uint64(handle))
	if err != nil {
		setLastError(err)
		return 1
	}
	goPrefix := C.GoString(prefix)
	goFigureType := C.GoString(figureType)
	goDir := C.GoString(directory)
	if goPrefix == "" {
		goPrefix = "tree"
	}
	if goFigureType == "" {
		goFigureType = "svg"
	}
	if goDir == "" {
		goDir = "."
	}
	if err := model.booster.RenderTrees(goPrefix, goFigureType, goDir); err != nil {
		setLastError(err)
		return 2
	}
	return 0
}

//export LoadModel
func LoadModel(path *C.char) C.ulonglong {
	setLastError(nil)
	booster, err := gbl.LoadModel(C.GoString(path))
	if err != nil {
		setLastError(err)
		return 0
	}
	return C.ulonglong(storeModel(&geneModel{booster: booster, columns: booster.VisibleColumns()}))
}

//export GetLastError
func GetLastError() *C.char {
	errStr := getLastError()
	if errStr == "" {
		return nil
	}
	return C.CString(errStr)
}

//export FreeCString
func FreeCString(str *C.char) {
	if str != nil {
		C.free(unsafe.Pointer(str))
	}
}

func main() {}
