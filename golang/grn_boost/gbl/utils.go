package gbl

import (
	"log"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

//HandleError panics when err is not nil
func HandleError(err error) {
	if err != nil {
		log.Panic(err)
	}
}

//Height returns the number of rows of a matrix
func Height(m mat.Matrix) int {
	h, _ := m.Dims()
	return h
}

//Width returns the number of columns of a matrix
func Width(m mat.Matrix) int {
	_, w := m.Dims()
	return w
}

//columnArgsort returns indices that sort the vector in ascending order. Equal values keep their original order.
func columnArgsort(column mat.Vector) []int {
	n := column.Len()
	indices := make([]int, n)
	for ind := range indices {
		indices[ind] = ind
	}
	sort.SliceStable(indices, func(p, q int) bool {
		return column.AtVec(indices[p]) < column.AtVec(indices[q])
	})
	return indices
}

//Rmse calculates the root mean squared error between target and prediction columns
func Rmse(target, prediction mat.Matrix) float64 {
	h := Height(target)
	if h != Height(prediction) {
		log.Panicf("target height %d is not equal to prediction height %d", h, Height(prediction))
	}
	if h == 0 {
		return 0
	}
	s := 0.0
	for p := 0; p < h; p++ {
		d := target.At(p, 0) - prediction.At(p, 0)
		s += d * d
	}
	return math.Sqrt(s / float64(h))
}

//AllColumns returns the identity column list 0..n-1
func AllColumns(n int) []int {
	columns := make([]int, n)
	for ind := range columns {
		columns[ind] = ind
	}
	return columns
}
