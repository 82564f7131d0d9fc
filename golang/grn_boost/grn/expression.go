package grn

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tarstars/xgb_grn/golang/grn_boost/gbl"
	"gonum.org/v1/gonum/mat"
)

//Expression is a samples x genes matrix of expression levels.
type Expression struct {
	Genes  []string
	Values *mat.Dense
}

//DefaultGeneNames returns the DREAM5 style names G1..Gn.
func DefaultGeneNames(n int) []string {
	names := make([]string, n)
	for ind := range names {
		names[ind] = "G" + strconv.Itoa(ind+1)
	}
	return names
}

//NewExpression checks the values and attaches gene names. Nil genes get DefaultGeneNames.
func NewExpression(values *mat.Dense, genes []string) (*Expression, error) {
	samples, n := values.Dims()
	if samples < 2 {
		return nil, fmt.Errorf("need at least 2 samples, got %d", samples)
	}
	if n < 2 {
		return nil, fmt.Errorf("need at least 2 genes, got %d", n)
	}
	if genes == nil {
		genes = DefaultGeneNames(n)
	}
	if len(genes) != n {
		return nil, fmt.Errorf("%d gene names for %d columns", len(genes), n)
	}
	for p := 0; p < samples; p++ {
		for q := 0; q < n; q++ {
			v := values.At(p, q)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("non-finite value %v at sample %d gene %s", v, p, genes[q])
			}
		}
	}
	return &Expression{Genes: genes, Values: values}, nil
}

//ReadExpression loads a .npy file or a CSV file. For CSV, header tells whether the first row holds gene names.
func ReadExpression(fileName string, header bool) (*Expression, error) {
	if strings.EqualFold(filepath.Ext(fileName), ".npy") {
		values, err := gbl.ReadNpy(fileName)
		if err != nil {
			return nil, err
		}
		return NewExpression(values, nil)
	}

	f, err := os.Open(filepath.Clean(fileName))
	if err != nil {
		return nil, fmt.Errorf("open expression: %w", err)
	}
	defer f.Close()

	expression, err := ReadExpressionCSV(f, header)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	return expression, nil
}

//ReadExpressionCSV parses comma separated expression levels, one sample per row.
func ReadExpressionCSV(r io.Reader, header bool) (*Expression, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var genes []string
	if header {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, errors.New("empty expression file")
			}
			return nil, fmt.Errorf("reading header: %w", err)
		}
		genes = append(genes, record...)
	}

	var data []float64
	width := len(genes)
	samples := 0
	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("reading: %w", err)
		}
		if width == 0 {
			width = len(record)
		}
		if len(record) != width {
			return nil, fmt.Errorf("sample %d has %d values, expected %d", samples, len(record), width)
		}
		for q, cell := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("sample %d column %d: parsing float: %w", samples, q, err)
			}
			data = append(data, v)
		}
		samples++
	}
	if samples == 0 {
		return nil, errors.New("no samples")
	}
	return NewExpression(mat.NewDense(samples, width, data), genes)
}
