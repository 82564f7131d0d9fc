package grn

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/goccy/go-graphviz"
	"github.com/tarstars/xgb_grn/golang/grn_boost/gbl"
	"gonum.org/v1/gonum/mat"
)

//Network is a weighted adjacency matrix: Weights[r][t] is the weight of the link
//from Regulators[r] to Genes[t]. Regulators are the leading genes.
type Network struct {
	Genes      []string
	Regulators []string
	Weights    *mat.Dense
}

//Edge is one regulator -> target link.
type Edge struct {
	Regulator, Target int
	Weight            float64
}

//Edges returns positive off-diagonal links, strongest first.
//Equal weights are ordered by regulator and then by target.
func (network *Network) Edges() []Edge {
	r, c := network.Weights.Dims()
	edges := make([]Edge, 0, r*c)
	for reg := 0; reg < r; reg++ {
		for target := 0; target < c; target++ {
			w := network.Weights.At(reg, target)
			if reg == target || !(w > 0) {
				continue
			}
			edges = append(edges, Edge{Regulator: reg, Target: target, Weight: w})
		}
	}
	sort.SliceStable(edges, func(p, q int) bool {
		if edges[p].Weight != edges[q].Weight {
			return edges[p].Weight > edges[q].Weight
		}
		if edges[p].Regulator != edges[q].Regulator {
			return edges[p].Regulator < edges[q].Regulator
		}
		return edges[p].Target < edges[q].Target
	})
	return edges
}

func topEdges(edges []Edge, topK int) []Edge {
	if topK > 0 && topK < len(edges) {
		return edges[:topK]
	}
	return edges
}

//WriteLinkList writes the DREAM5 prediction format REGULATOR<TAB>TARGET<TAB>WEIGHT.
//topK <= 0 writes every edge.
func (network *Network) WriteLinkList(w io.Writer, topK int) error {
	bw := bufio.NewWriter(w)
	for _, edge := range topEdges(network.Edges(), topK) {
		if _, err := fmt.Fprintf(bw, "%s\t%s\t%s\n",
			network.Regulators[edge.Regulator], network.Genes[edge.Target],
			strconv.FormatFloat(edge.Weight, 'g', -1, 64)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

//WriteCSV writes the weights with a header of column indices and no row index.
func (network *Network) WriteCSV(w io.Writer) error {
	r, c := network.Weights.Dims()
	writer := csv.NewWriter(w)

	record := make([]string, c)
	for j := range record {
		record[j] = strconv.Itoa(j)
	}
	if err := writer.Write(record); err != nil {
		return err
	}
	for i := 0; i < r; i++ {
		for j := range record {
			record[j] = strconv.FormatFloat(network.Weights.At(i, j), 'g', -1, 64)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

//ReadNetworkCSV reads weights written by WriteCSV. genes names the columns, nil means G1..Gn.
func ReadNetworkCSV(r io.Reader, genes []string) (*Network, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading network: %w", err)
	}
	if len(records) < 2 {
		return nil, errors.New("network has no rows")
	}
	c := len(records[0])
	rows := records[1:]
	data := make([]float64, 0, len(rows)*c)
	for i, record := range rows {
		for j, cell := range record {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", i, j, err)
			}
			data = append(data, v)
		}
	}
	if len(rows) > c {
		return nil, fmt.Errorf("%d regulators for %d genes", len(rows), c)
	}
	if genes == nil {
		genes = DefaultGeneNames(c)
	}
	if len(genes) != c {
		return nil, fmt.Errorf("%d gene names for %d columns", len(genes), c)
	}
	return &Network{Genes: genes, Regulators: genes[:len(rows)], Weights: mat.NewDense(len(rows), c, data)}, nil
}

//ReadNetwork loads a CSV or .npy weights file.
func ReadNetwork(fileName string, genes []string) (*Network, error) {
	if filepath.Ext(fileName) == ".npy" {
		weights, err := gbl.ReadNpy(fileName)
		if err != nil {
			return nil, err
		}
		r, c := weights.Dims()
		if genes == nil {
			genes = DefaultGeneNames(c)
		}
		if len(genes) != c || r > c {
			return nil, fmt.Errorf("weights %dx%d do not fit %d genes", r, c, len(genes))
		}
		return &Network{Genes: genes, Regulators: genes[:r], Weights: weights}, nil
	}
	f, err := os.Open(filepath.Clean(fileName))
	if err != nil {
		return nil, fmt.Errorf("open network: %w", err)
	}
	defer f.Close()
	return ReadNetworkCSV(f, genes)
}

//Save writes the weights as .npy or CSV depending on the extension of fileName.
func (network *Network) Save(fileName string) error {
	if filepath.Ext(fileName) == ".npy" {
		return gbl.WriteNpy(fileName, network.Weights)
	}
	return writeFile(fileName, network.WriteCSV)
}

//SaveLinkList writes WriteLinkList output into a file.
func (network *Network) SaveLinkList(fileName string, topK int) error {
	return writeFile(fileName, func(w io.Writer) error { return network.WriteLinkList(w, topK) })
}

func writeFile(fileName string, write func(io.Writer) error) error {
	dst, err := os.Create(filepath.Clean(fileName))
	if err != nil {
		return fmt.Errorf("create %s: %w", fileName, err)
	}
	if err := write(dst); err != nil {
		_ = dst.Close()
		return fmt.Errorf("write %s: %w", fileName, err)
	}
	return dst.Close()
}

//RenderNetwork draws the topK strongest links. Pen widths grow with the weight.
func (network *Network) RenderNetwork(w io.Writer, format graphviz.Format, topK int) error {
	edges := topEdges(network.Edges(), topK)

	graphViz := graphviz.New()
	defer func() { gbl.HandleError(graphViz.Close()) }()
	graph, err := graphViz.Graph()
	if err != nil {
		return err
	}
	defer func() { gbl.HandleError(graph.Close()) }()

	maxWeight := 0.0
	for _, edge := range edges {
		maxWeight = math.Max(maxWeight, edge.Weight)
	}

	for _, edge := range edges {
		regulator, err := graph.CreateNode(network.Regulators[edge.Regulator])
		if err != nil {
			return err
		}
		regulator.Set("shape", "box")
		target, err := graph.CreateNode(network.Genes[edge.Target])
		if err != nil {
			return err
		}
		link, err := graph.CreateEdge(fmt.Sprintf("%d_%d", edge.Regulator, edge.Target), regulator, target)
		if err != nil {
			return err
		}
		link.SetLabel(strconv.FormatFloat(edge.Weight, 'g', 3, 64))
		link.SetPenWidth(0.5 + 4.5*edge.Weight/maxWeight)
	}

	var buf bytes.Buffer
	if err := graphViz.Render(graph, format, &buf); err != nil {
		return fmt.Errorf("rendering network: %w", err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

//RenderNetworkFile draws the network into fileName, the format is png, svg, jpg or dot.
func (network *Network) RenderNetworkFile(fileName, figureType string, topK int) error {
	format, ok := map[string]graphviz.Format{
		"png": graphviz.PNG,
		"svg": graphviz.SVG,
		"jpg": graphviz.JPG,
		"dot": graphviz.XDOT,
	}[figureType]
	if !ok {
		return fmt.Errorf("unknown figure type %q", figureType)
	}
	return writeFile(fileName, func(w io.Writer) error { return network.RenderNetwork(w, format, topK) })
}
