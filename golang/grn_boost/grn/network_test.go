package grn

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-graphviz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func smallNetwork() *Network {
	genes := []string{"A", "B", "C"}
	return &Network{
		Genes:      genes,
		Regulators: genes[:2],
		Weights: mat.NewDense(2, 3, []float64{
			9, 0.5, 0.7,
			0.7, 9, 0,
		}),
	}
}

func TestEdgesSkipSelfLoopsAndSortByWeight(t *testing.T) {
	edges := smallNetwork().Edges()

	assert.Equal(t, []Edge{
		{Regulator: 0, Target: 2, Weight: 0.7},
		{Regulator: 1, Target: 0, Weight: 0.7},
		{Regulator: 0, Target: 1, Weight: 0.5},
	}, edges)
}

func TestWriteLinkList(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, smallNetwork().WriteLinkList(&buf, 2))

	assert.Equal(t, "A\tC\t0.7\nB\tA\t0.7\n", buf.String())
}

func TestNetworkCSVRoundTrip(t *testing.T) {
	network := smallNetwork()
	var buf bytes.Buffer
	require.NoError(t, network.WriteCSV(&buf))
	assert.True(t, strings.HasPrefix(buf.String(), "0,1,2\n9,0.5,0.7\n"), buf.String())

	loaded, err := ReadNetworkCSV(&buf, network.Genes)
	require.NoError(t, err)
	assert.True(t, mat.Equal(network.Weights, loaded.Weights))
	assert.Equal(t, []string{"A", "B"}, loaded.Regulators)
}

func TestNetworkSaveAndReadNpy(t *testing.T) {
	network := smallNetwork()
	fileName := filepath.Join(t.TempDir(), "weights.npy")
	require.NoError(t, network.Save(fileName))

	loaded, err := ReadNetwork(fileName, nil)
	require.NoError(t, err)
	assert.True(t, mat.Equal(network.Weights, loaded.Weights))
	assert.Equal(t, []string{"G1", "G2", "G3"}, loaded.Genes)
	assert.Equal(t, []string{"G1", "G2"}, loaded.Regulators)
}

func TestReadNetworkCSVErrors(t *testing.T) {
	_, err := ReadNetworkCSV(strings.NewReader("0,1\n"), nil)
	assert.Error(t, err)
	_, err = ReadNetworkCSV(strings.NewReader("0,1\n1,x\n"), nil)
	assert.Error(t, err)
	_, err = ReadNetworkCSV(strings.NewReader("0,1\n1,2\n"), []string{"A"})
	assert.Error(t, err)
}

func TestRenderNetworkDot(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, smallNetwork().RenderNetwork(&buf, graphviz.XDOT, 2))

	dot := buf.String()
	assert.Contains(t, dot, "A")
	assert.Contains(t, dot, "C")
	assert.Contains(t, dot, "penwidth")

	assert.Error(t, smallNetwork().RenderNetworkFile(filepath.Join(t.TempDir(), "net.gif"), "gif", 2))
}
