package gbl

import (
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"gonum.org/v1/gonum/mat"
)

//TreeNode is a node of a tree. Tree is stored in an array. LeftIndex and RightIndex are equal to -1
//when the current node is a leaf otherwise they contain array indices of children.
//A leaf node contains LeafIndex that is an index of the LeafNodes array.
type TreeNode struct {
	TreeNodeId            int
	FeatureNumber         int // -1 for a leaf
	Threshold             float64
	LeftIndex, RightIndex int // -1, -1 if it is a leaf
	LeafIndex             int // -1 if it is a non-leaf tree node
	NumberOfObjects       int
	Gain                  float64 // loss change of the split
	Cover                 float64 // sum of hessians
	BaseWeight            float64
}

//GraphDescription returns the description of a tree node for tree rendering as a graph
func (node TreeNode) GraphDescription() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintln("#", node.NumberOfObjects))
	sb.WriteString(fmt.Sprintln("id: ", node.TreeNodeId))
	sb.WriteString(fmt.Sprintln("gain: ", node.Gain))
	sb.WriteString(fmt.Sprintf("f%d < %6.5f", node.FeatureNumber, node.Threshold))
	return sb.String()
}

func NewTreeNode() TreeNode {
	return TreeNode{TreeNodeId: 0, FeatureNumber: -1, LeftIndex: -1, RightIndex: -1, LeafIndex: -1}
}

//IsLeaf returns whether this node is a LeafNode.
func (node TreeNode) IsLeaf() bool {
	return node.LeafIndex != -1
}

//LeafNode stores leaf-related information. It is a prediction from this leaf and some statistics.
type LeafNode struct {
	LeafNodeId      int
	Prediction      float64
	NumberOfObjects int
	Cover           float64
}

//GraphDescription returns the description of a leaf node for tree rendering as a graph
func (node LeafNode) GraphDescription() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintln("id: ", node.LeafNodeId))
	sb.WriteString(fmt.Sprintf("leaf = %.6g\n", node.Prediction))
	sb.WriteString(fmt.Sprintln(node.NumberOfObjects))
	return sb.String()
}

//OneTree describes one tree in a model.
type OneTree struct {
	TreeNodes        []TreeNode
	LeafNodes        []LeafNode
	LearningCurveRow []float64
}

//GetLeafDescription returns the description of a leaf node
func (tree OneTree) GetLeafDescription(ind int) string {
	return tree.LeafNodes[tree.TreeNodes[ind].LeafIndex].GraphDescription()
}

//GetNodeDescription returns the description of a split node
func (tree OneTree) GetNodeDescription(ind int) string {
	return tree.TreeNodes[ind].GraphDescription()
}

//treeBuilder grows a tree level by level.
type treeBuilder struct {
	dmatrix   *DMatrix
	gpair     []GradPair
	positions []int
	nodes     []TreeNode
	stats     []GradStats
	params    BoosterParams
}

func (builder *treeBuilder) addNode(stats GradStats, numberOfObjects int) int {
	node := NewTreeNode()
	node.TreeNodeId = len(builder.nodes)
	node.NumberOfObjects = numberOfObjects
	node.Cover = stats.SumHess
	node.BaseWeight = calcWeight(stats, builder.params.Lambda, builder.params.MinChildWeight) * builder.params.Eta
	builder.nodes = append(builder.nodes, node)
	builder.stats = append(builder.stats, stats)
	return node.TreeNodeId
}

//NewTree builds one new tree. Rows with sampled[p] == false do not take part in the growth.
//features are the local feature indices available to this tree.
func NewTree(dmatrix *DMatrix, gpair []GradPair, sampled []bool, features []int, params BoosterParams) OneTree {
	h, _ := dmatrix.validatedDimensions()
	builder := &treeBuilder{dmatrix: dmatrix, gpair: gpair, positions: make([]int, h), params: params}

	var rootStats GradStats
	rootCount := 0
	for p := 0; p < h; p++ {
		if sampled != nil && !sampled[p] {
			builder.positions[p] = -1
			continue
		}
		rootStats.Add(gpair[p])
		rootCount++
	}
	builder.addNode(rootStats, rootCount)

	expand := []int{0}
	for depth := 0; depth < params.MaxDepth && len(expand) > 0; depth++ {
		expand = builder.expandLevel(expand, features)
	}

	builder.prune(0)
	return builder.finalize()
}

//expandLevel finds splits for all open nodes, creates children and moves rows to them.
func (builder *treeBuilder) expandLevel(expand []int, features []int) []int {
	slotOf := make([]int, len(builder.nodes))
	for ind := range slotOf {
		slotOf[ind] = -1
	}
	nodeStats := make([]GradStats, len(expand))
	for slot, node := range expand {
		slotOf[node] = slot
		nodeStats[slot] = builder.stats[node]
	}

	scan := splitScan{
		dmatrix:        builder.dmatrix,
		gpair:          builder.gpair,
		positions:      builder.positions,
		slotOf:         slotOf,
		nodeStats:      nodeStats,
		regLambda:      builder.params.Lambda,
		minChildWeight: builder.params.MinChildWeight,
	}
	best := scan.TheBestSplits(features, builder.params.ThreadsNum)

	leftCounts := make([]int, len(expand))
	for p, node := range builder.positions {
		if node < 0 || slotOf[node] < 0 {
			continue
		}
		split := best[slotOf[node]]
		if split.validSplit && builder.dmatrix.Features.At(p, builder.dmatrix.Columns[split.featureIndex]) < split.threshold {
			leftCounts[slotOf[node]]++
		}
	}

	var newExpand []int
	for slot, node := range expand {
		split := best[slot]
		if !split.validSplit {
			continue
		}
		total := builder.nodes[node].NumberOfObjects
		leftIndex := builder.addNode(split.left, leftCounts[slot])
		rightIndex := builder.addNode(split.right, total-leftCounts[slot])

		builder.nodes[node].FeatureNumber = split.featureIndex
		builder.nodes[node].Threshold = split.threshold
		builder.nodes[node].Gain = split.lossChange
		builder.nodes[node].LeftIndex = leftIndex
		builder.nodes[node].RightIndex = rightIndex
		newExpand = append(newExpand, leftIndex, rightIndex)
	}

	for p, node := range builder.positions {
		if node < 0 || builder.nodes[node].LeftIndex == -1 {
			continue
		}
		current := builder.nodes[node]
		if builder.dmatrix.Features.At(p, builder.dmatrix.Columns[current.FeatureNumber]) < current.Threshold {
			builder.positions[p] = current.LeftIndex
		} else {
			builder.positions[p] = current.RightIndex
		}
	}
	return newExpand
}

func (builder *treeBuilder) isLeaf(node int) bool {
	return builder.nodes[node].LeftIndex == -1
}

//prune collapses splits whose children are both leaves and whose loss change is below the gamma.
func (builder *treeBuilder) prune(node int) {
	if builder.isLeaf(node) {
		return
	}
	current := &builder.nodes[node]
	builder.prune(current.LeftIndex)
	builder.prune(current.RightIndex)
	if builder.isLeaf(current.LeftIndex) && builder.isLeaf(current.RightIndex) && current.Gain < builder.params.Gamma {
		current.LeftIndex, current.RightIndex = -1, -1
		current.FeatureNumber = -1
		current.Threshold = 0
		current.Gain = 0
	}
}

//finalize renumbers reachable nodes in breadth-first order and creates leaves.
func (builder *treeBuilder) finalize() (oneTree OneTree) {
	oneTree.TreeNodes = make([]TreeNode, 0, len(builder.nodes))
	oneTree.LeafNodes = make([]LeafNode, 0)

	queue := []int{0}
	newIndex := map[int]int{0: 0}
	for len(queue) > 0 {
		old := queue[0]
		queue = queue[1:]
		node := builder.nodes[old]
		node.TreeNodeId = newIndex[old]
		if node.LeftIndex != -1 {
			for _, child := range []int{node.LeftIndex, node.RightIndex} {
				newIndex[child] = len(newIndex)
				queue = append(queue, child)
			}
			node.LeftIndex = newIndex[node.LeftIndex]
			node.RightIndex = newIndex[node.RightIndex]
		} else {
			node.LeafIndex = len(oneTree.LeafNodes)
			oneTree.LeafNodes = append(oneTree.LeafNodes, LeafNode{
				LeafNodeId:      node.LeafIndex,
				Prediction:      node.BaseWeight,
				NumberOfObjects: node.NumberOfObjects,
				Cover:           node.Cover,
			})
		}
		oneTree.TreeNodes = append(oneTree.TreeNodes, node)
	}
	return
}

//predictRow walks the tree for one record of features.
func (oneTree OneTree) predictRow(features mat.Matrix, p int, columns []int) float64 {
	ind := 0
	for oneTree.TreeNodes[ind].LeafIndex == -1 {
		node := oneTree.TreeNodes[ind]
		if features.At(p, columns[node.FeatureNumber]) < node.Threshold {
			ind = node.LeftIndex
		} else {
			ind = node.RightIndex
		}
	}
	return oneTree.LeafNodes[oneTree.TreeNodes[ind].LeafIndex].Prediction
}

//PredictValue infers values of the tree. The local feature f is read from the column columns[f].
func (oneTree OneTree) PredictValue(features mat.Matrix, columns []int) (prediction *mat.Dense) {
	h := Height(features)
	prediction = mat.NewDense(h, 1, nil)
	for p := 0; p < h; p++ {
		prediction.Set(p, 0, oneTree.predictRow(features, p, columns))
	}
	return
}

//MaxDepth returns the number of split levels in the tree.
func (oneTree OneTree) MaxDepth() int {
	var depth func(ind int) int
	depth = func(ind int) int {
		node := oneTree.TreeNodes[ind]
		if node.IsLeaf() {
			return 0
		}
		left, right := depth(node.LeftIndex), depth(node.RightIndex)
		if left > right {
			return left + 1
		}
		return right + 1
	}
	return depth(0)
}

func recurrentDraw(g *cgraph.Graph, tree OneTree, nodeNumber int, parentNode *cgraph.Node) error {
	currentNode, err := g.CreateNode(fmt.Sprint(tree.TreeNodes[nodeNumber].TreeNodeId))
	if err != nil {
		return err
	}

	if parentNode != nil {
		if _, err := g.CreateEdge("", parentNode, currentNode); err != nil {
			return err
		}
	}

	if tree.TreeNodes[nodeNumber].IsLeaf() {
		currentNode.Set("label", tree.GetLeafDescription(nodeNumber))
		currentNode.Set("shape", "box")
		return nil
	}
	currentNode.Set("label", tree.GetNodeDescription(nodeNumber))
	if err := recurrentDraw(g, tree, tree.TreeNodes[nodeNumber].LeftIndex, currentNode); err != nil {
		return err
	}
	return recurrentDraw(g, tree, tree.TreeNodes[nodeNumber].RightIndex, currentNode)
}

//DrawGraph converts the tree into a graphviz graph.
func (oneTree OneTree) DrawGraph() (*graphviz.Graphviz, *cgraph.Graph, error) {
	graphViz := graphviz.New()
	graph, err := graphViz.Graph()
	if err != nil {
		return nil, nil, err
	}

	if err := recurrentDraw(graph, oneTree, 0, nil); err != nil {
		return nil, nil, err
	}
	return graphViz, graph, nil
}
