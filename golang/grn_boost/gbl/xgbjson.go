package gbl

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

//The structures below follow the XGBoost JSON model schema closely enough
//for readers of that format to walk the trees.

type xgbModel struct {
	Learner xgbLearner `json:"learner"`
	Version [3]int     `json:"version"`
}

type xgbLearner struct {
	Attributes        xgbAttributes        `json:"attributes"`
	FeatureNames      []string             `json:"feature_names"`
	GradientBooster   xgbGradientBooster   `json:"gradient_booster"`
	LearnerModelParam xgbLearnerModelParam `json:"learner_model_param"`
	Objective         xgbObjective         `json:"objective"`
}

type xgbAttributes struct {
	BestNtreeLimit string `json:"best_ntree_limit"`
}

type xgbLearnerModelParam struct {
	BaseScore  string `json:"base_score"`
	NumClass   string `json:"num_class"`
	NumFeature string `json:"num_feature"`
	NumTarget  string `json:"num_target"`
}

type xgbObjective struct {
	Name string `json:"name"`
}

type xgbGradientBooster struct {
	Model xgbGBTreeModel `json:"model"`
	Name  string         `json:"name"`
}

type xgbGBTreeModel struct {
	GBTreeModelParam xgbGBTreeModelParam `json:"gbtree_model_param"`
	TreeInfo         []int               `json:"tree_info"`
	Trees            []xgbTree           `json:"trees"`
}

type xgbGBTreeModelParam struct {
	NumParallelTree string `json:"num_parallel_tree"`
	NumTrees        string `json:"num_trees"`
}

type xgbTree struct {
	BaseWeights     []float32    `json:"base_weights"`
	Categories      []int        `json:"categories"`
	DefaultLeft     []int        `json:"default_left"`
	ID              int          `json:"id"`
	LeftChildren    []int        `json:"left_children"`
	LossChanges     []float32    `json:"loss_changes"`
	Parents         []int        `json:"parents"`
	RightChildren   []int        `json:"right_children"`
	SplitConditions []float32    `json:"split_conditions"`
	SplitIndices    []int        `json:"split_indices"`
	SplitType       []int        `json:"split_type"`
	SumHessian      []float32    `json:"sum_hessian"`
	TreeParam       xgbTreeParam `json:"tree_param"`
}

type xgbTreeParam struct {
	NumDeleted     string `json:"num_deleted"`
	NumFeature     string `json:"num_feature"`
	NumNodes       string `json:"num_nodes"`
	SizeLeafVector string `json:"size_leaf_vector"`
}

func (oneTree OneTree) toXGBTree(id, numFeatures int) xgbTree {
	n := len(oneTree.TreeNodes)
	xt := xgbTree{
		BaseWeights:     make([]float32, n),
		Categories:      []int{},
		DefaultLeft:     make([]int, n),
		ID:              id,
		LeftChildren:    make([]int, n),
		LossChanges:     make([]float32, n),
		Parents:         make([]int, n),
		RightChildren:   make([]int, n),
		SplitConditions: make([]float32, n),
		SplitIndices:    make([]int, n),
		SplitType:       make([]int, n),
		SumHessian:      make([]float32, n),
		TreeParam: xgbTreeParam{
			NumDeleted:     "0",
			NumFeature:     strconv.Itoa(numFeatures),
			NumNodes:       strconv.Itoa(n),
			SizeLeafVector: "1",
		},
	}
	xt.Parents[0] = 2147483647
	for ind, node := range oneTree.TreeNodes {
		xt.LeftChildren[ind] = node.LeftIndex
		xt.RightChildren[ind] = node.RightIndex
		xt.SumHessian[ind] = float32(node.Cover)
		xt.LossChanges[ind] = float32(node.Gain)
		if node.IsLeaf() {
			leaf := oneTree.LeafNodes[node.LeafIndex].Prediction
			xt.BaseWeights[ind] = float32(leaf)
			xt.SplitConditions[ind] = float32(leaf)
			continue
		}
		xt.BaseWeights[ind] = float32(node.BaseWeight)
		xt.SplitConditions[ind] = float32(node.Threshold)
		xt.SplitIndices[ind] = node.FeatureNumber
		xt.Parents[node.LeftIndex] = ind
		xt.Parents[node.RightIndex] = ind
	}
	return xt
}

//ExportXGBoostJSON writes the model in the XGBoost JSON model format.
//featureNames may be nil.
func (booster Booster) ExportXGBoostJSON(w io.Writer, featureNames []string) error {
	if featureNames != nil && len(featureNames) != booster.NumFeatures {
		return fmt.Errorf("%d feature names for %d features", len(featureNames), booster.NumFeatures)
	}
	numTrees := strconv.Itoa(len(booster.Trees))
	model := xgbModel{
		Version: [3]int{1, 7, 6},
		Learner: xgbLearner{
			Attributes:   xgbAttributes{BestNtreeLimit: numTrees},
			FeatureNames: featureNames,
			GradientBooster: xgbGradientBooster{
				Name: "gbtree",
				Model: xgbGBTreeModel{
					GBTreeModelParam: xgbGBTreeModelParam{NumParallelTree: "1", NumTrees: numTrees},
					TreeInfo:         make([]int, len(booster.Trees)),
					Trees:            make([]xgbTree, 0, len(booster.Trees)),
				},
			},
			LearnerModelParam: xgbLearnerModelParam{
				BaseScore:  strconv.FormatFloat(booster.BaseScore, 'E', -1, 64),
				NumClass:   "0",
				NumFeature: strconv.Itoa(booster.NumFeatures),
				NumTarget:  "1",
			},
			Objective: xgbObjective{Name: "reg:squarederror"},
		},
	}
	if model.Learner.FeatureNames == nil {
		model.Learner.FeatureNames = []string{}
	}
	for id, tree := range booster.Trees {
		model.Learner.GradientBooster.Model.Trees = append(model.Learner.GradientBooster.Model.Trees, tree.toXGBTree(id, booster.NumFeatures))
	}

	encoder := json.NewEncoder(w)
	if err := encoder.Encode(model); err != nil {
		return fmt.Errorf("encoding xgboost model: %w", err)
	}
	return nil
}

//SaveXGBoostJSON writes ExportXGBoostJSON output into a file.
func (booster Booster) SaveXGBoostJSON(filename string, featureNames []string) error {
	dest, err := os.Create(filepath.Clean(filename))
	if err != nil {
		return fmt.Errorf("create %s: %w", filename, err)
	}
	if err := booster.ExportXGBoostJSON(dest, featureNames); err != nil {
		_ = dest.Close()
		return err
	}
	return dest.Close()
}
