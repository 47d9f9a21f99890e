package base

import (
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"os"
	"sort"
)

// DecisionTree is a CART-style classifier with median splits and gini
// impurity. The seed only affects the feature evaluation order, which
// resolves equal-impurity ties differently per clone and gives ensemble
// members some diversity.
type DecisionTree struct {
	MaxDepth int

	seed    int64
	nodes   []treeNode
	classes []int
}

type treeNode struct {
	FeatureIdx int       `json:"feature_idx"`
	Threshold  float64   `json:"threshold"`
	LeftChild  int       `json:"left_child"`
	RightChild int       `json:"right_child"`
	ClassLabel int       `json:"class_label"`
	ClassProbs []float64 `json:"class_probs"`
	IsLeaf     bool      `json:"is_leaf"`
}

type treeModel struct {
	Nodes   []treeNode `json:"nodes"`
	Classes []int      `json:"classes"`
}

func NewDecisionTree(maxDepth int) *DecisionTree {
	if maxDepth <= 0 {
		maxDepth = 3
	}
	return &DecisionTree{MaxDepth: maxDepth}
}

func (dt *DecisionTree) SetSeed(seed int64) { dt.seed = seed }

func (dt *DecisionTree) Clone() Classifier {
	return &DecisionTree{MaxDepth: dt.MaxDepth, seed: dt.seed}
}

func (dt *DecisionTree) Fit(X [][]float64, y []int) error {
	if len(X) == 0 || len(y) == 0 {
		return errors.New("features or labels empty")
	}
	if len(X) != len(y) {
		return errors.New("features and labels size mismatch")
	}

	dt.classes = uniqueSorted(y)
	order := featureOrder(len(X[0]), dt.seed)
	dt.nodes = dt.buildNode(X, y, 0, order)
	return nil
}

func (dt *DecisionTree) Predict(X [][]float64) ([]int, error) {
	if len(dt.nodes) == 0 {
		return nil, errors.New("model not trained")
	}
	labels := make([]int, len(X))
	for i, row := range X {
		node, err := dt.leafFor(row)
		if err != nil {
			return nil, err
		}
		labels[i] = node.ClassLabel
	}
	return labels, nil
}

// PredictProba returns per-leaf class frequencies, columns ordered by the
// ascending class labels seen during Fit.
func (dt *DecisionTree) PredictProba(X [][]float64) ([][]float64, error) {
	if len(dt.nodes) == 0 {
		return nil, errors.New("model not trained")
	}
	probs := make([][]float64, len(X))
	for i, row := range X {
		node, err := dt.leafFor(row)
		if err != nil {
			return nil, err
		}
		probs[i] = append([]float64(nil), node.ClassProbs...)
	}
	return probs, nil
}

// Classes returns the class labels seen during Fit, ascending.
func (dt *DecisionTree) Classes() []int {
	return append([]int(nil), dt.classes...)
}

func (dt *DecisionTree) Save(path string) error {
	if len(dt.nodes) == 0 {
		return errors.New("model not trained")
	}
	payload, err := json.Marshal(treeModel{Nodes: dt.nodes, Classes: dt.classes})
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func (dt *DecisionTree) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var model treeModel
	if err := json.Unmarshal(payload, &model); err != nil {
		return err
	}
	dt.nodes = model.Nodes
	dt.classes = model.Classes
	return nil
}

func (dt *DecisionTree) leafFor(row []float64) (*treeNode, error) {
	idx := 0
	for {
		node := &dt.nodes[idx]
		if node.IsLeaf {
			return node, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(row) {
			return nil, errors.New("feature index out of range")
		}
		if row[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(dt.nodes) {
			return nil, errors.New("invalid tree state")
		}
	}
}

func (dt *DecisionTree) leaf(labels []int) []treeNode {
	return []treeNode{{
		FeatureIdx: -1,
		LeftChild:  -1,
		RightChild: -1,
		ClassLabel: majorityLabel(labels),
		ClassProbs: classFrequencies(labels, dt.classes),
		IsLeaf:     true,
	}}
}

func (dt *DecisionTree) buildNode(X [][]float64, y []int, depth int, order []int) []treeNode {
	if depth >= dt.MaxDepth || isPure(y) {
		return dt.leaf(y)
	}

	bestFeature, threshold, ok := findBestSplit(X, y, order)
	if !ok {
		return dt.leaf(y)
	}

	leftX, leftY, rightX, rightY := splitData(X, y, bestFeature, threshold)
	if len(leftY) == 0 || len(rightY) == 0 {
		return dt.leaf(y)
	}

	leftNodes := dt.buildNode(leftX, leftY, depth+1, order)
	rightNodes := dt.buildNode(rightX, rightY, depth+1, order)

	root := treeNode{
		FeatureIdx: bestFeature,
		Threshold:  threshold,
		LeftChild:  1,
		RightChild: 1 + len(leftNodes),
		ClassLabel: majorityLabel(y),
		IsLeaf:     false,
	}

	nodes := make([]treeNode, 0, 1+len(leftNodes)+len(rightNodes))
	nodes = append(nodes, root)
	nodes = append(nodes, leftNodes...)
	nodes = append(nodes, rightNodes...)
	return nodes
}

func featureOrder(featureCount int, seed int64) []int {
	order := make([]int, featureCount)
	for i := range order {
		order[i] = i
	}
	if seed != 0 {
		rand.New(rand.NewSource(seed)).Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}
	return order
}

func findBestSplit(X [][]float64, y []int, order []int) (int, float64, bool) {
	bestFeature := -1
	bestThreshold := 0.0
	bestImpurity := math.MaxFloat64

	for _, featureIdx := range order {
		values := make([]float64, len(X))
		for i := range X {
			values[i] = X[i][featureIdx]
		}
		threshold := median(values)
		leftY, rightY := splitLabels(X, y, featureIdx, threshold)
		if len(leftY) == 0 || len(rightY) == 0 {
			continue
		}
		impurity := weightedGini(leftY, rightY)
		if impurity < bestImpurity {
			bestImpurity = impurity
			bestFeature = featureIdx
			bestThreshold = threshold
		}
	}
	if bestFeature == -1 {
		return -1, 0, false
	}
	return bestFeature, bestThreshold, true
}

func splitData(X [][]float64, y []int, featureIdx int, threshold float64) ([][]float64, []int, [][]float64, []int) {
	leftX := make([][]float64, 0)
	leftY := make([]int, 0)
	rightX := make([][]float64, 0)
	rightY := make([]int, 0)
	for i, row := range X {
		if row[featureIdx] <= threshold {
			leftX = append(leftX, row)
			leftY = append(leftY, y[i])
		} else {
			rightX = append(rightX, row)
			rightY = append(rightY, y[i])
		}
	}
	return leftX, leftY, rightX, rightY
}

func splitLabels(X [][]float64, y []int, featureIdx int, threshold float64) ([]int, []int) {
	leftY := make([]int, 0)
	rightY := make([]int, 0)
	for i, row := range X {
		if row[featureIdx] <= threshold {
			leftY = append(leftY, y[i])
		} else {
			rightY = append(rightY, y[i])
		}
	}
	return leftY, rightY
}

func weightedGini(leftY, rightY []int) float64 {
	leftWeight := float64(len(leftY))
	rightWeight := float64(len(rightY))
	total := leftWeight + rightWeight
	return (leftWeight/total)*gini(leftY) + (rightWeight/total)*gini(rightY)
}

func gini(labels []int) float64 {
	if len(labels) == 0 {
		return 0
	}
	counts := make(map[int]int)
	for _, label := range labels {
		counts[label]++
	}
	impurity := 1.0
	for _, count := range counts {
		prob := float64(count) / float64(len(labels))
		impurity -= prob * prob
	}
	return impurity
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func majorityLabel(labels []int) int {
	counts := make(map[int]int)
	bestLabel := 0
	bestCount := -1
	for _, label := range labels {
		counts[label]++
		if counts[label] > bestCount || (counts[label] == bestCount && label < bestLabel) {
			bestCount = counts[label]
			bestLabel = label
		}
	}
	return bestLabel
}

func classFrequencies(labels []int, classes []int) []float64 {
	probs := make([]float64, len(classes))
	if len(labels) == 0 {
		return probs
	}
	index := make(map[int]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	for _, label := range labels {
		if i, ok := index[label]; ok {
			probs[i]++
		}
	}
	for i := range probs {
		probs[i] /= float64(len(labels))
	}
	return probs
}

func isPure(labels []int) bool {
	if len(labels) == 0 {
		return true
	}
	first := labels[0]
	for _, label := range labels[1:] {
		if label != first {
			return false
		}
	}
	return true
}

func uniqueSorted(labels []int) []int {
	seen := make(map[int]bool)
	out := make([]int, 0)
	for _, label := range labels {
		if !seen[label] {
			seen[label] = true
			out = append(out, label)
		}
	}
	sort.Ints(out)
	return out
}
