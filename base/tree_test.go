package base

import (
	"path/filepath"
	"testing"
)

func TestDecisionTreeFitPredict(t *testing.T) {
	X := [][]float64{
		{0.1, 0.2},
		{0.2, 0.1},
		{0.9, 0.8},
		{0.8, 0.9},
	}
	y := []int{0, 0, 2, 2}

	tree := NewDecisionTree(3)
	if err := tree.Fit(X, y); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	labels, err := tree.Predict([][]float64{{0.15, 0.15}, {0.85, 0.85}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if labels[0] != 0 {
		t.Fatalf("expected label 0, got %d", labels[0])
	}
	if labels[1] != 2 {
		t.Fatalf("expected label 2, got %d", labels[1])
	}
}

func TestDecisionTreePredictProba(t *testing.T) {
	X := [][]float64{
		{0.1, 0.2},
		{0.2, 0.1},
		{0.9, 0.8},
		{0.8, 0.9},
	}
	y := []int{0, 0, 5, 5}

	tree := NewDecisionTree(3)
	if err := tree.Fit(X, y); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	classes := tree.Classes()
	if len(classes) != 2 || classes[0] != 0 || classes[1] != 5 {
		t.Fatalf("expected classes [0 5], got %v", classes)
	}

	probs, err := tree.PredictProba([][]float64{{0.15, 0.15}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sum := 0.0
	for _, p := range probs[0] {
		sum += p
	}
	if sum < 0.999 || sum > 1.001 {
		t.Fatalf("probabilities should sum to 1, got %v", probs[0])
	}
	if probs[0][0] <= probs[0][1] {
		t.Fatalf("expected class 0 to dominate near its cluster, got %v", probs[0])
	}
}

func TestDecisionTreeNotTrained(t *testing.T) {
	tree := NewDecisionTree(3)
	if _, err := tree.Predict([][]float64{{0.1, 0.2}}); err == nil {
		t.Fatalf("expected error on untrained model")
	}
}

func TestDecisionTreeCloneIsUnfitted(t *testing.T) {
	X := [][]float64{{0, 0}, {1, 1}}
	y := []int{0, 1}

	tree := NewDecisionTree(3)
	tree.SetSeed(7)
	if err := tree.Fit(X, y); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	clone := tree.Clone().(*DecisionTree)
	if clone.MaxDepth != tree.MaxDepth {
		t.Fatalf("clone lost max depth")
	}
	if clone.seed != 7 {
		t.Fatalf("clone lost seed")
	}
	if _, err := clone.Predict(X); err == nil {
		t.Fatalf("clone should be unfitted")
	}
}

func TestDecisionTreeSaveLoad(t *testing.T) {
	X := [][]float64{
		{0.1, 0.2},
		{0.2, 0.1},
		{0.9, 0.8},
		{0.8, 0.9},
	}
	y := []int{0, 0, 1, 1}

	tree := NewDecisionTree(3)
	if err := tree.Fit(X, y); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "tree.json")
	if err := tree.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded := NewDecisionTree(3)
	if err := loaded.Load(path); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	want, err := tree.Predict(X)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := loaded.Predict(X)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("prediction %d differs after reload: %d vs %d", i, want[i], got[i])
		}
	}
}

func TestMajorityLabelTieBreak(t *testing.T) {
	if got := majorityLabel([]int{3, 1, 3, 1}); got != 1 {
		t.Fatalf("expected lowest label 1 on tie, got %d", got)
	}
}
