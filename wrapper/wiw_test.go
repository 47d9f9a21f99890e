package wrapper

import (
	"testing"

	"github.com/aliciaolivaresgil/sslearn/base"
)

func TestWiWTriTrainingGroupAlignment(t *testing.T) {
	XL, yL, XU := clusterData()

	model := NewWiWTriTraining(base.NewDecisionTree(4), 9, []int{0, 1})
	err := model.Fit(XL, yL, XU)
	if err == nil {
		t.Fatalf("expected error for misaligned instance groups")
	}
	if _, ok := err.(*base.ConfigurationError); !ok {
		t.Fatalf("expected ConfigurationError, got %T", err)
	}
}

func TestWiWTriTrainingFitPredict(t *testing.T) {
	XL, yL, XU := clusterData()

	// Pair up neighbouring unlabeled instances into groups.
	groups := make([]int, len(XU))
	for i := range groups {
		groups[i] = i / 2
	}

	model := NewWiWTriTraining(base.NewDecisionTree(4), 9, groups)
	if err := model.Fit(XL, yL, XU); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	labels, err := model.Predict([][]float64{{0.1, 0.1}, {0.9, 0.9}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if labels[0] != 0 || labels[1] != 1 {
		t.Fatalf("expected [0 1], got %v", labels)
	}
}

func TestWiWTriTrainingNilGroupsMatchesTriTraining(t *testing.T) {
	XL, yL, XU := clusterData()
	grid := [][]float64{{0.1, 0.1}, {0.5, 0.5}, {0.9, 0.9}}

	wiw := NewWiWTriTraining(base.NewDecisionTree(4), 13, nil)
	tri := NewTriTraining(base.NewDecisionTree(4), 13)
	if err := wiw.Fit(XL, yL, XU); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tri.Fit(XL, yL, XU); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, err := wiw.Predict(grid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := tri.Predict(grid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("nil groups must not change the outcome, diverged at %d", i)
		}
	}
}
