package wrapper

import (
	"testing"

	"github.com/aliciaolivaresgil/sslearn/base"
)

func TestCoTrainingRejectsMulticlass(t *testing.T) {
	model := NewCoTraining(base.NewKNN(3), 1)
	err := model.Fit([][]float64{{0}, {1}, {2}}, []int{0, 1, 2}, nil)
	if err == nil {
		t.Fatalf("expected error for three classes")
	}
}

func TestCoTrainingThresholdBoundaryInclusive(t *testing.T) {
	XL := [][]float64{{0, 0}, {1, 1}}
	yL := []int{0, 1}
	XU := [][]float64{{0.2, 0.2}, {0.4, 0.4}, {0.6, 0.6}}

	// Every pool instance scores exactly the threshold; the boundary is
	// inclusive, so admissions must happen.
	var stats []RoundStats
	model := NewCoTraining(&fixedProba{row: []float64{0.5, 0.3}}, 1)
	model.Threshold = 0.5
	model.OnRound = func(s RoundStats) { stats = append(stats, s) }

	if err := model.Fit(XL, yL, XU); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stats) == 0 || stats[0].NewlyLabeled == 0 {
		t.Fatalf("confidence exactly at the threshold must be admitted")
	}
}

func TestCoTrainingBelowThresholdSelectsNothing(t *testing.T) {
	XL := [][]float64{{0, 0}, {1, 1}}
	yL := []int{0, 1}
	XU := [][]float64{{0.2, 0.2}, {0.4, 0.4}}

	rounds := 0
	model := NewCoTraining(&fixedProba{row: []float64{0.49, 0.49}}, 1)
	model.Threshold = 0.5
	model.OnRound = func(RoundStats) { rounds++ }

	if err := model.Fit(XL, yL, XU); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rounds != 0 {
		t.Fatalf("sub-threshold confidence admitted instances in %d rounds", rounds)
	}
	// The empty selection is a control signal, not a failure: the model
	// still ends up fitted on the original labeled data.
	if _, err := model.Predict([][]float64{{0, 0}}); err != nil {
		t.Fatalf("model must still be fitted: %v", err)
	}
}

func TestCoTrainingGrowsAndPredicts(t *testing.T) {
	XL, yL, XU := clusterData()

	var stats []RoundStats
	model := NewCoTraining(base.NewKNN(3), 3)
	model.OnRound = func(s RoundStats) { stats = append(stats, s) }

	if err := model.Fit(XL, yL, XU); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stats) == 0 {
		t.Fatalf("expected pseudo-labeling rounds")
	}
	prev := len(yL)
	for _, s := range stats {
		if s.LabeledSize < prev {
			t.Fatalf("labeled size shrank: %d -> %d", prev, s.LabeledSize)
		}
		prev = s.LabeledSize
	}

	labels, err := model.Predict([][]float64{{0.05, 0.1}, {0.95, 0.9}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if labels[0] != 0 || labels[1] != 1 {
		t.Fatalf("expected [0 1], got %v", labels)
	}
}

func TestCoTrainingFeatureViews(t *testing.T) {
	// Four columns, each view sees two of them. Both views remain
	// separable on their own columns.
	XL := [][]float64{
		{0, 0, 0.1, 0.1},
		{0.1, 0.1, 0, 0},
		{1, 1, 0.9, 0.9},
		{0.9, 0.9, 1, 1},
	}
	yL := []int{0, 0, 1, 1}
	XU := [][]float64{
		{0.05, 0.05, 0.05, 0.05},
		{0.95, 0.95, 0.95, 0.95},
	}

	model := NewCoTraining(base.NewKNN(3), 5)
	model.Views = [2][]int{{0, 1}, {2, 3}}

	if err := model.Fit(XL, yL, XU); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	labels, err := model.Predict([][]float64{{0, 0.1, 0.1, 0}, {1, 0.9, 0.9, 1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if labels[0] != 0 || labels[1] != 1 {
		t.Fatalf("expected [0 1], got %v", labels)
	}
}

func TestCoTrainingQuotasFromClassBalance(t *testing.T) {
	model := NewCoTraining(base.NewKNN(3), 1)

	// Three positives to nine negatives: admit one positive per three
	// negatives each round.
	codes := []int{1, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	pos, neg := model.quotas(codes)
	if pos != 1 || neg != 3 {
		t.Fatalf("expected quotas (1, 3), got (%d, %d)", pos, neg)
	}

	model.Positives = 5
	model.Negatives = 2
	pos, neg = model.quotas(codes)
	if pos != 5 || neg != 2 {
		t.Fatalf("explicit quotas must win, got (%d, %d)", pos, neg)
	}
}

func TestCoTrainingInvalidThreshold(t *testing.T) {
	model := NewCoTraining(base.NewKNN(3), 1)
	model.Threshold = 1.5
	err := model.Fit([][]float64{{0}, {1}}, []int{0, 1}, nil)
	if _, ok := err.(*base.ConfigurationError); !ok {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestCoTrainingDeterministic(t *testing.T) {
	XL, yL, XU := clusterData()
	grid := [][]float64{{0.1, 0.1}, {0.5, 0.5}, {0.9, 0.9}}

	first := NewCoTraining(base.NewDecisionTree(4), 11)
	second := NewCoTraining(base.NewDecisionTree(4), 11)
	if err := first.Fit(XL, yL, XU); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := second.Fit(XL, yL, XU); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, _ := first.Predict(grid)
	b, _ := second.Predict(grid)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed diverged at %d", i)
		}
	}
}
