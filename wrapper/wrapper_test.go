package wrapper

import (
	"testing"

	"github.com/aliciaolivaresgil/sslearn/base"
)

// clusterData is a linearly separable two-class problem: a labeled core
// and unlabeled points near the same clusters.
func clusterData() (XL [][]float64, yL []int, XU [][]float64) {
	XL = [][]float64{
		{0.0, 0.1}, {0.1, 0.0}, {0.1, 0.2}, {0.2, 0.1},
		{0.9, 1.0}, {1.0, 0.9}, {0.9, 0.8}, {0.8, 0.9},
	}
	yL = []int{0, 0, 0, 0, 1, 1, 1, 1}
	XU = [][]float64{
		{0.05, 0.05}, {0.15, 0.1}, {0.0, 0.2}, {0.2, 0.0},
		{0.95, 0.95}, {0.85, 1.0}, {1.0, 0.85}, {0.9, 0.9},
	}
	return XL, yL, XU
}

// fixedProba is a stub estimator returning the same probability row for
// every instance, useful to exercise threshold boundaries exactly.
type fixedProba struct {
	row []float64
}

func (f *fixedProba) Fit(X [][]float64, y []int) error { return nil }

func (f *fixedProba) Predict(X [][]float64) ([]int, error) {
	labels := make([]int, len(X))
	for i := range labels {
		best := 0
		for j := 1; j < len(f.row); j++ {
			if f.row[j] > f.row[best] {
				best = j
			}
		}
		labels[i] = best
	}
	return labels, nil
}

func (f *fixedProba) PredictProba(X [][]float64) ([][]float64, error) {
	probs := make([][]float64, len(X))
	for i := range probs {
		probs[i] = append([]float64(nil), f.row...)
	}
	return probs, nil
}

func (f *fixedProba) Clone() base.Classifier {
	return &fixedProba{row: f.row}
}

func TestMajorityVoteTieBreaksToLowestLabel(t *testing.T) {
	preds := [][]int{{1, 0}, {2, 0}, {0, 1}}
	out := majorityVote(preds)
	if out[0] != 0 {
		t.Fatalf("expected lowest label 0 on a three-way tie, got %d", out[0])
	}
	if out[1] != 0 {
		t.Fatalf("expected majority label 0, got %d", out[1])
	}
}

func TestTopByConfidenceTieBreaksToLowestIndex(t *testing.T) {
	cands := []candidate{
		{index: 9, label: 1, confidence: 0.8},
		{index: 3, label: 1, confidence: 0.8},
		{index: 5, label: 1, confidence: 0.9},
	}
	top := topByConfidence(cands, 2)
	if top[0].index != 5 {
		t.Fatalf("expected highest confidence first, got index %d", top[0].index)
	}
	if top[1].index != 3 {
		t.Fatalf("expected lowest index to win the tie, got %d", top[1].index)
	}
}

func TestAverageProbaRequiresCapability(t *testing.T) {
	members := []base.Classifier{base.NewKNN(1), plainClassifier{}}
	_, err := averageProba(members, [][]float64{{0}})
	if err == nil {
		t.Fatalf("expected capability error")
	}
	if _, ok := err.(*base.CapabilityUnavailableError); !ok {
		t.Fatalf("expected CapabilityUnavailableError, got %T", err)
	}
}

// plainClassifier has hard predictions only.
type plainClassifier struct{}

func (plainClassifier) Fit(X [][]float64, y []int) error { return nil }

func (plainClassifier) Predict(X [][]float64) ([]int, error) {
	return make([]int, len(X)), nil
}
