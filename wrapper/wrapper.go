// Package wrapper implements the semi-supervised orchestrators: iterative
// pseudo-labeling loops that extend a small labeled set with confidently or
// agreement-selected unlabeled instances and retrain the base estimators.
package wrapper

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/aliciaolivaresgil/sslearn/base"
)

var errNotFitted = errors.New("classifier not fitted")

// Model is the contract every orchestrator exposes once constructed.
type Model interface {
	Fit(XL [][]float64, yL []int, XU [][]float64) error
	Predict(X [][]float64) ([]int, error)
	PredictProba(X [][]float64) ([][]float64, error)
}

// RoundStats summarizes one pseudo-labeling round. It is reported to the
// optional OnRound callback and discarded afterwards.
type RoundStats struct {
	Round         int       `json:"round"`
	NewlyLabeled  int       `json:"newly_labeled"`
	LabeledSize   int       `json:"labeled_size"`
	UnlabeledSize int       `json:"unlabeled_size"`
	MemberErrors  []float64 `json:"member_errors,omitempty"`
}

// monitor tracks the round budget and fans round stats out to the logger
// and the caller's callback.
type monitor struct {
	maxIterations int
	log           *zap.Logger
	onRound       func(RoundStats)
}

func newMonitor(maxIterations int, log *zap.Logger, onRound func(RoundStats)) *monitor {
	if log == nil {
		log = zap.NewNop()
	}
	return &monitor{maxIterations: maxIterations, log: log, onRound: onRound}
}

func (m *monitor) budgetLeft(round int) bool {
	return round <= m.maxIterations
}

func (m *monitor) observe(stats RoundStats) {
	m.log.Debug("round complete",
		zap.Int("round", stats.Round),
		zap.Int("newly_labeled", stats.NewlyLabeled),
		zap.Int("labeled_size", stats.LabeledSize),
		zap.Int("unlabeled_size", stats.UnlabeledSize),
		zap.Float64s("member_errors", stats.MemberErrors))
	if m.onRound != nil {
		m.onRound(stats)
	}
}

// resampleBootstrap draws n rows with replacement.
func resampleBootstrap(rng *rand.Rand, X [][]float64, y []int, n int) ([][]float64, []int) {
	if n <= 0 {
		n = len(X)
	}
	outX := make([][]float64, n)
	outY := make([]int, n)
	for i := 0; i < n; i++ {
		j := rng.Intn(len(X))
		outX[i] = X[j]
		outY[i] = y[j]
	}
	return outX, outY
}

// subsample keeps n rows drawn without replacement, preserving none of the
// original order beyond the draw itself.
func subsample(rng *rand.Rand, X [][]float64, y []int, n int) ([][]float64, []int) {
	if n >= len(X) {
		return X, y
	}
	perm := rng.Perm(len(X))
	outX := make([][]float64, n)
	outY := make([]int, n)
	for i := 0; i < n; i++ {
		outX[i] = X[perm[i]]
		outY[i] = y[perm[i]]
	}
	return outX, outY
}

// majorityVote combines per-member predictions; ties resolve to the lowest
// label so the result is deterministic.
func majorityVote(preds [][]int) []int {
	out := make([]int, len(preds[0]))
	for i := range out {
		counts := make(map[int]int)
		best := preds[0][i]
		bestCount := 0
		for _, p := range preds {
			label := p[i]
			counts[label]++
			if counts[label] > bestCount || (counts[label] == bestCount && label < best) {
				bestCount = counts[label]
				best = label
			}
		}
		out[i] = best
	}
	return out
}

// averageProba requires every member to support probabilistic output.
func averageProba(members []base.Classifier, X [][]float64) ([][]float64, error) {
	var sum [][]float64
	for _, m := range members {
		p, ok := m.(base.ProbabilisticClassifier)
		if !ok {
			return nil, &base.CapabilityUnavailableError{Capability: "predict_proba"}
		}
		probs, err := p.PredictProba(X)
		if err != nil {
			return nil, err
		}
		if sum == nil {
			sum = make([][]float64, len(probs))
			for i := range probs {
				sum[i] = make([]float64, len(probs[i]))
			}
		}
		for i := range probs {
			for j := range probs[i] {
				sum[i][j] += probs[i][j]
			}
		}
	}
	for i := range sum {
		for j := range sum[i] {
			sum[i][j] /= float64(len(members))
		}
	}
	return sum, nil
}

// parallelMembers runs fn once per member concurrently and reports the
// first failure. Results must be written to member-indexed slots so the
// outcome does not depend on scheduling.
func parallelMembers(n int, fn func(i int) error) error {
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = fn(i)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func safeDivision(num, den float64) float64 {
	if den == 0 {
		den = math.SmallestNonzeroFloat64
	}
	return num / den
}

// candidate is one unlabeled instance scored by a selection policy.
// Poolpos is the position within the per-round pool, used to remove the
// instance after admission; index is the partition instance index used as
// the deterministic tie-break.
type candidate struct {
	index      int
	poolPos    int
	label      int
	confidence float64
}

// topByConfidence returns the n best candidates, ordered by descending
// confidence with the lowest instance index winning ties.
func topByConfidence(cands []candidate, n int) []candidate {
	sorted := append([]candidate(nil), cands...)
	sort.SliceStable(sorted, func(a, b int) bool {
		if sorted[a].confidence != sorted[b].confidence {
			return sorted[a].confidence > sorted[b].confidence
		}
		return sorted[a].index < sorted[b].index
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}
