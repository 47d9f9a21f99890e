package wrapper

import (
	"math/rand"
	"sort"

	"go.uber.org/zap"

	"github.com/aliciaolivaresgil/sslearn/base"
	"github.com/aliciaolivaresgil/sslearn/dataset"
)

// SelfTraining pseudo-labels with a single estimator: each round the most
// confident pool predictions per class are committed to the labeled set and
// the estimator retrains on the enlarged set.
type SelfTraining struct {
	BaseEstimator base.Classifier
	MaxIterations int // round budget, default 40
	PoolSize      int // unlabeled candidates examined per round, default 75
	PerClass      int // instances admitted per class per round, default 3
	Seed          int64
	Logger        *zap.Logger
	OnRound       func(RoundStats)

	member base.Classifier
}

func NewSelfTraining(estimator base.Classifier, seed int64) *SelfTraining {
	return &SelfTraining{
		BaseEstimator: estimator,
		MaxIterations: 40,
		PoolSize:      75,
		PerClass:      3,
		Seed:          seed,
	}
}

func (s *SelfTraining) validate() error {
	if s.BaseEstimator == nil {
		return &base.ConfigurationError{Param: "base_estimator", Reason: "must not be nil"}
	}
	if s.MaxIterations <= 0 {
		return &base.ConfigurationError{Param: "max_iterations", Reason: "must be positive"}
	}
	if s.PoolSize <= 0 {
		return &base.ConfigurationError{Param: "poolsize", Reason: "must be positive"}
	}
	if s.PerClass <= 0 {
		return &base.ConfigurationError{Param: "per_class", Reason: "must be positive"}
	}
	return nil
}

func (s *SelfTraining) Fit(XL [][]float64, yL []int, XU [][]float64) error {
	if err := s.validate(); err != nil {
		return err
	}
	part, err := dataset.NewPartition(XL, yL, XU)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(s.Seed))
	mon := newMonitor(s.MaxIterations, s.Logger, s.OnRound)
	member := base.CloneSeeded(s.BaseEstimator, rng.Int63())

	for round := 1; mon.budgetLeft(round) && part.UnlabeledCount() > 0; round++ {
		Xl, yl := part.Snapshot()
		if err := member.Fit(Xl, yl); err != nil {
			return &base.EstimatorFitError{Round: round, Member: 0, Err: err}
		}

		proposal, err := s.selectRound(rng, member, part, yl, round)
		if err == base.ErrEmptySelection {
			break
		}
		if err != nil {
			return err
		}
		added, err := part.Commit(proposal)
		if err != nil {
			return err
		}
		if added == 0 {
			break
		}
		mon.observe(RoundStats{
			Round:         round,
			NewlyLabeled:  added,
			LabeledSize:   part.LabeledCount(),
			UnlabeledSize: part.UnlabeledCount(),
		})
	}

	Xl, yl := part.Snapshot()
	if err := member.Fit(Xl, yl); err != nil {
		return &base.EstimatorFitError{Round: -1, Member: 0, Err: err}
	}
	s.member = member
	return nil
}

// selectRound applies the confidence policy to a random pool slice of the
// unlabeled set.
func (s *SelfTraining) selectRound(rng *rand.Rand, member base.Classifier, part *dataset.Partition, yl []int, round int) (dataset.Proposal, error) {
	XU, indices := part.Unlabeled()

	perm := rng.Perm(len(XU))
	poolSize := s.PoolSize
	if poolSize > len(perm) {
		poolSize = len(perm)
	}
	poolX := make([][]float64, poolSize)
	poolIdx := make([]int, poolSize)
	for i := 0; i < poolSize; i++ {
		poolX[i] = XU[perm[i]]
		poolIdx[i] = indices[perm[i]]
	}

	var selected []candidate
	if prob, ok := member.(base.ProbabilisticClassifier); ok {
		probs, err := prob.PredictProba(poolX)
		if err != nil {
			return dataset.Proposal{}, err
		}
		classes := uniqueClasses(yl)
		perClass := make(map[int][]candidate)
		for i, row := range probs {
			best := 0
			for j := 1; j < len(row); j++ {
				if row[j] > row[best] {
					best = j
				}
			}
			label := classes[best]
			perClass[label] = append(perClass[label], candidate{
				index:      poolIdx[i],
				label:      label,
				confidence: row[best],
			})
		}
		for _, class := range classes {
			selected = append(selected, topByConfidence(perClass[class], s.PerClass)...)
		}
	} else {
		// No probabilistic output: a single member trivially agrees with
		// itself, so the whole pool passes the agreement threshold.
		labels, err := member.Predict(poolX)
		if err != nil {
			return dataset.Proposal{}, err
		}
		for i, label := range labels {
			selected = append(selected, candidate{index: poolIdx[i], label: label, confidence: 1})
		}
	}

	if len(selected) == 0 {
		return dataset.Proposal{}, base.ErrEmptySelection
	}
	sort.Slice(selected, func(a, b int) bool { return selected[a].index < selected[b].index })

	proposal := dataset.Proposal{Origin: dataset.Origin{Round: round, Members: []int{0}}}
	for _, c := range selected {
		proposal.Indices = append(proposal.Indices, c.index)
		proposal.Labels = append(proposal.Labels, c.label)
	}
	return proposal, nil
}

func (s *SelfTraining) Predict(X [][]float64) ([]int, error) {
	if s.member == nil {
		return nil, errNotFitted
	}
	return s.member.Predict(X)
}

func (s *SelfTraining) PredictProba(X [][]float64) ([][]float64, error) {
	if s.member == nil {
		return nil, errNotFitted
	}
	return averageProba([]base.Classifier{s.member}, X)
}

func uniqueClasses(y []int) []int {
	seen := make(map[int]bool)
	out := make([]int, 0)
	for _, label := range y {
		if !seen[label] {
			seen[label] = true
			out = append(out, label)
		}
	}
	sort.Ints(out)
	return out
}
