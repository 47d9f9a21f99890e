package wrapper

import (
	"math/rand"
	"sort"

	"go.uber.org/zap"

	"github.com/aliciaolivaresgil/sslearn/base"
	"github.com/aliciaolivaresgil/sslearn/dataset"
)

// CoTrainingByCommittee implements Hady & Schwenker's co-training by
// committee: a bagging committee is trained on the labeled data and each
// round admits the most confident pool predictions, with per-class quotas
// derived from the labeled class prior plus a fixed per-class minimum so
// minority classes keep growing.
type CoTrainingByCommittee struct {
	BaseEstimator base.Classifier
	CommitteeSize int // bootstrapped members, default 10
	MaxIterations int // round budget, default 100
	PoolSize      int // unlabeled candidates examined per round, default 100
	MinPerClass   int // guaranteed admissions per class per round, default 3
	Seed          int64
	Logger        *zap.Logger
	OnRound       func(RoundStats)

	members []base.Classifier
	encoder dataset.LabelEncoder
}

func NewCoTrainingByCommittee(estimator base.Classifier, seed int64) *CoTrainingByCommittee {
	return &CoTrainingByCommittee{
		BaseEstimator: estimator,
		CommitteeSize: 10,
		MaxIterations: 100,
		PoolSize:      100,
		MinPerClass:   3,
		Seed:          seed,
	}
}

func (c *CoTrainingByCommittee) validate() error {
	if c.BaseEstimator == nil {
		return &base.ConfigurationError{Param: "base_estimator", Reason: "must not be nil"}
	}
	if c.CommitteeSize <= 0 {
		return &base.ConfigurationError{Param: "committee_size", Reason: "must be positive"}
	}
	if c.MaxIterations <= 0 {
		return &base.ConfigurationError{Param: "max_iterations", Reason: "must be positive"}
	}
	if c.PoolSize <= 0 {
		return &base.ConfigurationError{Param: "poolsize", Reason: "must be positive"}
	}
	if c.MinPerClass <= 0 {
		return &base.ConfigurationError{Param: "min_instances_for_class", Reason: "must be positive"}
	}
	return nil
}

func (c *CoTrainingByCommittee) Fit(XL [][]float64, yL []int, XU [][]float64) error {
	if err := c.validate(); err != nil {
		return err
	}

	c.encoder.FitLabels(yL)
	codes, err := c.encoder.Encode(yL)
	if err != nil {
		return err
	}
	nClasses := len(c.encoder.Classes())

	part, err := dataset.NewPartition(XL, codes, XU)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(c.Seed))
	mon := newMonitor(c.MaxIterations, c.Logger, c.OnRound)

	prior := make([]float64, nClasses)
	for _, code := range codes {
		prior[code]++
	}
	for i := range prior {
		prior[i] /= float64(len(codes))
	}

	members := make([]base.Classifier, c.CommitteeSize)
	for m := range members {
		members[m] = base.CloneSeeded(c.BaseEstimator, rng.Int63())
	}
	c.members = members

	// The pool is consumed front to back from one fixed permutation of
	// the unlabeled set.
	_, indices := part.Unlabeled()
	perm := rng.Perm(len(indices))
	queue := make([]int, len(indices))
	for i, p := range perm {
		queue[i] = indices[p]
	}

	if err := c.fitCommittee(part, rng, 0); err != nil {
		return err
	}

	for round := 1; mon.budgetLeft(round) && len(queue) > 0; round++ {
		poolSize := c.PoolSize
		if poolSize > len(queue) {
			poolSize = len(queue)
		}
		pool := queue[:poolSize]
		poolX := make([][]float64, poolSize)
		for i, idx := range pool {
			poolX[i] = part.X[idx]
		}

		probs, err := c.committeeProba(poolX, nClasses)
		if err != nil {
			return err
		}

		selected := make([]candidate, 0)
		for code := 0; code < nClasses; code++ {
			quota := int(float64(poolSize)*prior[code]) + c.MinPerClass
			cands := make([]candidate, 0)
			for i, row := range probs {
				best := 0
				for j := 1; j < len(row); j++ {
					if row[j] > row[best] {
						best = j
					}
				}
				if best == code {
					cands = append(cands, candidate{index: pool[i], label: code, confidence: row[code]})
				}
			}
			selected = append(selected, topByConfidence(cands, quota)...)
		}
		if len(selected) == 0 {
			break
		}
		sort.Slice(selected, func(a, b int) bool { return selected[a].index < selected[b].index })

		committee := make([]int, c.CommitteeSize)
		for m := range committee {
			committee[m] = m
		}
		proposal := dataset.Proposal{Origin: dataset.Origin{Round: round, Members: committee}}
		for _, cand := range selected {
			proposal.Indices = append(proposal.Indices, cand.index)
			proposal.Labels = append(proposal.Labels, cand.label)
		}
		added, err := part.Commit(proposal)
		if err != nil {
			return err
		}
		if added == 0 {
			break
		}

		admitted := make(map[int]bool, len(selected))
		for _, cand := range selected {
			admitted[cand.index] = true
		}
		remaining := queue[:0]
		for _, idx := range queue {
			if !admitted[idx] {
				remaining = append(remaining, idx)
			}
		}
		queue = remaining

		if err := c.fitCommittee(part, rng, round); err != nil {
			return err
		}
		mon.observe(RoundStats{
			Round:         round,
			NewlyLabeled:  added,
			LabeledSize:   part.LabeledCount(),
			UnlabeledSize: part.UnlabeledCount(),
		})
	}
	return nil
}

// fitCommittee refits every member on its own bootstrap draw of the
// current labeled set. The draws happen sequentially so a fixed seed
// fixes the outcome; only the fits run concurrently. One instance per
// class is prepended to every draw so no member loses a class.
func (c *CoTrainingByCommittee) fitCommittee(part *dataset.Partition, rng *rand.Rand, round int) error {
	Xl, yl := part.Snapshot()
	coverX, coverY := classCoverage(Xl, yl)

	drawsX := make([][][]float64, len(c.members))
	drawsY := make([][]int, len(c.members))
	for m := range c.members {
		Xs, ys := resampleBootstrap(rng, Xl, yl, 0)
		drawsX[m] = append(append([][]float64{}, coverX...), Xs...)
		drawsY[m] = append(append([]int{}, coverY...), ys...)
	}

	return parallelMembers(len(c.members), func(m int) error {
		if err := c.members[m].Fit(drawsX[m], drawsY[m]); err != nil {
			return &base.EstimatorFitError{Round: round, Member: m, Err: err}
		}
		return nil
	})
}

// committeeProba averages the members' probabilities; when the base
// estimator has no probabilistic output the committee's vote fractions
// serve as probabilities, the way a bagging ensemble scores.
func (c *CoTrainingByCommittee) committeeProba(X [][]float64, nClasses int) ([][]float64, error) {
	probs, err := averageProba(c.members, X)
	if err == nil {
		return probs, nil
	}
	if _, ok := err.(*base.CapabilityUnavailableError); !ok {
		return nil, err
	}

	preds := make([][]int, len(c.members))
	if err := parallelMembers(len(c.members), func(m int) error {
		p, perr := c.members[m].Predict(X)
		if perr != nil {
			return perr
		}
		preds[m] = p
		return nil
	}); err != nil {
		return nil, err
	}

	out := make([][]float64, len(X))
	for i := range out {
		row := make([]float64, nClasses)
		for _, p := range preds {
			row[p[i]]++
		}
		for j := range row {
			row[j] /= float64(len(c.members))
		}
		out[i] = row
	}
	return out, nil
}

func (c *CoTrainingByCommittee) Predict(X [][]float64) ([]int, error) {
	if c.members == nil {
		return nil, errNotFitted
	}
	preds := make([][]int, len(c.members))
	if err := parallelMembers(len(c.members), func(m int) error {
		p, err := c.members[m].Predict(X)
		if err != nil {
			return err
		}
		preds[m] = p
		return nil
	}); err != nil {
		return nil, err
	}
	return c.encoder.Decode(majorityVote(preds))
}

func (c *CoTrainingByCommittee) PredictProba(X [][]float64) ([][]float64, error) {
	if c.members == nil {
		return nil, errNotFitted
	}
	return c.committeeProba(X, len(c.encoder.Classes()))
}

// Classes returns the original class labels, ascending.
func (c *CoTrainingByCommittee) Classes() []int {
	return c.encoder.Classes()
}
