package wrapper

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"go.uber.org/zap"

	"github.com/aliciaolivaresgil/sslearn/base"
	"github.com/aliciaolivaresgil/sslearn/dataset"
)

// CoTraining implements Blum & Mitchell's co-training for binary problems.
// Two estimators look at the same instances (optionally through different
// feature views) and each round both propose their most confident pool
// predictions, bounded by the positive/negative admission quotas.
type CoTraining struct {
	BaseEstimator       base.Classifier
	SecondBaseEstimator base.Classifier // optional, clone of BaseEstimator when nil
	MaxIterations       int             // round budget, default 30
	PoolSize            int             // unlabeled candidates examined per round, default 75
	Positives           int             // positive admissions per member per round, -1 derives from class balance
	Negatives           int             // negative admissions per member per round, -1 derives from class balance
	Threshold           float64         // confidence gate, inclusive, default 0.5
	Views               [2][]int        // optional feature subspaces, nil means all columns
	Seed                int64
	Logger              *zap.Logger
	OnRound             func(RoundStats)

	members  [2]base.Classifier
	encoder  dataset.LabelEncoder
	pos, neg int
}

func NewCoTraining(estimator base.Classifier, seed int64) *CoTraining {
	return &CoTraining{
		BaseEstimator: estimator,
		MaxIterations: 30,
		PoolSize:      75,
		Positives:     -1,
		Negatives:     -1,
		Threshold:     0.5,
		Seed:          seed,
	}
}

func (c *CoTraining) validate() error {
	if c.BaseEstimator == nil {
		return &base.ConfigurationError{Param: "base_estimator", Reason: "must not be nil"}
	}
	if c.MaxIterations <= 0 {
		return &base.ConfigurationError{Param: "max_iterations", Reason: "must be positive"}
	}
	if c.PoolSize <= 0 {
		return &base.ConfigurationError{Param: "poolsize", Reason: "must be positive"}
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return &base.ConfigurationError{Param: "threshold", Reason: "must be within [0,1]"}
	}
	if (c.Positives == -1) != (c.Negatives == -1) {
		return &base.ConfigurationError{Param: "positives/negatives", Reason: "specify both or neither"}
	}
	if c.Positives != -1 && (c.Positives <= 0 || c.Negatives <= 0) {
		return &base.ConfigurationError{Param: "positives/negatives", Reason: "must be positive"}
	}
	return nil
}

func (c *CoTraining) Fit(XL [][]float64, yL []int, XU [][]float64) error {
	if err := c.validate(); err != nil {
		return err
	}

	c.encoder.FitLabels(yL)
	if len(c.encoder.Classes()) != 2 {
		return fmt.Errorf("co-training supports binary problems only, got %d classes", len(c.encoder.Classes()))
	}
	codes, err := c.encoder.Encode(yL)
	if err != nil {
		return err
	}

	part, err := dataset.NewPartition(XL, codes, XU)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(c.Seed))
	mon := newMonitor(c.MaxIterations, c.Logger, c.OnRound)

	c.members[0] = base.CloneSeeded(c.BaseEstimator, rng.Int63())
	second := c.SecondBaseEstimator
	if second == nil {
		second = c.BaseEstimator
	}
	c.members[1] = base.CloneSeeded(second, rng.Int63())

	c.pos, c.neg = c.quotas(codes)

	// The pool is a persistent random slice of the unlabeled set,
	// replenished from the remainder as instances are admitted.
	_, indices := part.Unlabeled()
	perm := rng.Perm(len(indices))
	poolSize := c.PoolSize
	if poolSize > len(perm) {
		poolSize = len(perm)
	}
	pool := make([]int, 0, poolSize)
	reserve := make([]int, 0, len(perm)-poolSize)
	for i, p := range perm {
		if i < poolSize {
			pool = append(pool, indices[p])
		} else {
			reserve = append(reserve, indices[p])
		}
	}

	for round := 1; mon.budgetLeft(round) && len(pool) > 0; round++ {
		Xl, yl := part.Snapshot()
		for m, member := range c.members {
			if err := member.Fit(viewRows(Xl, c.Views[m]), yl); err != nil {
				return &base.EstimatorFitError{Round: round, Member: m, Err: err}
			}
		}

		selected, err := c.selectRound(part, pool)
		if err != nil {
			return err
		}
		if len(selected) == 0 {
			break
		}

		proposal := dataset.Proposal{Origin: dataset.Origin{Round: round, Members: []int{0, 1}}}
		for _, cand := range selected {
			proposal.Indices = append(proposal.Indices, cand.index)
			proposal.Labels = append(proposal.Labels, cand.label)
		}
		added, err := part.Commit(proposal)
		if err != nil {
			return err
		}

		admitted := make(map[int]bool, len(selected))
		for _, cand := range selected {
			admitted[cand.index] = true
		}
		remaining := pool[:0]
		for _, idx := range pool {
			if !admitted[idx] {
				remaining = append(remaining, idx)
			}
		}
		pool = remaining
		for len(pool) < poolSize && len(reserve) > 0 {
			pool = append(pool, reserve[0])
			reserve = reserve[1:]
		}

		mon.observe(RoundStats{
			Round:         round,
			NewlyLabeled:  added,
			LabeledSize:   part.LabeledCount(),
			UnlabeledSize: part.UnlabeledCount(),
		})
	}

	Xl, yl := part.Snapshot()
	for m, member := range c.members {
		if err := member.Fit(viewRows(Xl, c.Views[m]), yl); err != nil {
			return &base.EstimatorFitError{Round: -1, Member: m, Err: err}
		}
	}
	return nil
}

// selectRound gathers each member's confident pool predictions. Confidence
// exactly at the threshold is selected (inclusive boundary).
func (c *CoTraining) selectRound(part *dataset.Partition, pool []int) ([]candidate, error) {
	poolX := make([][]float64, len(pool))
	for i, idx := range pool {
		poolX[i] = part.X[idx]
	}

	byIndex := make(map[int]candidate)

	probaMembers := 0
	for m, member := range c.members {
		prob, ok := member.(base.ProbabilisticClassifier)
		if !ok {
			continue
		}
		probaMembers++
		probs, err := prob.PredictProba(viewRows(poolX, c.Views[m]))
		if err != nil {
			return nil, err
		}
		for code, quota := range [2]int{c.neg, c.pos} {
			cands := make([]candidate, 0, len(pool))
			for i, row := range probs {
				if row[code] >= c.Threshold {
					cands = append(cands, candidate{index: pool[i], label: code, confidence: row[code]})
				}
			}
			for _, cand := range topByConfidence(cands, quota) {
				if prev, ok := byIndex[cand.index]; !ok || cand.confidence > prev.confidence {
					byIndex[cand.index] = cand
				}
			}
		}
	}

	if probaMembers == 0 {
		// Hard-agreement fallback: an instance both members label
		// identically carries agreement score 1, which passes any
		// threshold in [0,1].
		preds := make([][]int, 2)
		for m, member := range c.members {
			p, err := member.Predict(viewRows(poolX, c.Views[m]))
			if err != nil {
				return nil, err
			}
			preds[m] = p
		}
		quota := [2]int{2 * c.neg, 2 * c.pos}
		taken := [2]int{}
		for i := range pool {
			if preds[0][i] != preds[1][i] {
				continue
			}
			code := preds[0][i]
			if taken[code] >= quota[code] {
				continue
			}
			taken[code]++
			byIndex[pool[i]] = candidate{index: pool[i], label: code, confidence: 1}
		}
	}

	selected := make([]candidate, 0, len(byIndex))
	for _, cand := range byIndex {
		selected = append(selected, cand)
	}
	sort.Slice(selected, func(a, b int) bool { return selected[a].index < selected[b].index })
	return selected, nil
}

// quotas derives the per-round admission counts from the labeled class
// balance when the caller did not fix them.
func (c *CoTraining) quotas(codes []int) (positives, negatives int) {
	if c.Positives != -1 {
		return c.Positives, c.Negatives
	}
	numPos := 0
	for _, code := range codes {
		if code == 1 {
			numPos++
		}
	}
	numNeg := len(codes) - numPos
	if numPos == 0 || numNeg == 0 {
		return 1, 1
	}
	ratio := float64(numNeg) / float64(numPos)
	if ratio > 1 {
		return 1, int(math.Round(ratio))
	}
	return int(math.Round(1 / ratio)), 1
}

func (c *CoTraining) Predict(X [][]float64) ([]int, error) {
	if c.members[0] == nil {
		return nil, errNotFitted
	}
	probs, err := c.PredictProba(X)
	if err == nil {
		codes := make([]int, len(probs))
		for i, row := range probs {
			if row[1] > row[0] {
				codes[i] = 1
			}
		}
		return c.encoder.Decode(codes)
	}
	if _, ok := err.(*base.CapabilityUnavailableError); !ok {
		return nil, err
	}

	preds := make([][]int, 2)
	for m, member := range c.members {
		p, perr := member.Predict(viewRows(X, c.Views[m]))
		if perr != nil {
			return nil, perr
		}
		preds[m] = p
	}
	return c.encoder.Decode(majorityVote(preds))
}

func (c *CoTraining) PredictProba(X [][]float64) ([][]float64, error) {
	if c.members[0] == nil {
		return nil, errNotFitted
	}
	var sum [][]float64
	for m, member := range c.members {
		prob, ok := member.(base.ProbabilisticClassifier)
		if !ok {
			return nil, &base.CapabilityUnavailableError{Capability: "predict_proba"}
		}
		probs, err := prob.PredictProba(viewRows(X, c.Views[m]))
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
			sum[i][j] /= 2
		}
	}
	return sum, nil
}

// Classes returns the original class labels, ascending.
func (c *CoTraining) Classes() []int {
	return c.encoder.Classes()
}

// viewRows projects rows onto a feature view; a nil view keeps all columns.
func viewRows(X [][]float64, view []int) [][]float64 {
	if view == nil {
		return X
	}
	out := make([][]float64, len(X))
	for i, row := range X {
		projected := make([]float64, len(view))
		for j, col := range view {
			projected[j] = row[col]
		}
		out[i] = projected
	}
	return out
}
