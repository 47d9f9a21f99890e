package wrapper

import (
	"math"
	"math/rand"

	"go.uber.org/zap"

	"github.com/aliciaolivaresgil/sslearn/base"
	"github.com/aliciaolivaresgil/sslearn/dataset"
)

// TriTraining implements Zhou & Li's tri-training. Three members are
// bootstrapped from the labeled data; each round, member i receives the
// unlabeled instances on which the other two members agree, and retrains
// only when its estimated error strictly improves the previous round's.
// The refit always targets the original labels plus the round's agreed
// set, never the member's own past selections.
type TriTraining struct {
	BaseEstimator base.Classifier
	NSamples      int // bootstrap draw per member, default |labeled|
	MaxIterations int // round budget, default 40
	Seed          int64
	Logger        *zap.Logger
	OnRound       func(RoundStats)

	members [3]base.Classifier
	classes []int

	// groups, when set by WiWTriTraining, aligns a group id with every
	// unlabeled row; agreement is then evaluated per group.
	groups []int
}

func NewTriTraining(estimator base.Classifier, seed int64) *TriTraining {
	return &TriTraining{
		BaseEstimator: estimator,
		MaxIterations: 40,
		Seed:          seed,
	}
}

func (t *TriTraining) validate() error {
	if t.BaseEstimator == nil {
		return &base.ConfigurationError{Param: "base_estimator", Reason: "must not be nil"}
	}
	if t.MaxIterations <= 0 {
		return &base.ConfigurationError{Param: "max_iterations", Reason: "must be positive"}
	}
	return nil
}

func (t *TriTraining) Fit(XL [][]float64, yL []int, XU [][]float64) error {
	if err := t.validate(); err != nil {
		return err
	}
	part, err := dataset.NewPartition(XL, yL, XU)
	if err != nil {
		return err
	}
	Xl, yl := part.Snapshot()
	Xu, _ := part.Unlabeled()

	rng := rand.New(rand.NewSource(t.Seed))
	mon := newMonitor(t.MaxIterations, t.Logger, t.OnRound)
	t.classes = uniqueClasses(yl)

	// An exhausted pool means there is nothing to pseudo-label: the model
	// degenerates to a plain fit on the labeled data.
	if len(Xu) == 0 {
		for m := range t.members {
			t.members[m] = base.CloneSeeded(t.BaseEstimator, rng.Int63())
			if err := t.members[m].Fit(Xl, yl); err != nil {
				return &base.EstimatorFitError{Round: 0, Member: m, Err: err}
			}
		}
		return nil
	}

	// One instance per class is prepended to every bootstrap draw so no
	// member loses a class entirely.
	coverX, coverY := classCoverage(Xl, yl)
	for m := range t.members {
		Xs, ys := resampleBootstrap(rng, Xl, yl, t.NSamples)
		Xs = append(append([][]float64{}, coverX...), Xs...)
		ys = append(append([]int{}, coverY...), ys...)
		t.members[m] = base.CloneSeeded(t.BaseEstimator, rng.Int63())
		if err := t.members[m].Fit(Xs, ys); err != nil {
			return &base.EstimatorFitError{Round: 0, Member: m, Err: err}
		}
	}

	ePrev := [3]float64{0.5, 0.5, 0.5}
	lPrev := [3]float64{0, 0, 0}

	changed := true
	for round := 1; changed && mon.budgetLeft(round); round++ {
		changed = false

		predsL := make([][]int, 3)
		predsU := make([][]int, 3)
		if err := parallelMembers(3, func(m int) error {
			pl, perr := t.members[m].Predict(Xl)
			if perr != nil {
				return &base.EstimatorFitError{Round: round, Member: m, Err: perr}
			}
			pu, perr := t.members[m].Predict(Xu)
			if perr != nil {
				return &base.EstimatorFitError{Round: round, Member: m, Err: perr}
			}
			predsL[m] = pl
			predsU[m] = pu
			return nil
		}); err != nil {
			return err
		}

		var e [3]float64
		var LX [3][][]float64
		var Ly [3][]int
		var updates [3]bool

		for i := 0; i < 3; i++ {
			j, k := others(i)
			e[i] = agreementError(yl, predsL[j], predsL[k])
			if ePrev[i] <= e[i] {
				continue
			}

			rows, labels := t.agreedRows(predsU[j], predsU[k])
			LX[i] = make([][]float64, len(rows))
			for n, r := range rows {
				LX[i][n] = Xu[r]
			}
			Ly[i] = labels

			if lPrev[i] == 0 {
				lPrev[i] = math.Floor(safeDivision(e[i], ePrev[i]-e[i])) + 1
			}
			if lPrev[i] >= float64(len(LX[i])) {
				continue
			}
			if e[i]*float64(len(LX[i])) < ePrev[i]*lPrev[i] {
				updates[i] = true
			} else if lPrev[i] > safeDivision(e[i], ePrev[i]-e[i]) {
				s := int(math.Ceil(safeDivision(ePrev[i]*lPrev[i], e[i]) - 1))
				LX[i], Ly[i] = t.subsampleAgreed(rng, LX[i], Ly[i], rows, s)
				updates[i] = true
			}
		}

		if err := parallelMembers(3, func(m int) error {
			if !updates[m] {
				return nil
			}
			trainX := append(append([][]float64{}, Xl...), LX[m]...)
			trainY := append(append([]int{}, yl...), Ly[m]...)
			if ferr := t.members[m].Fit(trainX, trainY); ferr != nil {
				return &base.EstimatorFitError{Round: round, Member: m, Err: ferr}
			}
			return nil
		}); err != nil {
			return err
		}

		newly := 0
		for i := 0; i < 3; i++ {
			if updates[i] {
				ePrev[i] = e[i]
				lPrev[i] = float64(len(LX[i]))
				newly += len(LX[i])
				changed = true
			}
		}
		mon.observe(RoundStats{
			Round:         round,
			NewlyLabeled:  newly,
			LabeledSize:   len(Xl),
			UnlabeledSize: len(Xu),
			MemberErrors:  e[:],
		})
	}
	return nil
}

// agreedRows returns the unlabeled rows on which the two non-target
// members concur, with the agreed label, in ascending row order. When
// instance groups are set, every row of a group must receive the same
// agreed label or the whole group is disqualified.
func (t *TriTraining) agreedRows(predsJ, predsK []int) ([]int, []int) {
	if t.groups == nil {
		rows := make([]int, 0)
		labels := make([]int, 0)
		for n := range predsJ {
			if predsJ[n] == predsK[n] {
				rows = append(rows, n)
				labels = append(labels, predsJ[n])
			}
		}
		return rows, labels
	}

	groupLabel := make(map[int]int)
	rejected := make(map[int]bool)
	for n := range predsJ {
		g := t.groups[n]
		if rejected[g] {
			continue
		}
		if predsJ[n] != predsK[n] {
			rejected[g] = true
			continue
		}
		if prev, seen := groupLabel[g]; seen && prev != predsJ[n] {
			rejected[g] = true
			continue
		}
		groupLabel[g] = predsJ[n]
	}

	rows := make([]int, 0)
	labels := make([]int, 0)
	for n := range predsJ {
		g := t.groups[n]
		if rejected[g] {
			continue
		}
		rows = append(rows, n)
		labels = append(labels, groupLabel[g])
	}
	return rows, labels
}

// subsampleAgreed trims the agreed set to at most s instances. With groups
// set, whole groups are dropped so a group is never split.
func (t *TriTraining) subsampleAgreed(rng *rand.Rand, X [][]float64, y []int, rows []int, s int) ([][]float64, []int) {
	if t.groups == nil {
		return subsample(rng, X, y, s)
	}

	order := make([]int, 0)
	seen := make(map[int]bool)
	for _, r := range rows {
		g := t.groups[r]
		if !seen[g] {
			seen[g] = true
			order = append(order, g)
		}
	}
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	sizes := make(map[int]int)
	for _, r := range rows {
		sizes[t.groups[r]]++
	}
	keep := make(map[int]bool)
	total := 0
	for _, g := range order {
		if total+sizes[g] > s {
			continue
		}
		keep[g] = true
		total += sizes[g]
	}

	outX := make([][]float64, 0, total)
	outY := make([]int, 0, total)
	for n, r := range rows {
		if keep[t.groups[r]] {
			outX = append(outX, X[n])
			outY = append(outY, y[n])
		}
	}
	return outX, outY
}

func (t *TriTraining) Predict(X [][]float64) ([]int, error) {
	if t.members[0] == nil {
		return nil, errNotFitted
	}
	preds := make([][]int, 3)
	if err := parallelMembers(3, func(m int) error {
		p, err := t.members[m].Predict(X)
		if err != nil {
			return err
		}
		preds[m] = p
		return nil
	}); err != nil {
		return nil, err
	}
	return majorityVote(preds), nil
}

func (t *TriTraining) PredictProba(X [][]float64) ([][]float64, error) {
	if t.members[0] == nil {
		return nil, errNotFitted
	}
	return averageProba(t.members[:], X)
}

// Classes returns the class labels seen in the labeled input, ascending.
func (t *TriTraining) Classes() []int {
	return append([]int(nil), t.classes...)
}

// agreementError estimates a member's error as the fraction of labeled
// instances both other members classify identically yet wrongly, over all
// instances they classify identically.
func agreementError(y, predsJ, predsK []int) float64 {
	mistakes := 0
	agreements := 0
	for n := range y {
		if predsJ[n] != predsK[n] {
			continue
		}
		agreements++
		if predsJ[n] != y[n] {
			mistakes++
		}
	}
	return safeDivision(float64(mistakes), float64(agreements))
}

func others(i int) (int, int) {
	switch i {
	case 0:
		return 1, 2
	case 1:
		return 0, 2
	default:
		return 0, 1
	}
}

// classCoverage picks the first instance of every class.
func classCoverage(X [][]float64, y []int) ([][]float64, []int) {
	seen := make(map[int]bool)
	outX := make([][]float64, 0)
	outY := make([]int, 0)
	for i, label := range y {
		if !seen[label] {
			seen[label] = true
			outX = append(outX, X[i])
			outY = append(outY, label)
		}
	}
	return outX, outY
}
