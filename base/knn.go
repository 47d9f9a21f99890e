package base

import (
	"errors"
	"math"
	"sort"
)

// KNN is a k-nearest-neighbours classifier. It deliberately has no seed
// hyperparameter: it exercises the wrappers' handling of estimators
// without one.
type KNN struct {
	K int

	trainX [][]float64
	trainY []int

	classes []int
}

func NewKNN(k int) *KNN {
	if k <= 0 {
		k = 3
	}
	return &KNN{K: k}
}

func (knn *KNN) Clone() Classifier {
	return &KNN{K: knn.K}
}

func (knn *KNN) Fit(X [][]float64, y []int) error {
	if len(X) == 0 || len(y) == 0 {
		return errors.New("features or labels empty")
	}
	if len(X) != len(y) {
		return errors.New("features and labels size mismatch")
	}
	knn.trainX = X
	knn.trainY = y
	knn.classes = uniqueSorted(y)
	return nil
}

func (knn *KNN) Predict(X [][]float64) ([]int, error) {
	probs, err := knn.PredictProba(X)
	if err != nil {
		return nil, err
	}
	labels := make([]int, len(X))
	for i, row := range probs {
		best := 0
		for j := 1; j < len(row); j++ {
			if row[j] > row[best] {
				best = j
			}
		}
		labels[i] = knn.classes[best]
	}
	return labels, nil
}

// PredictProba returns neighbour vote fractions, columns ordered by the
// ascending class labels seen during Fit.
func (knn *KNN) PredictProba(X [][]float64) ([][]float64, error) {
	if len(knn.trainX) == 0 {
		return nil, errors.New("model not trained")
	}
	index := make(map[int]int, len(knn.classes))
	for i, c := range knn.classes {
		index[c] = i
	}

	k := knn.K
	if k > len(knn.trainX) {
		k = len(knn.trainX)
	}

	probs := make([][]float64, len(X))
	for i, row := range X {
		neighbours := knn.nearest(row, k)
		counts := make([]float64, len(knn.classes))
		for _, n := range neighbours {
			counts[index[knn.trainY[n]]]++
		}
		for j := range counts {
			counts[j] /= float64(k)
		}
		probs[i] = counts
	}
	return probs, nil
}

func (knn *KNN) Classes() []int {
	return append([]int(nil), knn.classes...)
}

type neighbourDist struct {
	idx  int
	dist float64
}

func (knn *KNN) nearest(row []float64, k int) []int {
	dists := make([]neighbourDist, len(knn.trainX))
	for i, train := range knn.trainX {
		dists[i] = neighbourDist{idx: i, dist: euclidean(row, train)}
	}
	// Stable order keeps equal-distance neighbours deterministic.
	sort.SliceStable(dists, func(a, b int) bool {
		if dists[a].dist != dists[b].dist {
			return dists[a].dist < dists[b].dist
		}
		return dists[a].idx < dists[b].idx
	})
	out := make([]int, k)
	for i := 0; i < k; i++ {
		out[i] = dists[i].idx
	}
	return out
}

func euclidean(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
