// Package base defines the estimator capability contract consumed by the
// semi-supervised wrappers, plus two self-contained estimators.
package base

// Classifier is the minimal capability every base estimator must provide.
type Classifier interface {
	Fit(X [][]float64, y []int) error
	Predict(X [][]float64) ([]int, error)
}

// ProbabilisticClassifier is an optional capability. Estimators without it
// force the wrappers onto hard-agreement selection policies.
type ProbabilisticClassifier interface {
	// PredictProba returns one row per instance; each row sums to 1 and is
	// indexed by the class labels seen during Fit, ascending.
	PredictProba(X [][]float64) ([][]float64, error)
}

// Seedable is an optional capability. An estimator without a seed
// hyperparameter is a valid configuration, not an error.
type Seedable interface {
	SetSeed(seed int64)
}

// Cloner produces an unfitted copy carrying the same hyperparameters.
type Cloner interface {
	Clone() Classifier
}

// CloneSeeded clones the estimator and, when the clone exposes a seed
// hyperparameter, sets it. Estimators that are not Cloners are returned
// as-is, which only makes sense for single-member wrappers.
func CloneSeeded(c Classifier, seed int64) Classifier {
	cloned := c
	if cl, ok := c.(Cloner); ok {
		cloned = cl.Clone()
	}
	if s, ok := cloned.(Seedable); ok {
		s.SetSeed(seed)
	}
	return cloned
}

// HasProba reports whether the estimator supports probabilistic output.
func HasProba(c Classifier) bool {
	_, ok := c.(ProbabilisticClassifier)
	return ok
}
