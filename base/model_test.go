package base

import (
	"errors"
	"testing"
)

func TestCloneSeededSetsSeed(t *testing.T) {
	tree := NewDecisionTree(3)
	clone := CloneSeeded(tree, 99)
	if clone == Classifier(tree) {
		t.Fatalf("expected a fresh clone")
	}
	if clone.(*DecisionTree).seed != 99 {
		t.Fatalf("expected seed 99, got %d", clone.(*DecisionTree).seed)
	}
}

func TestCloneSeededWithoutSeedHyperparameter(t *testing.T) {
	// An estimator without a seed hyperparameter is a valid configuration;
	// cloning must not fail or panic.
	knn := NewKNN(3)
	clone := CloneSeeded(knn, 99)
	if clone.(*KNN).K != 3 {
		t.Fatalf("clone lost hyperparameters")
	}
}

func TestEstimatorFitErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &EstimatorFitError{Round: 3, Member: 1, Err: cause}
	if !errors.Is(err, cause) {
		t.Fatalf("expected unwrap to reach the cause")
	}

	var fitErr *EstimatorFitError
	if !errors.As(error(err), &fitErr) || fitErr.Round != 3 {
		t.Fatalf("expected round 3 to survive errors.As")
	}
}

func TestEmptySelectionIsSentinel(t *testing.T) {
	if !errors.Is(ErrEmptySelection, ErrEmptySelection) {
		t.Fatalf("sentinel must compare equal to itself")
	}
}
