package base

import (
	"errors"
	"fmt"
)

// ErrEmptySelection signals that no unlabeled instance satisfied the
// selection policy in a round. It is a control signal consumed by the
// wrappers to terminate, never surfaced to callers as a failure.
var ErrEmptySelection = errors.New("no instances satisfied the selection policy")

// ConfigurationError reports an invalid hyperparameter at construction time.
type ConfigurationError struct {
	Param  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Reason)
}

// EstimatorFitError wraps a base estimator failure. Round is -1 for the
// initial fit, otherwise the round index at which the failure occurred.
type EstimatorFitError struct {
	Round  int
	Member int
	Err    error
}

func (e *EstimatorFitError) Error() string {
	if e.Round < 0 {
		return fmt.Sprintf("estimator fit failed (member %d, initial fit): %v", e.Member, e.Err)
	}
	return fmt.Sprintf("estimator fit failed (member %d, round %d): %v", e.Member, e.Round, e.Err)
}

func (e *EstimatorFitError) Unwrap() error { return e.Err }

// CapabilityUnavailableError is returned when the caller requests an
// operation that no retained member supports.
type CapabilityUnavailableError struct {
	Capability string
}

func (e *CapabilityUnavailableError) Error() string {
	return fmt.Sprintf("capability %s not supported by the retained estimators", e.Capability)
}
