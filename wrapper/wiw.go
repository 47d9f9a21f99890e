package wrapper

import (
	"github.com/aliciaolivaresgil/sslearn/base"
)

// WiWTriTraining is tri-training with which-is-which instance groups:
// label decisions apply per group, so every instance of a group must
// receive the identical agreed label from both non-target members before
// the group is admitted. Without groups it behaves exactly like
// TriTraining.
type WiWTriTraining struct {
	TriTraining

	// InstanceGroup aligns a group id with every unlabeled row passed to
	// Fit. Nil means each instance is its own singleton group.
	InstanceGroup []int
}

func NewWiWTriTraining(estimator base.Classifier, seed int64, instanceGroup []int) *WiWTriTraining {
	return &WiWTriTraining{
		TriTraining:   *NewTriTraining(estimator, seed),
		InstanceGroup: instanceGroup,
	}
}

func (w *WiWTriTraining) Fit(XL [][]float64, yL []int, XU [][]float64) error {
	if w.InstanceGroup != nil && len(w.InstanceGroup) != len(XU) {
		return &base.ConfigurationError{
			Param:  "instance_group",
			Reason: "must align with the unlabeled set",
		}
	}
	w.groups = w.InstanceGroup
	return w.TriTraining.Fit(XL, yL, XU)
}
