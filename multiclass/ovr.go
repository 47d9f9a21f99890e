// Package multiclass decomposes multi-class problems into independent
// binary semi-supervised orchestrations.
package multiclass

import (
	"errors"
	"math/rand"

	"github.com/aliciaolivaresgil/sslearn/base"
	"github.com/aliciaolivaresgil/sslearn/dataset"
	"github.com/aliciaolivaresgil/sslearn/wrapper"
)

// OneVsRest trains one binary sub-orchestration per class and predicts the
// class whose sub-orchestration reports the highest positive confidence.
// Ties resolve to the lowest class label.
type OneVsRest struct {
	// New builds one binary sub-model; it is called once per class with a
	// deterministic per-class seed.
	New  func(seed int64) wrapper.Model
	Seed int64

	encoder dataset.LabelEncoder
	models  []wrapper.Model
}

func NewOneVsRest(newModel func(seed int64) wrapper.Model, seed int64) *OneVsRest {
	return &OneVsRest{New: newModel, Seed: seed}
}

func (o *OneVsRest) Fit(XL [][]float64, yL []int, XU [][]float64) error {
	if o.New == nil {
		return &base.ConfigurationError{Param: "new", Reason: "sub-model factory must not be nil"}
	}
	o.encoder.FitLabels(yL)
	classes := o.encoder.Classes()
	if len(classes) < 2 {
		return errors.New("one-vs-rest needs at least two classes")
	}

	rng := rand.New(rand.NewSource(o.Seed))
	o.models = make([]wrapper.Model, 0, len(classes))
	for _, class := range classes {
		binY := make([]int, len(yL))
		for i, label := range yL {
			if label == class {
				binY[i] = 1
			}
		}
		model := o.New(rng.Int63())
		if err := model.Fit(XL, binY, XU); err != nil {
			return err
		}
		o.models = append(o.models, model)
	}
	return nil
}

// confidences collects each sub-model's positive-class confidence, falling
// back to hard 0/1 predictions for sub-models without probabilistic output.
func (o *OneVsRest) confidences(X [][]float64, hardFallback bool) ([][]float64, error) {
	classes := o.encoder.Classes()
	conf := make([][]float64, len(X))
	for i := range conf {
		conf[i] = make([]float64, len(classes))
	}
	for c, model := range o.models {
		probs, err := model.PredictProba(X)
		if err == nil {
			for i := range probs {
				conf[i][c] = probs[i][1]
			}
			continue
		}
		var capErr *base.CapabilityUnavailableError
		if !errors.As(err, &capErr) || !hardFallback {
			return nil, err
		}
		preds, err := model.Predict(X)
		if err != nil {
			return nil, err
		}
		for i, p := range preds {
			conf[i][c] = float64(p)
		}
	}
	return conf, nil
}

func (o *OneVsRest) Predict(X [][]float64) ([]int, error) {
	if o.models == nil {
		return nil, errors.New("classifier not fitted")
	}
	conf, err := o.confidences(X, true)
	if err != nil {
		return nil, err
	}
	codes := make([]int, len(X))
	for i, row := range conf {
		best := 0
		for c := 1; c < len(row); c++ {
			if row[c] > row[best] {
				best = c
			}
		}
		codes[i] = best
	}
	return o.encoder.Decode(codes)
}

// PredictProba normalizes the per-class positive confidences into a
// row-stochastic matrix. Every sub-model must support probabilistic output.
func (o *OneVsRest) PredictProba(X [][]float64) ([][]float64, error) {
	if o.models == nil {
		return nil, errors.New("classifier not fitted")
	}
	conf, err := o.confidences(X, false)
	if err != nil {
		return nil, err
	}
	for i := range conf {
		sum := 0.0
		for _, v := range conf[i] {
			sum += v
		}
		if sum == 0 {
			for j := range conf[i] {
				conf[i][j] = 1 / float64(len(conf[i]))
			}
			continue
		}
		for j := range conf[i] {
			conf[i][j] /= sum
		}
	}
	return conf, nil
}

// Classes returns the original class labels, ascending.
func (o *OneVsRest) Classes() []int {
	return o.encoder.Classes()
}
