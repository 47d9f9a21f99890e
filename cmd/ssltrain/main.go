// ssltrain trains a semi-supervised wrapper on a CSV or KEEL dataset and
// reports how the labeled pool grew round by round.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/aliciaolivaresgil/sslearn/base"
	"github.com/aliciaolivaresgil/sslearn/dataset"
	"github.com/aliciaolivaresgil/sslearn/multiclass"
	"github.com/aliciaolivaresgil/sslearn/wrapper"
)

func main() {
	dataPath := flag.String("data", "", "path to the training dataset (.csv or .dat)")
	algorithm := flag.String("algorithm", "tritraining", "selftraining | cotraining | committee | tritraining | wiwtritraining | onevsrest")
	seed := flag.Int64("seed", 42, "random seed")
	maxIterations := flag.Int("max-iterations", 0, "round budget (0 keeps the algorithm default)")
	threshold := flag.Float64("threshold", 0.5, "co-training confidence threshold")
	maxDepth := flag.Int("max-depth", 5, "decision tree depth")
	knn := flag.Int("knn", 0, "use a k-NN base estimator with this k instead of a tree")
	groupsArg := flag.String("groups", "", "comma separated instance group ids for wiwtritraining")
	latin1 := flag.Bool("latin1", false, "decode the dataset as ISO 8859-1")
	flag.Parse()

	if *dataPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	X, y, err := loadDataset(*dataPath, *latin1)
	if err != nil {
		log.Fatalf("Failed to load dataset: %v", err)
	}
	XL, yL, XU := dataset.SplitLabeled(X, y)
	fmt.Printf("Loaded %d instances (%d labeled, %d unlabeled)\n", len(X), len(XL), len(XU))

	model, err := buildModel(*algorithm, *seed, *maxIterations, *threshold, *maxDepth, *knn, *groupsArg)
	if err != nil {
		log.Fatalf("Failed to configure model: %v", err)
	}

	if err := model.Fit(XL, yL, XU); err != nil {
		log.Fatalf("Training failed: %v", err)
	}

	preds, err := model.Predict(XL)
	if err != nil {
		log.Fatalf("Prediction failed: %v", err)
	}
	correct := 0
	for i, p := range preds {
		if p == yL[i] {
			correct++
		}
	}
	fmt.Printf("Training accuracy on labeled data: %.4f\n", float64(correct)/float64(len(yL)))
}

func loadDataset(path string, latin1 bool) ([][]float64, []int, error) {
	opts := dataset.DefaultLoadOptions()
	opts.Latin1 = latin1
	if strings.HasSuffix(path, ".dat") {
		return dataset.ReadKEEL(path, opts)
	}
	opts.Header = true
	return dataset.ReadCSV(path, opts)
}

func buildModel(algorithm string, seed int64, maxIterations int, threshold float64, maxDepth, knn int, groupsArg string) (wrapper.Model, error) {
	var estimator base.Classifier
	if knn > 0 {
		estimator = base.NewKNN(knn)
	} else {
		estimator = base.NewDecisionTree(maxDepth)
	}

	onRound := func(stats wrapper.RoundStats) {
		fmt.Printf("round %d: +%d labeled (%d labeled, %d unlabeled left)\n",
			stats.Round, stats.NewlyLabeled, stats.LabeledSize, stats.UnlabeledSize)
	}

	switch algorithm {
	case "selftraining":
		m := wrapper.NewSelfTraining(estimator, seed)
		if maxIterations > 0 {
			m.MaxIterations = maxIterations
		}
		m.OnRound = onRound
		return m, nil
	case "cotraining":
		m := wrapper.NewCoTraining(estimator, seed)
		if maxIterations > 0 {
			m.MaxIterations = maxIterations
		}
		m.Threshold = threshold
		m.OnRound = onRound
		return m, nil
	case "committee":
		m := wrapper.NewCoTrainingByCommittee(estimator, seed)
		if maxIterations > 0 {
			m.MaxIterations = maxIterations
		}
		m.OnRound = onRound
		return m, nil
	case "tritraining":
		m := wrapper.NewTriTraining(estimator, seed)
		if maxIterations > 0 {
			m.MaxIterations = maxIterations
		}
		m.OnRound = onRound
		return m, nil
	case "wiwtritraining":
		groups, err := parseGroups(groupsArg)
		if err != nil {
			return nil, err
		}
		m := wrapper.NewWiWTriTraining(estimator, seed, groups)
		if maxIterations > 0 {
			m.MaxIterations = maxIterations
		}
		m.OnRound = onRound
		return m, nil
	case "onevsrest":
		return multiclass.NewOneVsRest(func(subSeed int64) wrapper.Model {
			sub := wrapper.NewTriTraining(base.NewDecisionTree(maxDepth), subSeed)
			if maxIterations > 0 {
				sub.MaxIterations = maxIterations
			}
			return sub
		}, seed), nil
	default:
		return nil, fmt.Errorf("unknown algorithm %q", algorithm)
	}
}

func parseGroups(arg string) ([]int, error) {
	if arg == "" {
		return nil, fmt.Errorf("wiwtritraining requires -groups")
	}
	parts := strings.Split(arg, ",")
	groups := make([]int, len(parts))
	for i, part := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("bad group id %q: %w", part, err)
		}
		groups[i] = id
	}
	return groups, nil
}
