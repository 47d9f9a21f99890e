package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/aliciaolivaresgil/sslearn/base"
	"github.com/aliciaolivaresgil/sslearn/db"
	"github.com/aliciaolivaresgil/sslearn/multiclass"
	"github.com/aliciaolivaresgil/sslearn/wrapper"
)

const modelCacheSize = 16

// API serves training and prediction requests. Fitted models stay in an
// LRU cache keyed by run id; evicted models must be retrained.
type API struct {
	log    *zap.Logger
	hub    *Hub
	models *lru.Cache[int64, wrapper.Model]

	maxTreeDepth int
}

func NewAPI(log *zap.Logger, hub *Hub, maxTreeDepth int) (*API, error) {
	if log == nil {
		log = zap.NewNop()
	}
	models, err := lru.New[int64, wrapper.Model](modelCacheSize)
	if err != nil {
		return nil, err
	}
	if maxTreeDepth <= 0 {
		maxTreeDepth = 5
	}
	return &API{log: log, hub: hub, models: models, maxTreeDepth: maxTreeDepth}, nil
}

func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/ssl/train", a.handleTrain)
	mux.HandleFunc("/api/ssl/predict", a.handlePredict)
	mux.HandleFunc("/api/ssl/runs", a.handleRuns)
	mux.HandleFunc("/api/ssl/rounds", a.handleRounds)
	mux.HandleFunc("/api/ws/training", a.hub.HandleWebSocket)
}

type trainRequest struct {
	Algorithm     string      `json:"algorithm"`
	XLabeled      [][]float64 `json:"x_labeled"`
	YLabeled      []int       `json:"y_labeled"`
	XUnlabeled    [][]float64 `json:"x_unlabeled"`
	Seed          int64       `json:"seed"`
	MaxIterations int         `json:"max_iterations"`
	Threshold     float64     `json:"threshold"`
	InstanceGroup []int       `json:"instance_group"`
	Dataset       string      `json:"dataset"`
}

func (a *API) handleTrain(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req trainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	runID, err := db.CreateRun(req.Algorithm, req.Dataset, req.Seed, req.MaxIterations)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	model, err := a.buildModel(req, runID)
	if err != nil {
		_ = db.FinishRun(runID, 0, 0, "failed: "+err.Error())
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	go func() {
		rounds := 0
		if err := model.Fit(req.XLabeled, req.YLabeled, req.XUnlabeled); err != nil {
			a.log.Error("training failed", zap.Int64("run_id", runID), zap.Error(err))
			_ = db.FinishRun(runID, rounds, 0, "failed: "+err.Error())
			return
		}
		accuracy := resubstitutionAccuracy(model, req.XLabeled, req.YLabeled)
		a.models.Add(runID, model)
		if stats, err := db.QueryRounds(runID); err == nil {
			rounds = len(stats)
		}
		_ = db.FinishRun(runID, rounds, accuracy, "done")
		a.log.Info("training finished",
			zap.Int64("run_id", runID),
			zap.String("algorithm", req.Algorithm),
			zap.Float64("accuracy", accuracy))
	}()

	writeJSON(w, http.StatusAccepted, map[string]interface{}{"run_id": runID})
}

// buildModel maps an algorithm name to a configured orchestrator. The
// built-in decision tree is the base estimator for API-driven runs.
func (a *API) buildModel(req trainRequest, runID int64) (wrapper.Model, error) {
	estimator := base.NewDecisionTree(a.maxTreeDepth)
	onRound := func(stats wrapper.RoundStats) {
		if err := db.SaveRound(runID, stats); err != nil {
			a.log.Warn("round log failed", zap.Int64("run_id", runID), zap.Error(err))
		}
		a.hub.BroadcastRound(runID, stats)
	}

	switch req.Algorithm {
	case "selftraining":
		m := wrapper.NewSelfTraining(estimator, req.Seed)
		if req.MaxIterations > 0 {
			m.MaxIterations = req.MaxIterations
		}
		m.Logger = a.log
		m.OnRound = onRound
		return m, nil
	case "cotraining":
		m := wrapper.NewCoTraining(estimator, req.Seed)
		if req.MaxIterations > 0 {
			m.MaxIterations = req.MaxIterations
		}
		if req.Threshold > 0 {
			m.Threshold = req.Threshold
		}
		m.Logger = a.log
		m.OnRound = onRound
		return m, nil
	case "tritraining":
		m := wrapper.NewTriTraining(estimator, req.Seed)
		if req.MaxIterations > 0 {
			m.MaxIterations = req.MaxIterations
		}
		m.Logger = a.log
		m.OnRound = onRound
		return m, nil
	case "wiwtritraining":
		m := wrapper.NewWiWTriTraining(estimator, req.Seed, req.InstanceGroup)
		if req.MaxIterations > 0 {
			m.MaxIterations = req.MaxIterations
		}
		m.Logger = a.log
		m.OnRound = onRound
		return m, nil
	case "committee":
		m := wrapper.NewCoTrainingByCommittee(estimator, req.Seed)
		if req.MaxIterations > 0 {
			m.MaxIterations = req.MaxIterations
		}
		m.Logger = a.log
		m.OnRound = onRound
		return m, nil
	case "onevsrest":
		return multiclass.NewOneVsRest(func(seed int64) wrapper.Model {
			sub := wrapper.NewTriTraining(base.NewDecisionTree(a.maxTreeDepth), seed)
			if req.MaxIterations > 0 {
				sub.MaxIterations = req.MaxIterations
			}
			sub.Logger = a.log
			return sub
		}, req.Seed), nil
	default:
		return nil, fmt.Errorf("unknown algorithm %q", req.Algorithm)
	}
}

type predictRequest struct {
	RunID    int64       `json:"run_id"`
	Features [][]float64 `json:"features"`
	Proba    bool        `json:"proba"`
}

func (a *API) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	model, ok := a.models.Get(req.RunID)
	if !ok {
		writeError(w, http.StatusNotFound, "no fitted model for run")
		return
	}

	if req.Proba {
		probs, err := model.PredictProba(req.Features)
		if err != nil {
			var capErr *base.CapabilityUnavailableError
			if errors.As(err, &capErr) {
				writeError(w, http.StatusConflict, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"probabilities": probs})
		return
	}

	labels, err := model.Predict(req.Features)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"labels": labels})
}

func (a *API) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	runs, err := db.QueryRuns(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

func (a *API) handleRounds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	runID, err := strconv.ParseInt(r.URL.Query().Get("run_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "run_id required")
		return
	}
	stats, err := db.QueryRounds(runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rounds": stats})
}

func resubstitutionAccuracy(model wrapper.Model, X [][]float64, y []int) float64 {
	if len(X) == 0 {
		return 0
	}
	preds, err := model.Predict(X)
	if err != nil {
		return 0
	}
	correct := 0
	for i, p := range preds {
		if p == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(y))
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
