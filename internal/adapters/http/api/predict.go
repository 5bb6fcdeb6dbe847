package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/medtracker/internal/domain/model"
)

// PredictDependencies defines the interface for symptom scoring.
type PredictDependencies interface {
	Predict(ctx context.Context, items []any) model.Prediction
}

// PredictHandler handles prediction requests.
type PredictHandler struct {
	deps        PredictDependencies
	maxSymptoms int
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps PredictDependencies, maxSymptoms int) *PredictHandler {
	return &PredictHandler{deps: deps, maxSymptoms: maxSymptoms}
}

// predictRequest mirrors the OpenAPI schema for POST /api/predict.
// Items stay untyped so non-string entries can be dropped, not rejected.
type predictRequest struct {
	Symptoms *[]any `json:"symptoms"`
}

var errPredictUsage = errors.New(`provide JSON: {"symptoms": ["fever","cough"]}`)

// HandlePredict handles POST /api/predict requests.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	if !allowMethods(w, r, op, http.MethodPost) {
		return
	}

	var req predictRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, fmt.Errorf("%w: %w", errPredictUsage, err)))
		return
	}
	if req.Symptoms == nil || len(*req.Symptoms) == 0 {
		writeError(w, WrapKind(op, ErrBadRequest, errPredictUsage))
		return
	}
	if h.maxSymptoms > 0 && len(*req.Symptoms) > h.maxSymptoms {
		writeError(w, WrapKind(op, ErrBadRequest, fmt.Errorf("too many symptoms: %d (max %d)", len(*req.Symptoms), h.maxSymptoms)))
		return
	}

	writeJSON(w, http.StatusOK, h.deps.Predict(r.Context(), *req.Symptoms))
}
