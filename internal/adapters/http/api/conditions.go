package api

import (
	"context"
	"net/http"

	"github.com/okian/medtracker/internal/domain/model"
)

// ConditionsDependencies exposes the knowledge base.
type ConditionsDependencies interface {
	Conditions(ctx context.Context) []model.Condition
}

// ConditionsHandler handles knowledge base listing requests.
type ConditionsHandler struct {
	deps ConditionsDependencies
}

// NewConditionsHandler creates a new conditions handler.
func NewConditionsHandler(deps ConditionsDependencies) *ConditionsHandler {
	return &ConditionsHandler{deps: deps}
}

type conditionsResponse struct {
	Conditions []model.Condition `json:"conditions"`
}

// HandleConditions handles GET /api/conditions requests.
func (h *ConditionsHandler) HandleConditions(w http.ResponseWriter, r *http.Request) {
	const op = "api.conditions"
	if !allowMethods(w, r, op, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, conditionsResponse{Conditions: h.deps.Conditions(r.Context())})
}
