package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/okian/medtracker/internal/domain/model"
)

// HistoryDependencies defines the interface for history operations.
type HistoryDependencies interface {
	AppendHistory(ctx context.Context, entry model.HistoryEntry) error
	RecentHistory(ctx context.Context, limit int) ([]model.HistoryEntry, error)
}

// HistoryHandler handles history requests.
type HistoryHandler struct {
	deps           HistoryDependencies
	limit          int
	maxQueryLength int
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(deps HistoryDependencies, limit, maxQueryLength int) *HistoryHandler {
	return &HistoryHandler{deps: deps, limit: limit, maxQueryLength: maxQueryLength}
}

// Column widths of the history table, counted in characters.
const (
	maxWhenLength = 64
	maxTopLength  = 255
)

// historyRequest mirrors the OpenAPI schema for POST /api/history.
type historyRequest struct {
	Query string `json:"query"`
	When  string `json:"when"`
	Top   string `json:"top"`
}

func (h historyRequest) validate(maxQueryLength int) error {
	switch {
	case strings.TrimSpace(h.Query) == "":
		return errors.New("missing 'query'")
	case maxQueryLength > 0 && utf8.RuneCountInString(h.Query) > maxQueryLength:
		return fmt.Errorf("query longer than %d characters", maxQueryLength)
	case utf8.RuneCountInString(h.When) > maxWhenLength:
		return fmt.Errorf("when longer than %d characters", maxWhenLength)
	case utf8.RuneCountInString(h.Top) > maxTopLength:
		return fmt.Errorf("top longer than %d characters", maxTopLength)
	}
	return nil
}

type historyResponse struct {
	History []model.HistoryEntry `json:"history"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

// HandleHistory handles GET and POST /api/history requests.
func (h *HistoryHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.history"
	if !allowMethods(w, r, op, http.MethodGet, http.MethodPost) {
		return
	}
	if r.Method == http.MethodPost {
		h.handleAppend(w, r)
		return
	}
	h.handleList(w, r)
}

func (h *HistoryHandler) handleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_history"

	limit := h.limit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, WrapKind(op, ErrBadRequest, errors.New("limit must be a positive integer")))
			return
		}
		limit = min(n, h.limit)
	}

	entries, err := h.deps.RecentHistory(r.Context(), limit)
	if err != nil {
		writeError(w, WrapKind(op, ErrStore, err))
		return
	}
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, historyResponse{History: entries})
}

func (h *HistoryHandler) handleAppend(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_history"

	var req historyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(h.maxQueryLength); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	entry := model.HistoryEntry{Query: req.Query, When: req.When, Top: req.Top}
	if err := h.deps.AppendHistory(r.Context(), entry); err != nil {
		writeError(w, WrapKind(op, ErrStore, err))
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}
