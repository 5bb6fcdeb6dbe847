// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/medtracker/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	PredictDependencies
	ConditionsDependencies
	HistoryDependencies
	NearbyDependencies
}

// Limits bounds request payloads.
type Limits struct {
	MaxSymptoms         int
	HistoryLimit        int
	MaxQueryLength      int
	DefaultRadiusMeters int
	MaxRadiusMeters     int
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MaxSymptoms:         100,
		HistoryLimit:        50,
		MaxQueryLength:      512,
		DefaultRadiusMeters: 5000,
		MaxRadiusMeters:     50_000,
	}
}

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLimits overrides the request limits.
func WithLimits(l Limits) Option {
	return func(s *Server) {
		s.limits = l
	}
}

// WithLogger sets the logger used by request logging and handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSlowRequestThreshold marks requests slower than d for WARN logging.
func WithSlowRequestThreshold(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.slowRequest = d
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	limits      Limits
	logger      logger.Logger
	slowRequest time.Duration

	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	predictHandler    *PredictHandler
	historyHandler    *HistoryHandler
	nearbyHandler     *NearbyHandler
	conditionsHandler *ConditionsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		limits:      DefaultLimits(),
		slowRequest: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("api")
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.predictHandler = NewPredictHandler(deps, s.limits.MaxSymptoms)
	s.historyHandler = NewHistoryHandler(deps, s.limits.HistoryLimit, s.limits.MaxQueryLength)
	s.nearbyHandler = NewNearbyHandler(deps, s.limits.DefaultRadiusMeters, s.limits.MaxRadiusMeters)
	s.conditionsHandler = NewConditionsHandler(deps)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/predict", MetricsMiddleware(s.predictHandler.HandlePredict, "predict"))
	mux.HandleFunc("/api/history", MetricsMiddleware(s.historyHandler.HandleHistory, "history"))
	mux.HandleFunc("/api/nearby", MetricsMiddleware(s.nearbyHandler.HandleNearby, "nearby"))
	mux.HandleFunc("/api/conditions", MetricsMiddleware(s.conditionsHandler.HandleConditions, "conditions"))
	mux.HandleFunc("/api/", MetricsMiddleware(handleNotFound, "not_found"))
}

// Handler wraps h with request id, logging and CORS middleware.
func (s *Server) Handler(h http.Handler, allowedOrigins []string) http.Handler {
	return Chain(h,
		CORSMiddleware(allowedOrigins),
		RequestIDMiddleware,
		LoggingMiddleware(s.logger, s.slowRequest),
	)
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	const op = "api.not_found"
	writeError(w, NewKind(op, ErrNotFound))
}

// allowMethods writes a 405 and returns false unless r uses one of methods.
func allowMethods(w http.ResponseWriter, r *http.Request, op string, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	writeError(w, NewKind(op, ErrMethodNotAllowed))
	return false
}

// decodeJSON reads a single JSON object from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes err as an errorResponse with the status its kind maps to.
func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeErrorDetail writes a fixed message and puts err in the detail field.
func writeErrorDetail(w http.ResponseWriter, err error, message string) {
	status, code := classify(err)
	writeJSON(w, status, errorResponse{Code: code, Message: message, Detail: err.Error()})
}
