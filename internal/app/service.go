// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/okian/medtracker/internal/adapters/overpass"
	repository "github.com/okian/medtracker/internal/adapters/repository"
	"github.com/okian/medtracker/internal/domain/knowledge"
	"github.com/okian/medtracker/internal/domain/model"
	"github.com/okian/medtracker/internal/domain/scoring"
	"github.com/okian/medtracker/pkg/logger"
	"github.com/okian/medtracker/pkg/metrics"
)

// HistoryTimeLayout formats the default "when" of a history entry.
const HistoryTimeLayout = "2006-01-02 15:04:05"

// Default configuration values.
const (
	defaultHistoryLimit = 50
	defaultStoreTimeout = 5 * time.Second
)

// Service implements the API dependencies for the symptom tracker.
type Service struct {
	mu sync.RWMutex

	// Core components
	kb        *knowledge.Base
	scorer    *scoring.Scorer
	store     repository.Store
	nearby    *overpass.Client
	ownsStore bool

	// Configuration
	knowledgeBasePath string
	topN              int
	historyLimit      int
	storeTimeout      time.Duration
	storeConfig       repository.Config
	overpassOptions   []overpass.Option
	now               func() time.Time

	// State
	started bool

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		topN:         scoring.DefaultLimit,
		historyLimit: defaultHistoryLimit,
		storeTimeout: defaultStoreTimeout,
		storeConfig:  repository.Config{Driver: repository.DriverMemory},
		now:          time.Now,
		logger:       nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start loads the knowledge base and opens the store and upstream client.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting medtracker service...")

	kb, err := knowledge.Load(s.knowledgeBasePath)
	if err != nil {
		return fmt.Errorf("load knowledge base: %w", err)
	}
	s.kb = kb
	s.scorer = scoring.NewScorer(kb.Conditions(), scoring.WithLimit(s.topN))
	metrics.UpdateKnowledgeBaseConditions(kb.Len())

	if s.store == nil {
		store, err := repository.Open(ctx, s.storeConfig)
		if err != nil {
			return fmt.Errorf("open history store: %w", err)
		}
		s.store = store
		s.ownsStore = true
		s.logger.Info(ctx, "history store opened", logger.String("driver", s.storeConfig.Driver))
	}

	s.nearby = overpass.NewClient(s.overpassOptions...)

	s.started = true
	s.logger.Info(ctx, "medtracker service started",
		logger.Int("conditions", kb.Len()),
		logger.Int("topN", s.scorer.Limit()),
		logger.Int("historyLimit", s.historyLimit),
		logger.String("overpassURL", s.nearby.URL()),
	)

	return nil
}

// Stop closes the history store if the service opened it. It waits for
// in-flight history calls; later history calls fail with ErrNotStarted. Callers
// should drain HTTP traffic first, e.g. with http.Server.Shutdown.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping medtracker service...")

	if s.ownsStore && s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error(context.Background(), "failed to close history store", logger.Error(err))
		}
		s.store = nil
		s.ownsStore = false
	}

	s.started = false
	s.logger.Info(context.Background(), "medtracker service stopped")
}

// Predict normalizes raw symptom items and ranks conditions against them.
// Before Start the input is still normalized but nothing is scored.
func (s *Service) Predict(ctx context.Context, items []any) model.Prediction {
	s.mu.RLock()
	scorer := s.scorer
	s.mu.RUnlock()
	if scorer == nil {
		return model.Prediction{Input: scoring.Normalize(items), Scored: []model.ScoredCondition{}}
	}

	start := time.Now()
	p := scorer.Predict(items)

	var top float64
	if len(p.Scored) > 0 {
		top = p.Scored[0].Score
	}
	metrics.RecordPrediction(float64(time.Since(start).Microseconds())/1000, len(p.Input), top)

	s.logger.Debug(ctx, "prediction computed",
		logger.Strings("input", p.Input),
		logger.Float64("topScore", top),
	)
	return p
}

// Conditions returns the loaded knowledge base.
func (s *Service) Conditions(_ context.Context) []model.Condition {
	s.mu.RLock()
	kb := s.kb
	s.mu.RUnlock()
	if kb == nil {
		return []model.Condition{}
	}
	return kb.Conditions()
}

// HistoryLimit returns the default and maximum history page size.
func (s *Service) HistoryLimit() int { return s.historyLimit }

// AppendHistory stores entry. An empty When is stamped with the current UTC
// time; Top is stored as given ("" when absent).
func (s *Service) AppendHistory(ctx context.Context, entry model.HistoryEntry) error {
	if strings.TrimSpace(entry.When) == "" {
		entry.When = s.now().UTC().Format(HistoryTimeLayout)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	start := time.Now()
	err := s.store.AppendHistory(ctx, entry)
	elapsedMs := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		metrics.RecordHistoryError("append", elapsedMs)
		s.logger.Error(ctx, "history append failed", logger.String("query", entry.Query), logger.Error(err))
		return err
	}
	metrics.RecordHistoryAppend(elapsedMs)
	return nil
}

// RecentHistory returns up to limit entries, newest first. Non-positive or
// oversized limits are clamped to the configured history limit.
func (s *Service) RecentHistory(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	if limit < 1 || limit > s.historyLimit {
		limit = s.historyLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	start := time.Now()
	entries, err := s.store.FetchRecentHistory(ctx, limit)
	elapsedMs := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		metrics.RecordHistoryError("fetch", elapsedMs)
		s.logger.Error(ctx, "history fetch failed", logger.Int("limit", limit), logger.Error(err))
		return nil, err
	}
	metrics.RecordHistoryFetch(elapsedMs)
	return entries, nil
}

// Nearby asks Overpass for medical facilities around a point and returns
// its response unchanged.
func (s *Service) Nearby(ctx context.Context, lat, lon float64, radiusMeters int) (overpass.Response, error) {
	s.mu.RLock()
	client := s.nearby
	s.mu.RUnlock()
	if client == nil {
		return overpass.Response{}, ErrNotStarted
	}

	start := time.Now()
	resp, err := client.QueryNearby(ctx, lat, lon, radiusMeters)
	elapsedMs := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		metrics.RecordNearbyUpstreamError(elapsedMs)
		s.logger.Warn(ctx, "overpass request failed",
			logger.Float64("lat", lat),
			logger.Float64("lon", lon),
			logger.Int("radiusMeters", radiusMeters),
			logger.Error(err),
		)
		return overpass.Response{}, err
	}
	metrics.RecordNearbyRelay(strconv.Itoa(resp.StatusCode), elapsedMs)
	return resp, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":      s.started,
		"storeDriver":  s.storeConfig.Driver,
		"topN":         s.topN,
		"historyLimit": s.historyLimit,
	}

	if s.started {
		stats["conditions"] = s.kb.Len()
		if mem, ok := s.store.(*repository.MemoryStore); ok {
			stats["historyEntries"] = mem.Len()
		}
	}

	return stats
}
