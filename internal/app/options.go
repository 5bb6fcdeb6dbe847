package service

import (
	"time"

	"github.com/okian/medtracker/internal/adapters/overpass"
	repository "github.com/okian/medtracker/internal/adapters/repository"
	"github.com/okian/medtracker/internal/config"
	"github.com/okian/medtracker/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig applies every setting the service reads from process config.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg == nil {
			return
		}
		s.knowledgeBasePath = cfg.KnowledgeBasePath
		s.topN = cfg.TopN
		s.historyLimit = cfg.HistoryLimit
		s.storeTimeout = cfg.StoreTimeout()
		s.storeConfig = repository.Config{
			Driver:         cfg.StoreDriver,
			DSN:            cfg.StoreDSN,
			PoolSize:       cfg.StorePoolSize,
			InitSchema:     cfg.StoreInitSchema,
			MemoryCapacity: cfg.MemoryStoreCapacity,
		}
		s.overpassOptions = []overpass.Option{
			overpass.WithURL(cfg.OverpassURL),
			overpass.WithTimeout(cfg.OverpassTimeout()),
			overpass.WithAmenities(cfg.OverpassAmenities),
			overpass.WithMaxResponseBytes(cfg.OverpassMaxResponseBytes),
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithKnowledgeBasePath loads conditions from a YAML file instead of the
// built-in table.
func WithKnowledgeBasePath(path string) Option {
	return func(s *Service) {
		s.knowledgeBasePath = path
	}
}

// WithTopN sets how many scored conditions a prediction returns.
func WithTopN(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topN = n
		}
	}
}

// WithHistoryLimit sets the default and maximum history page size.
func WithHistoryLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}

// WithStoreConfig selects the history store opened by Start.
func WithStoreConfig(cfg repository.Config) Option {
	return func(s *Service) {
		s.storeConfig = cfg
	}
}

// WithStore uses an already opened store instead of opening one on Start.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithStoreTimeout bounds each store call.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

// WithOverpassOptions configures the nearby search client.
func WithOverpassOptions(opts ...overpass.Option) Option {
	return func(s *Service) {
		s.overpassOptions = append(s.overpassOptions, opts...)
	}
}

// WithClock replaces time.Now, used to stamp history entries.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
