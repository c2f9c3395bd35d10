package service

import (
	"github.com/okian/athletix/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of ingestion workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the ingestion queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the idempotency-key cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxQueryResults caps the markers returned by Markers.
func WithMaxQueryResults(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxQueryResults = n
		}
	}
}

// WithReadinessWeights overrides the readiness field weights.
func WithReadinessWeights(weights map[string]float64) Option {
	return func(s *Service) {
		s.readinessWeights = weights
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
