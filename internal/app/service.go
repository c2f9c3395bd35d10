// Package service wires the reconciliation engine to its storage and
// ingestion pipeline and exposes the operations used by the HTTP API.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	ingestqueue "github.com/okian/athletix/internal/adapters/mq/queue"
	workerpool "github.com/okian/athletix/internal/adapters/mq/worker"
	"github.com/okian/athletix/internal/adapters/repository"
	"github.com/okian/athletix/internal/domain/cohort"
	"github.com/okian/athletix/internal/domain/dedupe"
	"github.com/okian/athletix/internal/domain/fields"
	"github.com/okian/athletix/internal/domain/interpret"
	"github.com/okian/athletix/internal/domain/model"
	"github.com/okian/athletix/internal/domain/normalize"
	"github.com/okian/athletix/internal/domain/query"
	"github.com/okian/athletix/internal/domain/reference"
	"github.com/okian/athletix/internal/domain/scoring"
	"github.com/okian/athletix/pkg/logger"
	"github.com/okian/athletix/pkg/metrics"
)

const (
	defaultQueueSize       = 10_000
	defaultDedupeSize      = 50_000
	defaultMaxQueryResults = 500
	defaultDrainTimeout    = 10 * time.Second
)

// Submission acknowledges an ingestion request.
type Submission struct {
	ID        string             `json:"id"`
	AthleteID string             `json:"athleteId"`
	Kind      model.DocumentKind `json:"kind"`
	Documents int                `json:"documents"`
	Duplicate bool               `json:"duplicate"`
}

// Profile is the interpreted genetic picture of one athlete.
type Profile struct {
	AthleteID string               `json:"athleteId"`
	Markers   int                  `json:"markers"`
	Partition interpret.Partition  `json:"partition"`
	Coverage  []interpret.Coverage `json:"coverage"`
	Readiness *scoring.Result      `json:"readiness,omitempty"`
}

// HistoryPoint is one valid biometric record with its readiness breakdown.
type HistoryPoint struct {
	Record    model.BiometricRecord `json:"record"`
	Readiness scoring.Result        `json:"readiness"`
}

// Service implements the API dependencies for the reconciliation engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	store       repository.Store
	ownsStore   bool
	table       *reference.Table
	resolver    *fields.Resolver
	interpreter *interpret.Interpreter
	scorer      *scoring.ReadinessScorer
	deduper     dedupe.Deduper
	queue       *ingestqueue.InMemoryQueue
	workerPool  *workerpool.Pool

	// Configuration
	workerCount      int
	queueSize        int
	dedupeSize       int
	maxQueryResults  int
	readinessWeights map[string]float64
	drainTimeout     time.Duration

	// State
	started bool
	halt    context.CancelFunc

	logger logger.Logger
}

// WithStore sets the document store. A store supplied here is not closed by Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithReference sets the reference table used for interpretation.
func WithReference(table *reference.Table) Option {
	return func(s *Service) {
		if table != nil {
			s.table = table
		}
	}
}

// WithDrainTimeout bounds how long Stop waits for queued jobs.
func WithDrainTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.drainTimeout = d
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:     runtime.NumCPU() * 2,
		queueSize:       defaultQueueSize,
		dedupeSize:      defaultDedupeSize,
		maxQueryResults: defaultMaxQueryResults,
		drainTimeout:    defaultDrainTimeout,
		resolver:        normalize.NewResolver(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting athletix service...")

	if s.table == nil {
		table, err := reference.Default()
		if err != nil {
			return fmt.Errorf("load reference table: %w", err)
		}
		s.table = table
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
		s.ownsStore = true
		s.logger.Info(ctx, "using memory store")
	}

	s.interpreter = interpret.New(s.table)
	s.scorer = scoring.NewReadinessScorer(scoring.WithWeights(s.readinessWeights))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = ingestqueue.NewInMemoryQueue(ingestqueue.WithCapacity(s.queueSize))
	metrics.UpdateQueueCapacity(s.queue.Capacity())

	s.workerPool = workerpool.NewPool(s.workerCount, s.queue, s.store,
		workerpool.WithLogger(s.logger.Named("worker")),
		workerpool.WithFailureHook(s.forget),
	)
	// Workers outlive the caller's context so Stop can drain accepted jobs.
	runCtx, halt := context.WithCancel(context.WithoutCancel(ctx))
	s.halt = halt
	s.workerPool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "athletix service started",
		logger.Int("workers", s.workerPool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("categories", len(s.table.Categories())),
	)

	return nil
}

// Stop drains queued jobs and shuts the service down.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.drainTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping athletix service...")

	if err := s.workerPool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "ingestion queue not fully drained",
			logger.Int("pending", s.queue.Len(ctx)),
			logger.Error(err),
		)
	}
	s.halt()
	s.halt = nil

	if s.ownsStore {
		if err := s.store.Close(); err != nil {
			s.logger.Error(ctx, "error closing store", logger.Error(err))
		}
		s.store = nil
		s.ownsStore = false
	}

	s.started = false
	s.logger.Info(ctx, "athletix service stopped")
}

// forget un-records the idempotency key of a job that failed to persist so
// the client can retry it.
func (s *Service) forget(ctx context.Context, j workerpool.Job, err error) { //nolint:gocritic // hugeParam: matches FailureHook
	s.deduper.Unrecord(ctx, j.ID)
	s.logger.Warn(ctx, "ingestion job failed",
		logger.String("id", j.ID),
		logger.String("athlete", j.AthleteID),
		logger.String("kind", string(j.Kind)),
		logger.Error(err),
	)
}

// SubmitGenetic accepts raw genetic documents for asynchronous persistence.
func (s *Service) SubmitGenetic(ctx context.Context, athleteID, key string, docs []json.RawMessage) (Submission, error) {
	return s.submit(ctx, model.KindGenetic, athleteID, key, docs)
}

// SubmitBiometrics accepts raw biometric documents for asynchronous persistence.
func (s *Service) SubmitBiometrics(ctx context.Context, athleteID, key string, docs []json.RawMessage) (Submission, error) {
	return s.submit(ctx, model.KindBiometric, athleteID, key, docs)
}

func (s *Service) submit(ctx context.Context, kind model.DocumentKind, athleteID, key string, docs []json.RawMessage) (Submission, error) {
	athleteID = strings.TrimSpace(athleteID)
	if athleteID == "" {
		return Submission{}, fmt.Errorf("%w: athlete id is required", ErrInvalidInput)
	}
	if len(docs) == 0 {
		return Submission{}, fmt.Errorf("%w: no documents", ErrInvalidInput)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return Submission{}, ErrNotStarted
	}

	key = strings.TrimSpace(key)
	if key == "" {
		key = uuid.NewString()
	}
	sub := Submission{ID: key, AthleteID: athleteID, Kind: kind, Documents: len(docs)}

	// Keys are scoped per athlete and kind.
	id := string(kind) + "/" + athleteID + "/" + key
	if s.deduper.SeenAndRecord(ctx, id) {
		metrics.RecordIngestDuplicate()
		s.logger.Debug(ctx, "duplicate submission skipped",
			logger.String("id", key),
			logger.String("athlete", athleteID),
		)
		sub.Duplicate = true
		return sub, nil
	}

	job := ingestqueue.Job{
		ID:         id,
		AthleteID:  athleteID,
		Kind:       kind,
		Documents:  docs,
		ReceivedAt: time.Now().UTC(),
	}
	if !s.queue.Enqueue(ctx, job) {
		s.deduper.Unrecord(ctx, id)
		metrics.RecordIngestRejected()
		return Submission{}, ErrBackpressure
	}

	metrics.RecordIngestEnqueued(string(kind))
	metrics.UpdateQueueSize(s.queue.Len(ctx))
	return sub, nil
}

// Markers returns the athlete's deduplicated markers filtered and ordered by
// opts. The result is capped at the configured maximum.
func (s *Service) Markers(ctx context.Context, athleteID string, opts query.Options) ([]model.MarkerRecord, error) {
	markers, err := s.markers(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	if opts.Limit <= 0 || opts.Limit > s.maxQueryResults {
		opts.Limit = s.maxQueryResults
	}
	return query.Run(markers, opts), nil
}

// Profile partitions the athlete's markers by interpreted impact and reports
// reference coverage. Readiness is attached when a usable biometric record
// exists.
func (s *Service) Profile(ctx context.Context, athleteID string) (Profile, error) {
	markers, err := s.markers(ctx, athleteID)
	if err != nil {
		return Profile{}, err
	}

	p := Profile{
		AthleteID: athleteID,
		Markers:   len(markers),
		Partition: s.interpreter.Partition(markers),
		Coverage:  s.interpreter.CoverageAll(markers),
	}
	recordPartition(p.Partition)

	if res, err := s.Readiness(ctx, athleteID); err == nil {
		p.Readiness = &res
	} else if !errors.Is(err, ErrNoReadiness) && !errors.Is(err, ErrNotFound) {
		return Profile{}, err
	}
	return p, nil
}

// Interpret answers a single (category, gene, genotype) question against the
// reference table.
func (s *Service) Interpret(category, gene, genotype string) (interpret.Judgment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return interpret.Judgment{}, ErrNotStarted
	}
	j := s.interpreter.Interpret(category, gene, genotype)
	metrics.RecordInterpretation(string(j.Impact))
	return j, nil
}

// Readiness scores the athlete's most recent valid biometric record. It
// returns ErrNoReadiness when no record carries a usable scored field.
func (s *Service) Readiness(ctx context.Context, athleteID string) (scoring.Result, error) {
	records, err := s.biometrics(ctx, athleteID)
	if err != nil {
		return scoring.Result{}, err
	}
	res, ok := s.scorer.Latest(records)
	if !ok || !res.Usable() {
		metrics.RecordReadinessSuppressed()
		s.logger.Debug(ctx, "readiness suppressed", logger.String("athlete", athleteID))
		return scoring.Result{}, ErrNoReadiness
	}
	metrics.RecordReadinessComputed()
	return res, nil
}

// BiometricHistory returns the athlete's valid biometric records oldest first,
// each with its readiness breakdown.
func (s *Service) BiometricHistory(ctx context.Context, athleteID string) ([]HistoryPoint, error) {
	records, err := s.biometrics(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	out := make([]HistoryPoint, 0, len(records))
	for _, r := range records {
		if !r.Valid() {
			continue
		}
		out = append(out, HistoryPoint{Record: r, Readiness: s.scorer.Breakdown(r)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, _ := model.ParseDate(out[i].Record.Date)
		b, _ := model.ParseDate(out[j].Record.Date)
		return a.Before(b)
	})
	return out, nil
}

// TeamAverage averages metric over every athlete's valid records, optionally
// excluding one athlete. The boolean is false when nothing contributed.
func (s *Service) TeamAverage(ctx context.Context, metric, excludeAthleteID string) (float64, bool, error) {
	if model.CanonicalMetric(metric) == "" {
		return 0, false, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}
	population, err := s.population(ctx)
	if err != nil {
		return 0, false, err
	}
	avg, ok := cohort.TeamAverage(metric, strings.TrimSpace(excludeAthleteID), population)
	if !ok {
		metrics.RecordCohortEmpty()
		s.logger.Debug(ctx, "empty cohort", logger.String("metric", metric))
	}
	return avg, ok, nil
}

// Compare sets the athlete's mean for metric against the rest of the team.
func (s *Service) Compare(ctx context.Context, athleteID, metric string) (cohort.Comparison, error) {
	if model.CanonicalMetric(metric) == "" {
		return cohort.Comparison{}, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}
	population, err := s.population(ctx)
	if err != nil {
		return cohort.Comparison{}, err
	}
	c := cohort.Compare(metric, athleteID, population)
	if !c.Team.OK {
		metrics.RecordCohortEmpty()
	}
	return c, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":         s.started,
		"workerCount":     s.workerCount,
		"queueSize":       s.queueSize,
		"dedupeSize":      s.dedupeSize,
		"maxQueryResults": s.maxQueryResults,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["documents"] = s.store.Count(ctx)
		stats["processed"] = s.workerPool.Processed()
		stats["failed"] = s.workerPool.Failed()
		stats["seenSubmissions"] = s.deduper.Size()
		stats["categories"] = len(s.table.Categories())
		if athletes, err := s.store.Athletes(ctx); err == nil {
			stats["athletes"] = len(athletes)
		}

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.workerPool.Size())
	}

	return stats
}

// markers loads and normalizes the athlete's genetic documents, collapsing
// duplicate observations.
func (s *Service) markers(ctx context.Context, athleteID string) ([]model.MarkerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}

	docs, err := s.store.Genetic(ctx, athleteID)
	if err != nil {
		return nil, storeErr(err)
	}

	markers, rep := normalize.Markers(docs, s.resolver)
	recordReport(rep, len(markers))
	if rep.Malformed > 0 || rep.Dropped > 0 {
		s.logger.Warn(ctx, "degraded genetic documents",
			logger.String("athlete", athleteID),
			logger.Int("documents", rep.Documents),
			logger.Int("malformed", rep.Malformed),
			logger.Int("dropped", rep.Dropped),
		)
	}

	unique := dedupe.Deduplicate(markers)
	metrics.RecordDuplicatesCollapsed(len(markers) - len(unique))
	return unique, nil
}

// biometrics loads the athlete's biometric records. Records that do not name
// an athlete are attributed to the athlete they were stored under.
func (s *Service) biometrics(ctx context.Context, athleteID string) ([]model.BiometricRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}

	docs, err := s.store.Biometrics(ctx, athleteID)
	if err != nil {
		return nil, storeErr(err)
	}
	records := s.decodeBiometrics(ctx, docs)
	for i := range records {
		if strings.TrimSpace(records[i].AthleteID) == "" {
			records[i].AthleteID = athleteID
		}
	}
	return records, nil
}

func (s *Service) population(ctx context.Context) ([]model.BiometricRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}

	docs, err := s.store.AllBiometrics(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	return s.decodeBiometrics(ctx, docs), nil
}

func (s *Service) decodeBiometrics(ctx context.Context, docs []json.RawMessage) []model.BiometricRecord {
	out := make([]model.BiometricRecord, 0, len(docs))
	var malformed int
	for _, raw := range docs {
		rec, ok := normalize.Biometric(raw, s.resolver)
		if !ok {
			malformed++
			continue
		}
		out = append(out, rec)
	}
	if malformed > 0 {
		metrics.RecordPayloadsMalformed(malformed)
		s.logger.Warn(ctx, "skipped malformed biometric documents", logger.Int("count", malformed))
	}
	return out
}

func storeErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, repository.ErrInvalidAthlete):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	default:
		return err
	}
}

func recordReport(rep normalize.Report, normalized int) {
	for enc, n := range rep.Shapes {
		metrics.RecordPayloadShape(enc.String(), n)
	}
	metrics.RecordPayloadsMalformed(rep.Malformed)
	metrics.RecordMarkersDropped(rep.Dropped)
	metrics.RecordMarkersNormalized(normalized)
}

func recordPartition(p interpret.Partition) {
	for _, bucket := range [][]interpret.Interpreted{p.Beneficial, p.Neutral, p.Challenging, p.Unknown} {
		for _, m := range bucket {
			metrics.RecordInterpretation(string(m.Judgment.Impact))
		}
	}
}
