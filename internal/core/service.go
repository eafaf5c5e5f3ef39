package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultRunTimeout bounds a single background run.
const DefaultRunTimeout = 10 * time.Minute

// DefaultRetention is how long a finished run stays queryable.
const DefaultRetention = 5 * time.Minute

// ServiceConfig holds the engine tunables.
type ServiceConfig struct {
	UploadWorkers     int
	BatchSize         int
	UploadTimeout     time.Duration
	ImportTimeout     time.Duration
	MaxConcurrentRuns int
	MaxWaitTime       time.Duration
	Retention         time.Duration
}

// RunObserver receives run outcomes, typically for metrics.
type RunObserver interface {
	ObserveMedia(o *UploadOutcome)
	ObserveImport(o *ImportOutcome)
	ObserveRun(kind RunKind, phase RunPhase, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveMedia(*UploadOutcome)                 {}
func (nopObserver) ObserveImport(*ImportOutcome)                {}
func (nopObserver) ObserveRun(RunKind, RunPhase, time.Duration) {}

// Service runs media uploads and CSV imports in the background and tracks
// their progress for subscribers.
type Service struct {
	blobs    BlobStore
	records  RecordStore
	cfg      ServiceConfig
	limiter  *RunLimiter
	observer RunObserver
	logger   *slog.Logger

	mu   sync.RWMutex
	runs map[string]*activeRun
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithObserver registers a RunObserver.
func WithObserver(o RunObserver) ServiceOption {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a Service over the given stores.
func NewService(blobs BlobStore, records RecordStore, cfg ServiceConfig, opts ...ServiceOption) *Service {
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = DefaultRunTimeout
	}
	if cfg.ImportTimeout <= 0 {
		cfg.ImportTimeout = DefaultRunTimeout
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}

	s := &Service{
		blobs:    blobs,
		records:  records,
		cfg:      cfg,
		limiter:  NewRunLimiter(cfg.MaxConcurrentRuns, cfg.MaxWaitTime),
		observer: nopObserver{},
		logger:   slog.Default(),
		runs:     make(map[string]*activeRun),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type activeRun struct {
	id      string
	kind    RunKind
	started time.Time
	cancel  context.CancelFunc
	done    chan struct{}

	mu        sync.Mutex
	progress  RunProgress
	result    *RunResult
	listeners []chan RunProgress
}

// setProgress updates the snapshot and fans it out. Slow listeners miss
// intermediate updates but always see the terminal one via finish.
func (r *activeRun) setProgress(phase RunPhase, percent int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.progress.Phase = phase
	if percent > r.progress.Percent {
		r.progress.Percent = percent
	}
	for _, ch := range r.listeners {
		select {
		case ch <- r.progress:
		default:
		}
	}
}

func (r *activeRun) finish(result *RunResult, phase RunPhase) {
	r.mu.Lock()
	r.result = result
	r.progress.Phase = phase
	r.progress.Error = result.Error
	if phase == PhaseComplete {
		r.progress.Percent = 100
	}
	for _, ch := range r.listeners {
		// Drop a stale update if the buffer is full so the final state fits.
		select {
		case ch <- r.progress:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- r.progress:
			default:
			}
		}
		close(ch)
	}
	r.listeners = nil
	r.mu.Unlock()

	close(r.done)
}

func (r *activeRun) snapshot() RunProgress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progress
}

func (s *Service) register(runID string, kind RunKind, cancel context.CancelFunc) *activeRun {
	run := &activeRun{
		id:      runID,
		kind:    kind,
		started: time.Now(),
		cancel:  cancel,
		done:    make(chan struct{}),
		progress: RunProgress{
			RunID: runID,
			Kind:  kind,
			Phase: PhaseStarting,
		},
	}

	s.mu.Lock()
	s.runs[runID] = run
	s.mu.Unlock()
	return run
}

func (s *Service) lookup(runID string) (*activeRun, error) {
	s.mu.RLock()
	run, ok := s.runs[runID]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, nil
}

// cleanup forgets a finished run after the retention delay.
func (s *Service) cleanup(runID string) {
	time.AfterFunc(s.cfg.Retention, func() {
		s.mu.Lock()
		delete(s.runs, runID)
		s.mu.Unlock()
	})
}

// SubscribeProgress returns a channel of progress snapshots for runID. The
// current snapshot is delivered first; the channel closes when the run ends.
func (s *Service) SubscribeProgress(runID string) (<-chan RunProgress, error) {
	run, err := s.lookup(runID)
	if err != nil {
		return nil, err
	}

	ch := make(chan RunProgress, 10)

	run.mu.Lock()
	defer run.mu.Unlock()

	ch <- run.progress
	if run.result != nil {
		close(ch)
		return ch, nil
	}
	run.listeners = append(run.listeners, ch)
	return ch, nil
}

// GetRunProgress returns the current snapshot without blocking.
func (s *Service) GetRunProgress(runID string) (RunProgress, error) {
	run, err := s.lookup(runID)
	if err != nil {
		return RunProgress{}, err
	}
	return run.snapshot(), nil
}

// GetRunResult blocks until the run finishes or ctx is done.
func (s *Service) GetRunResult(ctx context.Context, runID string) (*RunResult, error) {
	run, err := s.lookup(runID)
	if err != nil {
		return nil, err
	}

	select {
	case <-run.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	run.mu.Lock()
	defer run.mu.Unlock()
	return run.result, nil
}

// CancelRun stops a run from starting further work. Files or batches already
// in flight complete.
func (s *Service) CancelRun(runID string) error {
	run, err := s.lookup(runID)
	if err != nil {
		return err
	}
	run.cancel()
	return nil
}

// LimiterStatus reports run slot usage.
func (s *Service) LimiterStatus() RunLimiterStatus {
	return s.limiter.Status()
}

// WaitForRuns blocks until every background run has released its slot.
func (s *Service) WaitForRuns(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
