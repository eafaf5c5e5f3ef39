package core

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// StartMediaUpload begins reconciling files against the entities visible
// under filter. It returns the run ID immediately; use SubscribeProgress and
// GetRunResult to follow it.
//
// Returns ErrNoFiles for an empty upload and ErrTooManyRuns when no run slot
// frees up in time.
func (s *Service) StartMediaUpload(ctx context.Context, filter EntityFilter, files []MediaFile) (string, error) {
	if len(files) == 0 {
		return "", ErrNoFiles
	}

	if err := s.limiter.Acquire(ctx, RunMedia); err != nil {
		return "", err
	}

	runID := uuid.NewString()
	runCtx, cancel := context.WithTimeout(context.Background(), s.cfg.UploadTimeout)
	run := s.register(runID, RunMedia, cancel)

	s.logger.Info("media run started",
		"run_id", runID,
		"event_id", filter.EventID,
		"files", len(files),
	)

	go func() {
		defer s.limiter.Release(RunMedia)
		defer cancel()
		defer s.recoverRun(run)

		outcome, err := s.runMedia(runCtx, run, filter, files)
		s.completeMedia(run, outcome, err)
	}()

	return runID, nil
}

// StartImport parses csv and begins inserting its rows under scope.
//
// Structural problems (invalid scope, empty file, missing required column)
// are returned synchronously and no run is created.
func (s *Service) StartImport(ctx context.Context, scope ImportScope, csv io.Reader) (string, error) {
	if err := scope.Validate(); err != nil {
		return "", err
	}

	rows, err := ReadTabular(csv, ParticipantContract)
	if err != nil {
		return "", err
	}

	if err := s.limiter.Acquire(ctx, RunImport); err != nil {
		return "", err
	}

	runID := uuid.NewString()
	runCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ImportTimeout)
	run := s.register(runID, RunImport, cancel)

	s.logger.Info("import run started",
		"run_id", runID,
		"event_id", scope.EventID,
		"rows", len(rows),
	)

	go func() {
		defer s.limiter.Release(RunImport)
		defer cancel()
		defer s.recoverRun(run)

		run.setProgress(PhaseProcessing, 0)
		outcome, err := s.importer(run).Run(runCtx, rows, scope)
		s.completeImport(run, outcome, err)
	}()

	return runID, nil
}

// UploadMedia runs a media upload synchronously.
func (s *Service) UploadMedia(ctx context.Context, filter EntityFilter, files []MediaFile, progress ProgressFunc) (*UploadOutcome, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	entities, err := s.records.ListEntities(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}

	uploader := NewMediaUploader(s.blobs, s.records,
		WithUploadWorkers(s.cfg.UploadWorkers),
		WithUploadProgress(progress),
		WithUploadLogger(s.logger),
	)
	outcome := uploader.Run(ctx, files, BuildEntityIndex(entities))
	s.observer.ObserveMedia(outcome)
	return outcome, nil
}

// ImportRows parses csv and imports it synchronously.
func (s *Service) ImportRows(ctx context.Context, scope ImportScope, csv io.Reader, progress ProgressFunc) (*ImportOutcome, error) {
	rows, err := ReadTabular(csv, ParticipantContract)
	if err != nil {
		return nil, err
	}

	importer := NewBatchImporter(s.records,
		WithBatchSize(s.cfg.BatchSize),
		WithImportProgress(progress),
		WithImportLogger(s.logger),
	)
	outcome, err := importer.Run(ctx, rows, scope)
	if err != nil {
		return nil, err
	}
	s.observer.ObserveImport(outcome)
	return outcome, nil
}

func (s *Service) runMedia(ctx context.Context, run *activeRun, filter EntityFilter, files []MediaFile) (*UploadOutcome, error) {
	run.setProgress(PhaseIndexing, 0)

	entities, err := s.records.ListEntities(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	index := BuildEntityIndex(entities)

	s.logger.Debug("entity index built", "run_id", run.id, "codes", index.Len())

	run.setProgress(PhaseProcessing, 0)
	uploader := NewMediaUploader(s.blobs, s.records,
		WithUploadWorkers(s.cfg.UploadWorkers),
		WithUploadProgress(func(pct int) { run.setProgress(PhaseProcessing, pct) }),
		WithUploadLogger(s.logger.With("run_id", run.id)),
	)
	return uploader.Run(ctx, files, index), nil
}

func (s *Service) importer(run *activeRun) *BatchImporter {
	return NewBatchImporter(s.records,
		WithBatchSize(s.cfg.BatchSize),
		WithImportProgress(func(pct int) { run.setProgress(PhaseProcessing, pct) }),
		WithImportLogger(s.logger.With("run_id", run.id)),
	)
}

func (s *Service) completeMedia(run *activeRun, outcome *UploadOutcome, err error) {
	result := &RunResult{
		RunID:    run.id,
		Kind:     RunMedia,
		Media:    outcome,
		Duration: time.Since(run.started),
	}

	phase := PhaseComplete
	switch {
	case err != nil:
		phase = PhaseFailed
		result.Error = err.Error()
	case outcome.Cancelled:
		phase = PhaseCancelled
	}

	if outcome != nil {
		s.observer.ObserveMedia(outcome)
		s.logger.Info("media run finished",
			"run_id", run.id,
			"phase", phase,
			"success", outcome.SuccessCount,
			"errors", outcome.ErrorCount,
			"orphans", len(outcome.OrphanFiles),
			"duration", result.Duration,
		)
	} else {
		s.logger.Error("media run failed", "run_id", run.id, "error", err)
	}

	s.observer.ObserveRun(RunMedia, phase, result.Duration)
	run.finish(result, phase)
	s.cleanup(run.id)
}

func (s *Service) completeImport(run *activeRun, outcome *ImportOutcome, err error) {
	result := &RunResult{
		RunID:    run.id,
		Kind:     RunImport,
		Import:   outcome,
		Duration: time.Since(run.started),
	}

	phase := PhaseComplete
	switch {
	case err != nil:
		phase = PhaseFailed
		result.Error = err.Error()
	case outcome.Cancelled:
		phase = PhaseCancelled
	}

	if outcome != nil {
		s.observer.ObserveImport(outcome)
		s.logger.Info("import run finished",
			"run_id", run.id,
			"phase", phase,
			"inserted", outcome.SuccessCount,
			"failed", len(outcome.Errors),
			"total", outcome.Total,
			"duration", result.Duration,
		)
	} else {
		s.logger.Error("import run failed", "run_id", run.id, "error", err)
	}

	s.observer.ObserveRun(RunImport, phase, result.Duration)
	run.finish(result, phase)
	s.cleanup(run.id)
}

// recoverRun turns a panic in a run goroutine into a failed result so
// subscribers and GetRunResult are released.
func (s *Service) recoverRun(run *activeRun) {
	r := recover()
	if r == nil {
		return
	}

	s.logger.Error("panic in run", "run_id", run.id, "kind", run.kind, "panic", r)

	result := &RunResult{
		RunID:    run.id,
		Kind:     run.kind,
		Duration: time.Since(run.started),
		Error:    fmt.Sprintf("internal error: %v", r),
	}
	s.observer.ObserveRun(run.kind, PhaseFailed, result.Duration)
	run.finish(result, PhaseFailed)
	s.cleanup(run.id)
}
