package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/anime-shed/visual-pipeline-go/internal/errors"
	"github.com/anime-shed/visual-pipeline-go/internal/observer"
	"github.com/anime-shed/visual-pipeline-go/internal/pipeline"
	"github.com/anime-shed/visual-pipeline-go/internal/storage"
	"github.com/anime-shed/visual-pipeline-go/pkg/models"
	"github.com/anime-shed/visual-pipeline-go/pkg/validation"
)

// AnalysisService defines the submission-facing API: validate, fetch,
// run the pipeline and persist the artifacts.
type AnalysisService interface {
	Analyze(ctx context.Context, request models.AnalyzeRequest) (*models.AnalyzeResponse, error)
	ValidateRequest(request models.AnalyzeRequest) error
}

// analysisService wires the pipeline behind fetch and persistence.
type analysisService struct {
	fetcher         storage.SourceFetcher
	artifacts       storage.ArtifactStore
	orchestrator    *pipeline.Orchestrator
	urlValidator    *validation.URLValidator
	paramsValidator *validation.ParamsValidator
	publisher       observer.Subject
	defaults        pipeline.Options
	pool            *WorkerPool
}

// NewAnalysisService creates a new analysis service. Pipeline runs are
// executed on a shared worker pool so concurrent submissions cannot
// oversubscribe the CPU.
func NewAnalysisService(
	fetcher storage.SourceFetcher,
	artifacts storage.ArtifactStore,
	orchestrator *pipeline.Orchestrator,
	publisher observer.Subject,
	defaults pipeline.Options,
) AnalysisService {
	pool := NewWorkerPool(0)
	pool.Start()

	return &analysisService{
		fetcher:         fetcher,
		artifacts:       artifacts,
		orchestrator:    orchestrator,
		urlValidator:    validation.NewURLValidator(),
		paramsValidator: validation.NewParamsValidator(),
		publisher:       publisher,
		defaults:        defaults,
		pool:            pool,
	}
}

// ValidateRequest checks the source URL and the optional overrides.
func (s *analysisService) ValidateRequest(request models.AnalyzeRequest) error {
	if err := s.urlValidator.ValidateSourceURL(request.URL); err != nil {
		return err
	}
	return s.paramsValidator.ValidateRequest(request)
}

// Analyze runs one submission end to end and returns the report with
// artifact locations filled in.
func (s *analysisService) Analyze(ctx context.Context, request models.AnalyzeRequest) (*models.AnalyzeResponse, error) {
	if err := s.ValidateRequest(request); err != nil {
		return nil, err
	}

	submissionID := uuid.NewString()
	start := time.Now()
	s.notify(ctx, observer.PipelineEvent{
		EventType:    observer.SubmissionStarted,
		Timestamp:    start,
		SubmissionID: submissionID,
		Metadata:     map[string]interface{}{"source_url": request.URL},
	})

	data, err := s.fetcher.FetchBytes(ctx, request.URL)
	if err != nil {
		s.notifyFetchFailed(ctx, submissionID, err)
		return nil, err
	}
	s.notify(ctx, observer.PipelineEvent{
		EventType:    observer.SourceFetched,
		Timestamp:    time.Now(),
		SubmissionID: submissionID,
		Metadata:     map[string]interface{}{"bytes": len(data)},
	})

	opts := s.applyOverrides(request)
	rc := pipeline.RunContext{
		SubmissionID: submissionID,
		OnProgress: func(percent int, state models.SubmissionState) {
			s.notify(ctx, observer.PipelineEvent{
				EventType:    observer.StepCompleted,
				Timestamp:    time.Now(),
				SubmissionID: submissionID,
				State:        state,
				Progress:     percent,
			})
		},
	}

	report, err := s.runOnPool(ctx, rc, data, opts)
	if err != nil {
		s.notify(ctx, observer.PipelineEvent{
			EventType:    observer.SubmissionFailed,
			Timestamp:    time.Now(),
			SubmissionID: submissionID,
			State:        report.FailedStep,
			Success:      false,
			ErrorMessage: err.Error(),
		})
		return nil, err
	}

	if err := s.persistArtifacts(ctx, submissionID, report); err != nil {
		return nil, err
	}

	s.notify(ctx, observer.PipelineEvent{
		EventType:      observer.SubmissionCompleted,
		Timestamp:      time.Now(),
		SubmissionID:   submissionID,
		State:          report.State,
		Progress:       100,
		ProcessingTime: time.Since(start),
		Success:        true,
	})

	return &models.AnalyzeResponse{ImageURL: request.URL, Report: *report}, nil
}

// runOnPool executes the pipeline on the worker pool and waits for the
// result, so the pool size is the hard bound on concurrent runs.
func (s *analysisService) runOnPool(ctx context.Context, rc pipeline.RunContext, data []byte, opts pipeline.Options) (*models.AnalysisReport, error) {
	type outcome struct {
		report *models.AnalysisReport
		err    error
	}
	done := make(chan outcome, 1)
	s.pool.Submit(func() {
		report, err := s.orchestrator.Run(ctx, rc, data, opts)
		done <- outcome{report: report, err: err}
	})
	result := <-done
	return result.report, result.err
}

func (s *analysisService) applyOverrides(request models.AnalyzeRequest) pipeline.Options {
	opts := s.defaults
	if request.BinarizeThreshold != nil {
		opts.BinarizeThreshold = *request.BinarizeThreshold
	}
	if request.MaxSide != nil {
		opts.MaxSide = *request.MaxSide
	}
	if request.ClusterTarget != nil {
		opts.ClusterTarget = *request.ClusterTarget
	}
	opts.Detailed = request.Detailed
	return opts
}

// persistArtifacts stores every artifact and records its location on
// the report. The store is optional; without one artifacts stay
// in-memory only.
func (s *analysisService) persistArtifacts(ctx context.Context, submissionID string, report *models.AnalysisReport) error {
	if s.artifacts == nil {
		return nil
	}
	for i := range report.Artifacts {
		location, err := s.artifacts.SaveArtifact(ctx, submissionID, report.Artifacts[i])
		if err != nil {
			return apperrors.NewInternalError("failed to persist artifact", err)
		}
		report.Artifacts[i].StoredAt = location
	}
	return nil
}

func (s *analysisService) notify(ctx context.Context, event observer.PipelineEvent) {
	if s.publisher != nil {
		s.publisher.NotifyObservers(ctx, event)
	}
}

func (s *analysisService) notifyFetchFailed(ctx context.Context, submissionID string, err error) {
	s.notify(ctx, observer.PipelineEvent{
		EventType:    observer.SourceFetchFailed,
		Timestamp:    time.Now(),
		SubmissionID: submissionID,
		Success:      false,
		ErrorMessage: err.Error(),
	})
}
