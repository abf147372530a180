package validation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/thesis-checker/constants"
	"github.com/joseph-ayodele/thesis-checker/internal/async"
	"github.com/joseph-ayodele/thesis-checker/internal/common"
	"github.com/joseph-ayodele/thesis-checker/internal/entity"
	"github.com/joseph-ayodele/thesis-checker/internal/report"
	"github.com/joseph-ayodele/thesis-checker/internal/repository"
	"github.com/joseph-ayodele/thesis-checker/internal/rules"
	"github.com/joseph-ayodele/thesis-checker/internal/storage"
)

const (
	progressStarted = "Validation started"
	submitMessage   = "Validation started. Use /status/{job_id} to check progress."
)

// Service is the job orchestrator: it accepts uploads, schedules the
// pipeline and answers lookups by job id.
type Service struct {
	jobs           repository.JobRepository
	files          *storage.FileStore
	queue          async.Queue
	exporter       report.Renderer
	catalog        *rules.Catalog
	maxUploadBytes int64
	logger         *slog.Logger
	now            func() time.Time
}

// Config holds orchestrator limits.
type Config struct {
	MaxUploadBytes int64
}

// NewService creates a new validation service.
func NewService(
	jobs repository.JobRepository,
	files *storage.FileStore,
	queue async.Queue,
	catalog *rules.Catalog,
	cfg Config,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if catalog == nil {
		catalog = rules.Default()
	}
	return &Service{
		jobs:           jobs,
		files:          files,
		queue:          queue,
		exporter:       report.XLSXRenderer{Logger: logger},
		catalog:        catalog,
		maxUploadBytes: cfg.MaxUploadBytes,
		logger:         logger,
		now:            time.Now,
	}
}

// SubmitRequest is one uploaded document. Size is -1 when unknown.
type SubmitRequest struct {
	Filename string
	Size     int64
	Body     io.Reader
	TraceID  string
}

type SubmitResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Submit validates the upload, stores it, records the job and schedules it.
// Rejected uploads create neither a job nor a file.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error) {
	if err := common.ValidateUpload(req.Filename, req.Size, s.maxUploadBytes); err != nil {
		s.logger.Info("validation.submit.rejected", "filename", req.Filename, "error", err)
		return nil, err
	}

	id := uuid.NewString()
	body := req.Body
	if s.maxUploadBytes > 0 {
		body = io.LimitReader(req.Body, s.maxUploadBytes+1)
	}
	stored, err := s.files.SaveUpload(id, req.Filename, body)
	if err != nil {
		return nil, common.NewAppError("STORAGE_ERROR", "could not store upload", fmt.Errorf("%w: %v", common.ErrInternal, err))
	}
	if s.maxUploadBytes > 0 && stored.Size > s.maxUploadBytes {
		_ = s.files.Remove(stored.Path)
		return nil, common.ValidateUpload(req.Filename, stored.Size, s.maxUploadBytes)
	}

	now := s.now()
	job := entity.NewValidationJob(id, req.Filename, stored.Path, now)
	if err := s.jobs.Create(ctx, job); err != nil {
		_ = s.files.Remove(stored.Path)
		return nil, fmt.Errorf("create job: %w", err)
	}
	running := job.Running(progressStarted)
	if err := s.jobs.Update(ctx, running); err != nil {
		// nothing was scheduled, so the job and its upload are rolled back
		if derr := s.jobs.Delete(ctx, id); derr != nil {
			s.logger.Error("validation.submit.rollback_failed", "job_id", id, "error", derr)
		}
		_ = s.files.Remove(stored.Path)
		return nil, fmt.Errorf("start job: %w", err)
	}

	if err := s.queue.Enqueue(ctx, async.Job{JobID: id, SubmittedAt: now, TraceID: req.TraceID}); err != nil {
		if uerr := s.jobs.Update(ctx, running.Failed(err, s.now())); uerr != nil {
			s.logger.Error("validation.submit.fail_record_failed", "job_id", id, "error", uerr)
		}
		return nil, common.NewAppError("QUEUE_UNAVAILABLE", "validation queue is not accepting work, retry later", err)
	}

	s.logger.Info("validation.submit.ok",
		"job_id", id,
		"filename", req.Filename,
		"bytes", stored.Size,
		"req_id", req.TraceID,
	)
	return &SubmitResponse{JobID: id, Status: constants.JobStatusRunning.APIStatus(), Message: submitMessage}, nil
}

type StatusResponse struct {
	JobID       string     `json:"job_id"`
	Status      string     `json:"status"`
	Progress    string     `json:"progress"`
	ErrorCount  *int       `json:"error_count,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Status reports the current state of a job.
func (s *Service) Status(ctx context.Context, id string) (*StatusResponse, error) {
	job, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &StatusResponse{
		JobID:       job.ID,
		Status:      job.Status.APIStatus(),
		Progress:    job.ProgressMessage,
		CompletedAt: job.CompletedAt,
	}
	if job.Status == constants.JobStatusCompleted {
		n := job.ErrorCount()
		out.ErrorCount = &n
	}
	return out, nil
}

type ResultResponse struct {
	JobID          string                     `json:"job_id"`
	Status         string                     `json:"status"`
	SourceFilename string                     `json:"source_filename"`
	Errors         []entity.Finding           `json:"errors"`
	ErrorCount     int                        `json:"error_count"`
	Summary        map[constants.Severity]int `json:"summary"`
	DownloadURL    string                     `json:"download_url"`
	ExportURL      string                     `json:"export_url"`
	CompletedAt    *time.Time                 `json:"completed_at,omitempty"`
}

// Result returns the findings of a completed job.
func (s *Service) Result(ctx context.Context, id string) (*ResultResponse, error) {
	job, err := s.completed(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ResultResponse{
		JobID:          job.ID,
		Status:         job.Status.APIStatus(),
		SourceFilename: job.SourceFilename,
		Errors:         job.Findings,
		ErrorCount:     job.ErrorCount(),
		Summary:        entity.SeverityCounts(job.Findings),
		DownloadURL:    "/download-pdf/" + job.ID,
		ExportURL:      "/export/" + job.ID,
		CompletedAt:    job.CompletedAt,
	}, nil
}

// Artifact is a rendered report ready to stream.
type Artifact struct {
	Path         string
	DownloadName string
	Size         int64
	ModTime      time.Time
}

// Artifact locates the rendered report of a completed job.
func (s *Service) Artifact(ctx context.Context, id string) (*Artifact, error) {
	job, err := s.completed(ctx, id)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(job.OutputArtifactPath)
	if job.OutputArtifactPath == "" || err != nil {
		s.logger.Warn("validation.artifact.missing", "job_id", id, "path", job.OutputArtifactPath, "error", err)
		return nil, common.NewAppError("NOT_FOUND", "Annotated PDF not found", common.ErrNotFound)
	}
	return &Artifact{
		Path:         job.OutputArtifactPath,
		DownloadName: "validated_" + job.SourceFilename,
		Size:         info.Size(),
		ModTime:      info.ModTime(),
	}, nil
}

// Export writes the findings of a completed job as an XLSX workbook.
func (s *Service) Export(ctx context.Context, id string, w io.Writer) (string, error) {
	job, err := s.completed(ctx, id)
	if err != nil {
		return "", err
	}
	at := s.now()
	if job.CompletedAt != nil {
		at = *job.CompletedAt
	}
	if err := s.exporter.Render(w, report.New(job.SourceFilename, job.Findings, s.catalog, at)); err != nil {
		return "", fmt.Errorf("export findings: %w", err)
	}
	return fmt.Sprintf("findings_%s.xlsx", job.ID), nil
}

func (s *Service) get(ctx context.Context, id string) (*entity.ValidationJob, error) {
	job, err := s.jobs.Get(ctx, id)
	if errors.Is(err, common.ErrUnknownJob) {
		return nil, common.NewAppError("NOT_FOUND", "Job ID not found", err)
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

func (s *Service) completed(ctx context.Context, id string) (*entity.ValidationJob, error) {
	job, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != constants.JobStatusCompleted {
		return nil, common.NewAppError("NOT_COMPLETED", "Validation not completed yet", common.ErrJobNotCompleted)
	}
	return job, nil
}
