package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/thesis-checker/constants"
	"github.com/joseph-ayodele/thesis-checker/internal/common"
	"github.com/joseph-ayodele/thesis-checker/internal/entity"
	"github.com/joseph-ayodele/thesis-checker/internal/llm"
	"github.com/joseph-ayodele/thesis-checker/internal/report"
	"github.com/joseph-ayodele/thesis-checker/internal/repository"
	"github.com/joseph-ayodele/thesis-checker/internal/rules"
	"github.com/joseph-ayodele/thesis-checker/internal/storage"
)

// Progress messages published while a job runs.
const (
	ProgressExtracting = "Processing PDF..."
	ProgressJudging    = "Running AI validation agent..."
	ProgressRendering  = "Generating annotated PDF..."
)

// Judge produces the ordered findings for an extracted document. *llm.Engine implements it.
type Judge interface {
	Judge(ctx context.Context, in llm.JudgeInput) []entity.Finding
}

// Result is the outcome of validating one document without a job record.
type Result struct {
	Filename   string
	Extraction Extraction
	Findings   []entity.Finding
}

// Report builds the renderable report for the result.
func (r Result) Report(catalog *rules.Catalog, at time.Time) report.Report {
	return report.New(r.Filename, r.Findings, catalog, at)
}

// Processor runs Extractor -> Judgment -> Renderer for one job, publishing
// each transition through the job repository.
type Processor struct {
	logger   *slog.Logger
	jobs     repository.JobRepository
	files    *storage.FileStore
	extract  *ExtractStage
	judge    Judge
	renderer report.Renderer
	catalog  *rules.Catalog
	now      func() time.Time
}

func NewProcessor(
	logger *slog.Logger,
	jobs repository.JobRepository,
	files *storage.FileStore,
	judge Judge,
	renderer report.Renderer,
	catalog *rules.Catalog,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if catalog == nil {
		catalog = rules.Default()
	}
	return &Processor{
		logger:   logger,
		jobs:     jobs,
		files:    files,
		extract:  NewExtractStage(logger),
		judge:    judge,
		renderer: renderer,
		catalog:  catalog,
		now:      time.Now,
	}
}

// WithClock overrides the time source; used by tests.
func (p *Processor) WithClock(now func() time.Time) *Processor {
	p.now = now
	return p
}

// Validate runs extraction and judgment on data without touching any job state.
func (p *Processor) Validate(ctx context.Context, filename string, data []byte) (*Result, error) {
	ex, err := p.extract.Run(data)
	if err != nil {
		return nil, err
	}
	findings := p.judge.Judge(ctx, ex.JudgeInput())
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("judgment interrupted: %w", err)
	}
	return &Result{Filename: filename, Extraction: ex, Findings: findings}, nil
}

// Render writes the report for res with the configured renderer.
func (p *Processor) Render(w io.Writer, res *Result) error {
	return p.renderer.Render(w, res.Report(p.catalog, p.now()))
}

// Run executes the pipeline for jobID. Any stage error, or a panic, moves the
// job to failed with the cause as its progress message; findings stay empty.
func (p *Processor) Run(ctx context.Context, jobID string) (err error) {
	start := time.Now()
	ctx = common.WithJobID(ctx, jobID)

	job, err := p.jobs.Get(ctx, jobID)
	if err != nil {
		return fmt.Errorf("get job: %w", err)
	}
	if job.Status.IsTerminal() {
		p.logger.Warn("pipeline.run.skipped", "job_id", jobID, "status", job.Status)
		return nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("internal error: %v", rec)
		}
		if err != nil {
			p.fail(ctx, job, err)
		}
	}()

	job, err = p.advance(ctx, job, ProgressExtracting)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(job.SourcePath)
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}
	ex, err := p.extract.Run(data)
	if err != nil {
		return err
	}

	job, err = p.advance(ctx, job, ProgressJudging)
	if err != nil {
		return err
	}
	findings := p.judge.Judge(ctx, ex.JudgeInput())
	if cerr := ctx.Err(); cerr != nil {
		return fmt.Errorf("judgment interrupted: %w", cerr)
	}

	job, err = p.advance(ctx, job, ProgressRendering)
	if err != nil {
		return err
	}
	res := &Result{Filename: job.SourceFilename, Extraction: ex, Findings: findings}
	path, err := p.files.WriteArtifact(jobID, func(w io.Writer) error {
		return p.Render(w, res)
	})
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	done := job.Completed(findings, path, p.now())
	if err := p.jobs.Update(ctx, done); err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	counts := entity.SeverityCounts(findings)
	p.logger.Info("pipeline.run.completed",
		"job_id", jobID,
		"pages", ex.PageCount,
		"findings", len(findings),
		"critical", counts[constants.SeverityCritical],
		"major", counts[constants.SeverityMajor],
		"minor", counts[constants.SeverityMinor],
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (p *Processor) advance(ctx context.Context, job *entity.ValidationJob, msg string) (*entity.ValidationJob, error) {
	next := job.Running(msg)
	if err := p.jobs.Update(ctx, next); err != nil {
		return job, fmt.Errorf("update progress: %w", err)
	}
	p.logger.Debug("pipeline.stage", "job_id", job.ID, "progress", msg)
	return next, nil
}

func (p *Processor) fail(ctx context.Context, job *entity.ValidationJob, cause error) {
	p.logger.Error("pipeline.run.failed", "job_id", job.ID, "error", cause)
	// the failure must be recorded even when ctx is the reason we stopped
	ctx = context.WithoutCancel(ctx)
	latest, err := p.jobs.Get(ctx, job.ID)
	if err != nil {
		latest = job
	}
	if latest.Status.IsTerminal() {
		return
	}
	if latest.Status == constants.JobStatusQueued {
		running := latest.Running(latest.ProgressMessage)
		if err := p.jobs.Update(ctx, running); err == nil {
			latest = running
		}
	}
	failed := latest.Failed(errors.New(common.PublicMessage(cause)), p.now())
	if err := p.jobs.Update(ctx, failed); err != nil {
		p.logger.Error("pipeline.run.fail_record_failed", "job_id", job.ID, "error", err)
	}
}
