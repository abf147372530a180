package repository

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/joseph-ayodele/thesis-checker/internal/common"
	"github.com/joseph-ayodele/thesis-checker/internal/entity"
)

// MemoryJobRepository keeps jobs in process memory for the life of the process.
type MemoryJobRepository struct {
	mu   sync.RWMutex
	jobs map[string]*entity.ValidationJob
	log  *slog.Logger
}

func NewMemoryJobRepository(log *slog.Logger) *MemoryJobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &MemoryJobRepository{jobs: make(map[string]*entity.ValidationJob), log: log}
}

func (r *MemoryJobRepository) Create(_ context.Context, job *entity.ValidationJob) error {
	if job == nil || job.ID == "" {
		return fmt.Errorf("create job: %w", common.ErrInvalidInput)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[job.ID]; exists {
		return fmt.Errorf("job %s already exists: %w", job.ID, common.ErrInvalidInput)
	}
	r.jobs[job.ID] = job.Clone()
	r.log.Debug("jobs.create", "job_id", job.ID, "status", job.Status)
	return nil
}

func (r *MemoryJobRepository) Get(_ context.Context, id string) (*entity.ValidationJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, common.ErrUnknownJob
	}
	return job.Clone(), nil
}

func (r *MemoryJobRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[id]; !ok {
		return common.ErrUnknownJob
	}
	delete(r.jobs, id)
	return nil
}

func (r *MemoryJobRepository) Update(_ context.Context, job *entity.ValidationJob) error {
	if job == nil {
		return fmt.Errorf("update job: %w", common.ErrInvalidInput)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.jobs[job.ID]
	if !ok {
		return common.ErrUnknownJob
	}
	if err := current.CheckTransition(job); err != nil {
		r.log.Warn("jobs.update.rejected", "job_id", job.ID, "error", err)
		return fmt.Errorf("%w: %v", common.ErrInvalidTransition, err)
	}
	r.jobs[job.ID] = job.Clone()
	r.log.Debug("jobs.update", "job_id", job.ID, "status", job.Status, "progress", job.ProgressMessage)
	return nil
}
