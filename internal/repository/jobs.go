package repository

import (
	"context"

	"github.com/joseph-ayodele/thesis-checker/internal/entity"
)

// JobRepository is the job table. Updates replace the whole record so readers
// never observe a partially applied transition; records handed out are copies.
type JobRepository interface {
	Create(ctx context.Context, job *entity.ValidationJob) error
	Get(ctx context.Context, id string) (*entity.ValidationJob, error)
	Update(ctx context.Context, job *entity.ValidationJob) error
	// Delete removes a job that never started; it exists to roll back a failed submit.
	Delete(ctx context.Context, id string) error
}
