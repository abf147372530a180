package async

import (
	"context"
	"time"
)

// Job is one unit of background work: a validation job to run.
type Job struct {
	JobID       string
	SubmittedAt time.Time
	TraceID     string
}

// Runner executes the pipeline for a job. *pipeline.Processor implements it.
type Runner interface {
	Run(ctx context.Context, jobID string) error
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
