package entity

import (
	"fmt"
	"time"

	"github.com/joseph-ayodele/thesis-checker/constants"
)

// ValidationJob is one user-submitted validation request and its lifecycle.
type ValidationJob struct {
	ID                 string              `json:"id"`
	Status             constants.JobStatus `json:"status"`
	ProgressMessage    string              `json:"progress_message"`
	SourceFilename     string              `json:"source_filename"`
	SourcePath         string              `json:"source_path"`
	Findings           []Finding           `json:"findings"`
	OutputArtifactPath string              `json:"output_artifact_path,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	CompletedAt        *time.Time          `json:"completed_at,omitempty"`
}

// NewValidationJob returns a queued job record.
func NewValidationJob(id, filename, sourcePath string, now time.Time) *ValidationJob {
	return &ValidationJob{
		ID:              id,
		Status:          constants.JobStatusQueued,
		ProgressMessage: "File uploaded, queued for validation",
		SourceFilename:  filename,
		SourcePath:      sourcePath,
		CreatedAt:       now.UTC(),
	}
}

// Clone returns a deep copy so readers never share mutable state with the store.
func (j *ValidationJob) Clone() *ValidationJob {
	if j == nil {
		return nil
	}
	c := *j
	c.Findings = CloneFindings(j.Findings)
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// ErrorCount is the number of findings, meaningful once completed.
func (j *ValidationJob) ErrorCount() int {
	return len(j.Findings)
}

// CheckTransition verifies next may replace j under the monotonic lifecycle rules.
func (j *ValidationJob) CheckTransition(next *ValidationJob) error {
	if next == nil || next.ID != j.ID {
		return fmt.Errorf("job id mismatch")
	}
	if !j.Status.CanTransition(next.Status) {
		return fmt.Errorf("%s -> %s", j.Status, next.Status)
	}
	if next.Status != constants.JobStatusCompleted && len(next.Findings) > 0 {
		return fmt.Errorf("findings set on %s job", next.Status)
	}
	return nil
}

// WithProgress returns a copy carrying a new progress message.
func (j *ValidationJob) WithProgress(msg string) *ValidationJob {
	c := j.Clone()
	c.ProgressMessage = msg
	return c
}

// Running returns the running copy of j.
func (j *ValidationJob) Running(msg string) *ValidationJob {
	c := j.WithProgress(msg)
	c.Status = constants.JobStatusRunning
	return c
}

// Completed returns the completed copy of j with every terminal field set together.
func (j *ValidationJob) Completed(findings []Finding, artifactPath string, at time.Time) *ValidationJob {
	c := j.Clone()
	c.Status = constants.JobStatusCompleted
	c.ProgressMessage = fmt.Sprintf("Validation completed. Found %d errors.", len(findings))
	c.Findings = CloneFindings(findings)
	if c.Findings == nil {
		c.Findings = []Finding{}
	}
	c.OutputArtifactPath = artifactPath
	t := at.UTC()
	c.CompletedAt = &t
	return c
}

// Failed returns the failed copy of j; findings stay empty.
func (j *ValidationJob) Failed(cause error, at time.Time) *ValidationJob {
	c := j.Clone()
	c.Status = constants.JobStatusFailed
	c.ProgressMessage = fmt.Sprintf("Validation failed: %v", cause)
	c.Findings = nil
	t := at.UTC()
	c.CompletedAt = &t
	return c
}
