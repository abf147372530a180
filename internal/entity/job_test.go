package entity_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/thesis-checker/constants"
	"github.com/joseph-ayodele/thesis-checker/internal/entity"
)

func TestValidationJob_Lifecycle(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	queued := entity.NewValidationJob("job-1", "thesis.pdf", "/tmp/job-1_thesis.pdf", now)
	assert.Equal(t, constants.JobStatusQueued, queued.Status)
	assert.Empty(t, queued.Findings)

	running := queued.Running("Extracting text from PDF...")
	require.NoError(t, queued.CheckTransition(running))

	findings := []entity.Finding{entity.NewFinding(0, "critical", "Missing university name", "identity")}
	done := running.Completed(findings, "/out/job-1_report.pdf", now.Add(time.Minute))
	require.NoError(t, running.CheckTransition(done))
	assert.Equal(t, constants.JobStatusCompleted, done.Status)
	assert.Equal(t, "Validation completed. Found 1 errors.", done.ProgressMessage)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, "/out/job-1_report.pdf", done.OutputArtifactPath)

	// terminal states accept nothing
	assert.Error(t, done.CheckTransition(done.Running("again")))
	assert.Error(t, done.CheckTransition(done.Failed(errors.New("late"), now)))
	// no going back
	assert.Error(t, running.CheckTransition(queued))
}

func TestValidationJob_FailedHasNoFindings(t *testing.T) {
	running := entity.NewValidationJob("job-2", "a.pdf", "", time.Now()).Running("working")
	failed := running.Failed(errors.New("unreadable document"), time.Now())
	require.NoError(t, running.CheckTransition(failed))
	assert.Nil(t, failed.Findings)
	assert.Contains(t, failed.ProgressMessage, "unreadable document")
}

func TestValidationJob_CheckTransitionRejectsPartialFindings(t *testing.T) {
	running := entity.NewValidationJob("job-3", "a.pdf", "", time.Now()).Running("working")
	partial := running.WithProgress("still working")
	partial.Findings = []entity.Finding{entity.NewFinding(1, "MINOR", "x", "")}
	assert.Error(t, running.CheckTransition(partial))
}

func TestValidationJob_CloneIsDeep(t *testing.T) {
	done := entity.NewValidationJob("job-4", "a.pdf", "", time.Now()).
		Running("r").
		Completed([]entity.Finding{entity.NewFinding(0, "MAJOR", "m", "structure")}, "out.pdf", time.Now())

	c := done.Clone()
	c.Findings[0].Message = "changed"
	*c.CompletedAt = c.CompletedAt.Add(time.Hour)

	assert.Equal(t, "m", done.Findings[0].Message)
	assert.NotEqual(t, *done.CompletedAt, *c.CompletedAt)
}

func TestNewFinding_Coercion(t *testing.T) {
	f := entity.NewFinding(-3, "severe-ish", "  text  ", "")
	assert.Equal(t, 0, f.PageNumber)
	assert.Equal(t, constants.SeverityMinor, f.Severity)
	assert.Equal(t, "text", f.Message)
	assert.Equal(t, "formatting", f.Category)
}

func TestSeverityCounts(t *testing.T) {
	counts := entity.SeverityCounts([]entity.Finding{
		entity.NewFinding(0, "CRITICAL", "a", ""),
		entity.NewFinding(0, "CRITICAL", "b", ""),
		entity.NewFinding(0, "MINOR", "c", ""),
	})
	assert.Equal(t, 2, counts[constants.SeverityCritical])
	assert.Equal(t, 0, counts[constants.SeverityMajor])
	assert.Equal(t, 1, counts[constants.SeverityMinor])
}
