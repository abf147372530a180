package constants

// JobStatus is the canonical status of a validation job.
type JobStatus string

// Stable values (stored verbatim by the sqlite job store).
const (
	JobStatusQueued    JobStatus = "queued"    // accepted, not yet picked up
	JobStatusRunning   JobStatus = "running"   // pipeline in progress
	JobStatusCompleted JobStatus = "completed" // terminal success
	JobStatusFailed    JobStatus = "failed"    // terminal failure
)

// IsTerminal reports whether no further transition is allowed.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransition reports whether moving from s to next follows queued -> running -> {completed|failed}.
// Staying in the same non-terminal status is allowed so progress messages can be updated in place.
func (s JobStatus) CanTransition(next JobStatus) bool {
	switch s {
	case JobStatusQueued:
		return next == JobStatusQueued || next == JobStatusRunning
	case JobStatusRunning:
		return next == JobStatusRunning || next == JobStatusCompleted || next == JobStatusFailed
	default:
		return false
	}
}

// APIStatus is the vocabulary used on the HTTP surface.
func (s JobStatus) APIStatus() string {
	if s == JobStatusRunning {
		return "processing"
	}
	return string(s)
}
