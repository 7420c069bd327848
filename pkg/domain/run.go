package domain

import (
	"fmt"
	"time"
)

type RunStatus string

const (
	// Lock is held and the archive is being written
	RunStatusRunning RunStatus = "running"

	// Archive was fully written and recorded
	RunStatusCompleted RunStatus = "completed"

	// Run finished with an error, no artifact is recorded
	RunStatusFailed RunStatus = "failed"
)

type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerScheduled Trigger = "scheduled"
)

// RunRecord is the outcome of the most recent run. Only one record exists at a
// time, every run overwrites it.
type RunRecord struct {
	Timestamp time.Time
	Status    RunStatus
	Trigger   Trigger

	// set on success
	ArtifactName string
	Size         int64

	// set on failure
	Error string
}

// A lock older than this is considered abandoned. Nothing verifies that the
// process which took it is actually gone.
const LockStaleAfter = 30 * time.Minute

type RunLock struct {
	Owner      string
	AcquiredAt time.Time
}

func (l RunLock) Stale(now time.Time) bool {
	return now.Sub(l.AcquiredAt) > LockStaleAfter
}

type RunStage string

const (
	StagePrepare RunStage = "prepare"
	StageExport  RunStage = "export"
	StageArchive RunStage = "archive"
	StageRecord  RunStage = "record"
)

// RunError is returned by BackupService.CreateBackup and tells at which stage
// the run was aborted.
type RunError struct {
	Stage RunStage
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *RunError) Cause() error {
	return e.Err
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// RunResult is what callers (admin API, CLI, scheduler) get back from a run.
type RunResult struct {
	Success bool
	Message string

	ArtifactName string
	Size         int64
	HumanSize    string

	Uploaded     bool
	LocalDeleted bool

	Err error
}
