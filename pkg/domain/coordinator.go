package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"

	"github.com/yurykabanov/sitebackup/pkg/appcontext"
	"github.com/yurykabanov/sitebackup/pkg/metrics"
)

type backupCreator interface {
	CreateBackup(context.Context, Trigger) (Artifact, error)
}

type pruner interface {
	PruneOldest(ctx context.Context, maxArtifacts int) PruneReport
}

// Coordinator runs the whole pipeline under the run lock:
//
//	lock -> create artifact -> prune -> offload -> unlock
//
// The lock is a single row updated atomically. A lock older than
// LockStaleAfter is taken over without checking whether its owner is alive.
type Coordinator struct {
	logger logrus.FieldLogger
	clock  clock.Clock

	service   backupCreator
	retention pruner
	transfer  ArtifactTransfer

	records  RunRecordRepository
	locks    LockRepository
	notifier Notifier

	maxArtifacts    int
	notifyOnFailure bool
}

func NewCoordinator(
	logger logrus.FieldLogger,
	clk clock.Clock,
	settings Settings,
	service backupCreator,
	retention pruner,
	transfer ArtifactTransfer,
	records RunRecordRepository,
	locks LockRepository,
	notifier Notifier,
) *Coordinator {
	return &Coordinator{
		logger: logger,
		clock:  clk,

		service:   service,
		retention: retention,
		transfer:  transfer,

		records:  records,
		locks:    locks,
		notifier: notifier,

		maxArtifacts:    settings.Backup.MaxArtifacts,
		notifyOnFailure: settings.EmailNotifications,
	}
}

// IsRunning reports whether a live lock is held. A stale lock is cleared on
// the way.
func (c *Coordinator) IsRunning(ctx context.Context) bool {
	logger := appcontext.LoggerFromContext(c.logger, ctx)

	lock, held, err := c.locks.Current(ctx)
	if err != nil {
		logger.WithError(err).Error("Unable to read run lock")
		return false
	}
	if !held {
		return false
	}

	now := c.clock.Now()
	if !lock.Stale(now) {
		return true
	}

	logger.WithFields(logrus.Fields{"owner": lock.Owner, "acquired_at": lock.AcquiredAt}).Warn("Clearing stale run lock")

	_, err = c.locks.ClearStale(ctx, now.Add(-LockStaleAfter))
	if err != nil {
		logger.WithError(err).Error("Unable to clear stale run lock")
	}

	return false
}

func (c *Coordinator) LastRun(ctx context.Context) (RunRecord, bool, error) {
	return c.records.Last(ctx)
}

// Run executes one backup synchronously. It never panics on a failed run,
// the outcome is always described by the returned RunResult.
func (c *Coordinator) Run(ctx context.Context, trigger Trigger) RunResult {
	runId := uuid.NewString()

	ctx = appcontext.WithRunId(appcontext.WithTrigger(ctx, string(trigger)), runId)
	logger := appcontext.LoggerFromContext(c.logger, ctx)

	startedAt := c.clock.Now()

	acquired, err := c.locks.TryAcquire(ctx, runId, startedAt, startedAt.Add(-LockStaleAfter))
	if err != nil {
		logger.WithError(err).Error("Unable to acquire run lock")
		metrics.Runs.WithLabelValues(string(trigger), "skipped").Inc()
		return RunResult{Message: "Unable to acquire run lock: " + err.Error(), Err: err}
	}
	if !acquired {
		logger.Warn("Another backup is already running, skipping")
		metrics.Runs.WithLabelValues(string(trigger), "skipped").Inc()
		return RunResult{Message: "A backup is already running", Err: ErrAlreadyRunning}
	}

	defer func() {
		// released even if the caller is gone
		if err := c.locks.Release(context.Background(), runId); err != nil {
			logger.WithError(err).Error("Unable to release run lock")
		}
	}()

	logger.Info("Starting backup run")

	c.saveRecord(ctx, RunRecord{Timestamp: startedAt, Status: RunStatusRunning, Trigger: trigger})

	artifact, err := c.service.CreateBackup(ctx, trigger)

	metrics.RunDuration.Observe(c.clock.Now().Sub(startedAt).Seconds())

	if err != nil {
		return c.fail(ctx, trigger, err)
	}

	metrics.Runs.WithLabelValues(string(trigger), string(RunStatusCompleted)).Inc()
	metrics.LastArtifactSize.Set(float64(artifact.Size))

	ctx = appcontext.WithArtifact(ctx, artifact.Name)

	report := c.retention.PruneOldest(ctx, c.maxArtifacts)
	if report.Err != nil {
		appcontext.LoggerFromContext(c.logger, ctx).WithError(report.Err).Warn("Retention finished with errors")
	}

	offload := c.transfer.Offload(ctx, artifact.Name)

	humanSize := humanize.Bytes(uint64(artifact.Size))

	appcontext.LoggerFromContext(c.logger, ctx).WithFields(logrus.Fields{
		"size":          artifact.Size,
		"uploaded":      offload.Uploaded,
		"local_deleted": offload.LocalDeleted,
		"duration":      c.clock.Now().Sub(startedAt).String(),
	}).Info("Backup run completed")

	return RunResult{
		Success:      true,
		Message:      fmt.Sprintf("Backup created successfully: %s (%s)", artifact.Name, humanSize),
		ArtifactName: artifact.Name,
		Size:         artifact.Size,
		HumanSize:    humanSize,
		Uploaded:     offload.Uploaded,
		LocalDeleted: offload.LocalDeleted,
	}
}

func (c *Coordinator) fail(ctx context.Context, trigger Trigger, err error) RunResult {
	logger := appcontext.LoggerFromContext(c.logger, ctx)

	logger.WithError(err).Error("Backup run failed")
	metrics.Runs.WithLabelValues(string(trigger), string(RunStatusFailed)).Inc()

	c.saveRecord(ctx, RunRecord{
		Timestamp: c.clock.Now(),
		Status:    RunStatusFailed,
		Trigger:   trigger,
		Error:     err.Error(),
	})

	if c.notifyOnFailure && c.notifier != nil {
		notifyCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if nErr := c.notifier.SendFailure(notifyCtx, err.Error()); nErr != nil {
			logger.WithError(nErr).Warn("Unable to send failure notification")
		}
	}

	return RunResult{
		Message: "Backup failed: " + err.Error(),
		Err:     err,
	}
}

func (c *Coordinator) saveRecord(ctx context.Context, record RunRecord) {
	err := c.records.Save(ctx, record)
	if err != nil {
		appcontext.LoggerFromContext(c.logger, ctx).WithError(err).WithField("status", record.Status).Error("Unable to save run record")
	}
}
