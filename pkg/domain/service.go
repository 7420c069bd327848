package domain

import (
	"context"
	"path/filepath"

	"github.com/juju/clock"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/yurykabanov/sitebackup/pkg/appcontext"
	"github.com/yurykabanov/sitebackup/pkg/archive"
)

// Entry name of the database dump inside an artifact.
const DatabaseEntryName = "database.sql"

// BackupService builds a single artifact: database dump plus the filtered
// file tree, written into one zip in the backup directory.
type BackupService struct {
	logger logrus.FieldLogger

	fs    afero.Fs
	clock clock.Clock

	settings BackupSettings

	store    LocalArtifactStore
	exporter DatabaseExporter
	records  RunRecordRepository
}

func NewBackupService(
	logger logrus.FieldLogger,
	fs afero.Fs,
	clk clock.Clock,
	settings BackupSettings,
	store LocalArtifactStore,
	exporter DatabaseExporter,
	records RunRecordRepository,
) *BackupService {
	return &BackupService{
		logger:   logger,
		fs:       fs,
		clock:    clk,
		settings: settings,
		store:    store,
		exporter: exporter,
		records:  records,
	}
}

// CreateBackup writes a new artifact and records it as the last completed
// run. On failure the partial container is removed, nothing is recorded and
// a *RunError is returned.
func (s *BackupService) CreateBackup(ctx context.Context, trigger Trigger) (artifact Artifact, err error) {
	err = s.store.Ensure()
	if err != nil {
		return Artifact{}, &RunError{Stage: StagePrepare, Err: err}
	}

	now := s.clock.Now()
	name := ArtifactName(now)

	ctx = appcontext.WithArtifact(ctx, name)
	logger := appcontext.LoggerFromContext(s.logger, ctx)

	w, err := archive.Create(s.fs, s.store.Path(name))
	if err != nil {
		return Artifact{}, &RunError{Stage: StageArchive, Err: err}
	}

	defer func() {
		if err != nil {
			logger.WithError(err).Debug("BackupService::CreateBackup finished with error, removing partial artifact")

			if abortErr := w.Abort(); abortErr != nil {
				logger.WithError(abortErr).Error("BackupService::CreateBackup is unable to remove partial artifact")
			}
		}
	}()

	if s.settings.ExportDatabase {
		err = s.addDatabase(ctx, w)
		if err != nil {
			return Artifact{}, err
		}
	}

	if s.settings.ExportFiles {
		err = s.addFiles(logger, w)
		if err != nil {
			return Artifact{}, err
		}
	}

	err = w.Close()
	if err != nil {
		return Artifact{}, &RunError{Stage: StageArchive, Err: err}
	}

	artifact, err = s.store.Stat(name)
	if err != nil {
		return Artifact{}, &RunError{Stage: StageArchive, Err: err}
	}

	err = s.records.Save(ctx, RunRecord{
		Timestamp:    now,
		Status:       RunStatusCompleted,
		Trigger:      trigger,
		ArtifactName: artifact.Name,
		Size:         artifact.Size,
	})
	if err != nil {
		return Artifact{}, &RunError{Stage: StageRecord, Err: errors.Wrap(err, "unable to record last run")}
	}

	logger.WithField("size", artifact.Size).Info("Artifact created")

	return artifact, nil
}

func (s *BackupService) addDatabase(ctx context.Context, w *archive.Writer) error {
	if s.exporter == nil {
		return &RunError{Stage: StageExport, Err: errors.New("database export is enabled but no database is configured")}
	}

	dump, err := s.exporter.ExportToDir(ctx, s.store.Dir())
	if err != nil {
		return &RunError{Stage: StageExport, Err: err}
	}

	defer func() {
		if err := s.fs.Remove(dump); err != nil {
			appcontext.LoggerFromContext(s.logger, ctx).WithError(err).Warn("Unable to remove transient database export")
		}
	}()

	err = w.AddFile(dump, DatabaseEntryName)
	if err != nil {
		return &RunError{Stage: StageArchive, Err: err}
	}

	return nil
}

func (s *BackupService) addFiles(logger logrus.FieldLogger, w *archive.Writer) error {
	source, err := filepath.Abs(s.settings.SourceDirectory)
	if err != nil {
		return &RunError{Stage: StagePrepare, Err: errors.Wrap(err, "unable to resolve source directory")}
	}

	backupDir, err := filepath.Abs(s.store.Dir())
	if err != nil {
		return &RunError{Stage: StagePrepare, Err: errors.Wrap(err, "unable to resolve backup directory")}
	}

	names := append([]string{filepath.Base(backupDir)}, DefaultExcludedDirectories...)

	stats, err := w.AddTree(archive.TreeOptions{
		Source:    source,
		Root:      s.settings.ArchiveRoot,
		SkipPaths: []string{backupDir},
		Excluder: archive.Excluder{
			Names:    names,
			Patterns: s.settings.ExcludePatterns,
		},
		MaxFileSize: s.settings.MaxFileSize,
		Logger:      logger,
	})
	if err != nil {
		return &RunError{Stage: StageArchive, Err: err}
	}

	logger.WithFields(logrus.Fields{
		"files":            stats.Files,
		"directories":      stats.Directories,
		"bytes":            stats.Bytes,
		"skipped_large":    stats.SkippedLarge,
		"skipped_excluded": stats.SkippedExcluded,
	}).Info("File tree archived")

	return nil
}
