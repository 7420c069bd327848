package domainfx

import (
	"github.com/juju/clock"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/yurykabanov/sitebackup/pkg/domain"
	"github.com/yurykabanov/sitebackup/pkg/http/handler"
)

func Clock() clock.Clock {
	return clock.WallClock
}

func NewCron(logger *logrus.Logger) *cron.Cron {
	return cron.New(cron.WithLogger(cron.PrintfLogger(logger)))
}

func BackupService(
	logger *logrus.Logger,
	fs afero.Fs,
	clk clock.Clock,
	settings domain.Settings,
	store domain.LocalArtifactStore,
	exporter domain.DatabaseExporter,
	records domain.RunRecordRepository,
) *domain.BackupService {
	return domain.NewBackupService(logger, fs, clk, settings.Backup, store, exporter, records)
}

func Catalog(
	logger *logrus.Logger,
	local domain.LocalArtifactStore,
	remote domain.RemoteArtifactStore,
) (*domain.Catalog, handler.ArtifactCatalog) {
	catalog := domain.NewCatalog(logger, local, remote)

	return catalog, catalog
}

func Retention(
	logger *logrus.Logger,
	settings domain.Settings,
	catalog *domain.Catalog,
	local domain.LocalArtifactStore,
	remote domain.RemoteArtifactStore,
) *domain.Retention {
	return domain.NewRetention(logger, catalog, local, remote, settings.RetentionPolicy())
}

func Coordinator(
	logger *logrus.Logger,
	clk clock.Clock,
	settings domain.Settings,
	service *domain.BackupService,
	retention *domain.Retention,
	transfer domain.ArtifactTransfer,
	records domain.RunRecordRepository,
	locks domain.LockRepository,
	notifier domain.Notifier,
) (*domain.Coordinator, handler.BackupRunner) {
	coordinator := domain.NewCoordinator(logger, clk, settings, service, retention, transfer, records, locks, notifier)

	return coordinator, coordinator
}

func Scheduler(
	logger *logrus.Logger,
	clk clock.Clock,
	c *cron.Cron,
	coordinator *domain.Coordinator,
	repo domain.ScheduleRepository,
	settings domain.Settings,
) (*domain.Scheduler, handler.Schedule) {
	scheduler := domain.NewScheduler(logger, clk, c, coordinator, repo, settings.ScheduleInterval)

	return scheduler, scheduler
}
