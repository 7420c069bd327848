package domainfx

import (
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(Clock),
	fx.Provide(NewCron),
	fx.Provide(MailerConfigProvider),
	fx.Provide(Notifier),
	fx.Provide(BackupService),
	fx.Provide(Catalog),
	fx.Provide(Retention),
	fx.Provide(Coordinator),
	fx.Provide(Scheduler),
)
