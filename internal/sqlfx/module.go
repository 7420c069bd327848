package sqlfx

import (
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(SqliteConfigProvider),
	fx.Provide(OpenSqliteDatabase),
	fx.Provide(RunRecordRepository),
	fx.Provide(LockRepository),
	fx.Provide(ScheduleRepository),
	fx.Invoke(CloseSqliteDatabase),
)
