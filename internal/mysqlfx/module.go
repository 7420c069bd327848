package mysqlfx

import (
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(MysqlConfigProvider),
	fx.Provide(OpenMysqlDatabase),
	fx.Provide(ExporterConfigProvider),
	fx.Provide(DatabaseExporter),
	fx.Invoke(CloseMysqlDatabase),
)
