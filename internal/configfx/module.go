package configfx

import (
	"go.uber.org/fx"
)

// Module expects the command's *pflag.FlagSet to be supplied.
var Module = fx.Options(
	fx.Provide(ViperProvider),
	fx.Provide(SettingsProvider),
)
