package storagefx

import (
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(Filesystem),
	fx.Provide(LocalStore),
	fx.Provide(RemoteStore),
	fx.Provide(TransferManager),
)
