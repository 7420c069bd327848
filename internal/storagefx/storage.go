package storagefx

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/yurykabanov/sitebackup/pkg/domain"
	"github.com/yurykabanov/sitebackup/pkg/http/handler"
	"github.com/yurykabanov/sitebackup/pkg/transfer"
)

func Filesystem() afero.Fs {
	return afero.NewOsFs()
}

func LocalStore(fs afero.Fs, settings domain.Settings) (*transfer.LocalStore, domain.LocalArtifactStore) {
	store := transfer.NewLocalStore(fs, settings.Backup.Directory)

	return store, store
}

func RemoteStore(logger *logrus.Logger, fs afero.Fs, settings domain.Settings) (domain.RemoteArtifactStore, error) {
	remote, err := transfer.NewS3Remote(context.Background(), logger, fs, settings.Storage)
	if err != nil {
		return nil, err
	}

	return remote, nil
}

func TransferManager(
	logger *logrus.Logger,
	local *transfer.LocalStore,
	remote domain.RemoteArtifactStore,
	settings domain.Settings,
) (*transfer.Manager, domain.ArtifactTransfer, handler.ArtifactManager) {
	manager := transfer.NewManager(logger, local, remote, settings.Storage)

	return manager, manager, manager
}
