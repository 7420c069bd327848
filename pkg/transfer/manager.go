package transfer

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/yurykabanov/sitebackup/pkg/appcontext"
	"github.com/yurykabanov/sitebackup/pkg/domain"
)

// Manager moves artifacts between the backup directory and the remote
// bucket and resolves where an artifact can be fetched from.
type Manager struct {
	logger logrus.FieldLogger

	local  *LocalStore
	remote domain.RemoteArtifactStore

	deleteLocal bool
	presignTTL  time.Duration
}

func NewManager(logger logrus.FieldLogger, local *LocalStore, remote domain.RemoteArtifactStore, target domain.StorageTarget) *Manager {
	return &Manager{
		logger:      logger,
		local:       local,
		remote:      remote,
		deleteLocal: target.DeleteLocalAfterUpload,
		presignTTL:  target.PresignTTL,
	}
}

// Offload uploads a fresh artifact. The local copy is removed only after a
// successful upload and only when configured to; a failed removal leaves
// both copies in place.
func (m *Manager) Offload(ctx context.Context, name string) domain.OffloadResult {
	var result domain.OffloadResult

	if !m.remote.Configured() {
		return result
	}

	logger := appcontext.LoggerFromContext(m.logger, ctx)

	result.Uploaded = m.remote.Upload(ctx, m.local.Path(name), name)
	if !result.Uploaded {
		logger.Warn("Upload failed, artifact stays local")
		return result
	}

	if !m.deleteLocal {
		return result
	}

	err := m.local.Delete(ctx, name)
	if err != nil {
		logger.WithError(err).Warn("Unable to delete local copy after upload")
		return result
	}

	result.LocalDeleted = true

	return result
}

// Remove deletes the artifact from both locations independently. It succeeds
// if at least one of the deletions did.
func (m *Manager) Remove(ctx context.Context, name string) error {
	if !domain.ValidArtifactName(name) {
		return domain.ErrInvalidArtifactName
	}

	logger := appcontext.LoggerFromContext(m.logger, ctx).WithField("artifact", name)

	localErr := m.local.Delete(ctx, name)
	if localErr != nil && localErr != domain.ErrArtifactNotFound {
		logger.WithError(localErr).Warn("Unable to delete local artifact")
	}

	remoteOk := m.remote.Configured() && m.remote.Delete(ctx, name)

	switch {
	case localErr == nil || remoteOk:
		logger.WithFields(logrus.Fields{"local": localErr == nil, "remote": remoteOk}).Info("Artifact deleted")
		return nil
	case localErr == domain.ErrArtifactNotFound:
		return domain.ErrArtifactNotFound
	default:
		return errors.Wrap(localErr, "unable to delete artifact")
	}
}

// Locate prefers the local copy. A remote-only artifact gets a pre-signed
// URL instead.
func (m *Manager) Locate(ctx context.Context, name string) (domain.ArtifactLocation, error) {
	_, err := m.local.Stat(name)
	if err == nil {
		return domain.ArtifactLocation{Name: name, LocalPath: m.local.Path(name)}, nil
	}
	if err != domain.ErrArtifactNotFound {
		return domain.ArtifactLocation{}, err
	}

	if !m.remote.Configured() || !m.remoteHas(ctx, name) {
		return domain.ArtifactLocation{}, domain.ErrArtifactNotFound
	}

	url, ok := m.remote.SignedDownloadURL(ctx, name, m.presignTTL)
	if !ok {
		return domain.ArtifactLocation{}, errors.New("unable to sign download URL")
	}

	return domain.ArtifactLocation{Name: name, URL: url}, nil
}

func (m *Manager) Open(name string) (afero.File, error) {
	return m.local.Open(name)
}

func (m *Manager) remoteHas(ctx context.Context, name string) bool {
	for _, a := range m.remote.List(ctx) {
		if a.Name == name {
			return true
		}
	}

	return false
}
