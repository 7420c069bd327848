package transfer

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/yurykabanov/sitebackup/pkg/domain"
)

const htaccess = "Order deny,allow\nDeny from all\n"

// LocalStore is the backup directory on disk. Every *.zip file directly in
// it is an artifact.
type LocalStore struct {
	fs  afero.Fs
	dir string
}

func NewLocalStore(fs afero.Fs, dir string) *LocalStore {
	return &LocalStore{
		fs:  fs,
		dir: filepath.Clean(dir),
	}
}

func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Ensure creates the backup directory. A fresh directory also gets a deny-all
// .htaccess in case it is placed under a web root.
func (s *LocalStore) Ensure() error {
	exists, err := afero.DirExists(s.fs, s.dir)
	if err != nil {
		return errors.Wrap(err, "unable to stat backup directory")
	}
	if exists {
		return nil
	}

	err = s.fs.MkdirAll(s.dir, 0750)
	if err != nil {
		return errors.Wrap(err, "unable to create backup directory")
	}

	// the marker is optional, a failure to write it does not fail the run
	_ = afero.WriteFile(s.fs, filepath.Join(s.dir, ".htaccess"), []byte(htaccess), 0640)

	return nil
}

func (s *LocalStore) List(ctx context.Context) ([]domain.Artifact, error) {
	infos, err := afero.ReadDir(s.fs, s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "unable to list backup directory")
	}

	var artifacts []domain.Artifact

	for _, info := range infos {
		if !info.Mode().IsRegular() || !strings.HasSuffix(info.Name(), domain.ArtifactExtension) {
			continue
		}

		artifacts = append(artifacts, artifactFromInfo(info))
	}

	return artifacts, nil
}

func (s *LocalStore) Stat(name string) (domain.Artifact, error) {
	if !domain.ValidArtifactName(name) {
		return domain.Artifact{}, domain.ErrInvalidArtifactName
	}

	info, err := s.fs.Stat(s.Path(name))
	if os.IsNotExist(err) || (err == nil && !info.Mode().IsRegular()) {
		return domain.Artifact{}, domain.ErrArtifactNotFound
	}
	if err != nil {
		return domain.Artifact{}, errors.Wrapf(err, "unable to stat %s", name)
	}

	return artifactFromInfo(info), nil
}

func (s *LocalStore) Open(name string) (afero.File, error) {
	if _, err := s.Stat(name); err != nil {
		return nil, err
	}

	return s.fs.Open(s.Path(name))
}

func (s *LocalStore) Delete(ctx context.Context, name string) error {
	if !domain.ValidArtifactName(name) {
		return domain.ErrInvalidArtifactName
	}

	err := s.fs.Remove(s.Path(name))
	if os.IsNotExist(err) {
		return domain.ErrArtifactNotFound
	}

	return errors.Wrapf(err, "unable to delete %s", name)
}

func artifactFromInfo(info os.FileInfo) domain.Artifact {
	return domain.Artifact{
		Name:      info.Name(),
		Size:      info.Size(),
		CreatedAt: info.ModTime(),
		Location:  domain.LocationLocal,
	}
}
