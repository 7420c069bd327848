package transfer

import (
	"context"
	"io/ioutil"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurykabanov/sitebackup/pkg/domain"
)

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.Out = ioutil.Discard
	return logger
}

func TestLocalStore_Ensure(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewLocalStore(fs, "/var/backups/site/")

	require.NoError(t, store.Ensure())

	content, err := afero.ReadFile(fs, "/var/backups/site/.htaccess")
	require.NoError(t, err)
	assert.Equal(t, "Order deny,allow\nDeny from all\n", string(content))

	// existing directory is left alone
	require.NoError(t, fs.Remove("/var/backups/site/.htaccess"))
	require.NoError(t, store.Ensure())

	exists, err := afero.Exists(fs, "/var/backups/site/.htaccess")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalStore_List(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewLocalStore(fs, "/backups")

	require.NoError(t, afero.WriteFile(fs, "/backups/backup-1.zip", []byte("12345"), 0640))
	require.NoError(t, afero.WriteFile(fs, "/backups/temp_database_1.sql", []byte("--"), 0600))
	require.NoError(t, afero.WriteFile(fs, "/backups/.htaccess", []byte(htaccess), 0640))
	require.NoError(t, fs.MkdirAll("/backups/nested.zip", 0750))

	artifacts, err := store.List(context.Background())
	require.NoError(t, err)

	require.Len(t, artifacts, 1)
	assert.Equal(t, "backup-1.zip", artifacts[0].Name)
	assert.Equal(t, int64(5), artifacts[0].Size)
	assert.Equal(t, domain.LocationLocal, artifacts[0].Location)
	assert.False(t, artifacts[0].CreatedAt.IsZero())
}

func TestLocalStore_StatAndDelete(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewLocalStore(fs, "/backups")
	ctx := context.Background()

	require.NoError(t, afero.WriteFile(fs, "/backups/backup-1.zip", []byte("zip"), 0640))
	require.NoError(t, afero.WriteFile(fs, "/etc/passwd.zip", []byte("secret"), 0640))

	_, err := store.Stat("../etc/passwd.zip")
	assert.Equal(t, domain.ErrInvalidArtifactName, err)

	assert.Equal(t, domain.ErrInvalidArtifactName, store.Delete(ctx, "../etc/passwd.zip"))
	assert.Equal(t, domain.ErrArtifactNotFound, store.Delete(ctx, "backup-2.zip"))

	artifact, err := store.Stat("backup-1.zip")
	require.NoError(t, err)
	assert.Equal(t, int64(3), artifact.Size)

	require.NoError(t, store.Delete(ctx, "backup-1.zip"))

	_, err = store.Stat("backup-1.zip")
	assert.Equal(t, domain.ErrArtifactNotFound, err)

	exists, err := afero.Exists(fs, "/etc/passwd.zip")
	require.NoError(t, err)
	assert.True(t, exists)
}
