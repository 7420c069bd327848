package configfx

import (
	"io/ioutil"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurykabanov/sitebackup/pkg/domain"
)

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.Out = ioutil.Discard
	return logger
}

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.Set("backup.source_directory", "/srv/site")
	return v
}

func TestSettingsProvider_Defaults(t *testing.T) {
	settings, err := SettingsProvider(discardLogger(), newViper())
	require.NoError(t, err)

	assert.Equal(t, "./backups", settings.Backup.Directory)
	assert.Equal(t, "wp-content", settings.Backup.ArchiveRoot)
	assert.Equal(t, 5, settings.Backup.MaxArtifacts)
	assert.True(t, settings.Backup.ExportDatabase)
	assert.True(t, settings.Backup.ExportFiles)
	assert.Equal(t, domain.DefaultExcludePatterns, settings.Backup.ExcludePatterns)
	assert.EqualValues(t, domain.DefaultMaxFileSize, settings.Backup.MaxFileSize)
	assert.Equal(t, domain.IntervalWeekly, settings.ScheduleInterval)
	assert.False(t, settings.EmailNotifications)
	assert.Equal(t, 20*time.Minute, settings.Storage.PresignTTL)
	assert.False(t, settings.Storage.Configured())

	assert.Equal(t, domain.RetentionPolicy{MaxArtifacts: 5, AppliesToLocal: true, AppliesToRemote: true}, settings.RetentionPolicy())
}

func TestSettingsProvider_MergesSectionWithDefaults(t *testing.T) {
	v := newViper()
	v.Set("storage.enabled", true)
	v.Set("storage.bucket", "site-backups")
	v.Set("storage.region", "eu-west-1")
	v.Set("storage.access_key", "key")
	v.Set("storage.secret_key", "secret")
	v.Set("notify.email_enabled", true)

	settings, err := SettingsProvider(discardLogger(), v)
	require.NoError(t, err)

	assert.True(t, settings.Storage.Configured())
	assert.Equal(t, "site-backups", settings.Storage.Bucket)
	assert.Equal(t, 20*time.Minute, settings.Storage.PresignTTL)
	assert.True(t, settings.EmailNotifications)
}

func TestSettingsProvider_UnknownIntervalFallsBackToWeekly(t *testing.T) {
	v := newViper()
	v.Set("schedule.interval", "hourly")

	settings, err := SettingsProvider(discardLogger(), v)
	require.NoError(t, err)

	assert.Equal(t, domain.IntervalWeekly, settings.ScheduleInterval)
}

func TestSettingsProvider_IntervalIsCaseInsensitive(t *testing.T) {
	v := newViper()
	v.Set("schedule.interval", "Daily")

	settings, err := SettingsProvider(discardLogger(), v)
	require.NoError(t, err)

	assert.Equal(t, domain.IntervalDaily, settings.ScheduleInterval)
}

func TestSettingsProvider_Invalid(t *testing.T) {
	v := newViper()
	v.Set("backup.max_artifacts", 51)

	_, err := SettingsProvider(discardLogger(), v)
	assert.Error(t, err)

	v = viper.New()
	SetDefaults(v)

	_, err = SettingsProvider(discardLogger(), v)
	assert.Error(t, err, "file export without a source directory")
}

func TestPFlags(t *testing.T) {
	flags := PFlags()

	require.NoError(t, flags.Parse([]string{"-c", "/etc/sitebackup/site.yaml", "--log.level", "debug"}))

	v := viper.New()
	require.NoError(t, v.BindPFlags(flags))
	SetDefaults(v)

	assert.Equal(t, "/etc/sitebackup/site.yaml", v.GetString(ConfigFlag))
	assert.Equal(t, "debug", v.GetString("log.level"))
	assert.Equal(t, "json", v.GetString("log.format"))
}
