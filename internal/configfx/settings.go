package configfx

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/yurykabanov/sitebackup/pkg/domain"
)

const (
	ConfigScheduleInterval = "schedule.interval"
	ConfigNotifyEmail      = "notify.email_enabled"
)

// SetDefaults registers every known key, so that each of them can also be
// set from the environment.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("backup.directory", "./backups")
	v.SetDefault("backup.source_directory", "")
	v.SetDefault("backup.archive_root", "wp-content")
	v.SetDefault("backup.max_artifacts", 5)
	v.SetDefault("backup.prune_local", true)
	v.SetDefault("backup.prune_remote", true)
	v.SetDefault("backup.export_database", true)
	v.SetDefault("backup.export_files", true)
	v.SetDefault("backup.exclude_patterns", domain.DefaultExcludePatterns)
	v.SetDefault("backup.max_file_size", domain.DefaultMaxFileSize)

	v.SetDefault(ConfigScheduleInterval, string(domain.IntervalWeekly))

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "")
	v.SetDefault("database.table_prefix", "wp_")
	v.SetDefault("database.platform_version", "")

	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.delete_local_after_upload", false)
	v.SetDefault("storage.presign_ttl", "20m")

	v.SetDefault(ConfigNotifyEmail, false)
	v.SetDefault("notify.admin_email", "")
	v.SetDefault("notify.smtp.host", "")
	v.SetDefault("notify.smtp.port", 25)
	v.SetDefault("notify.smtp.username", "")
	v.SetDefault("notify.smtp.password", "")
	v.SetDefault("notify.smtp.from", "")
	v.SetDefault("notify.site_name", "sitebackup")
	v.SetDefault("notify.site_url", "")

	v.SetDefault("state.dsn", "file:sitebackup.db?_busy_timeout=5000")

	v.SetDefault("server.address", "127.0.0.1:8080")
	v.SetDefault("server.timeout.read", "30s")
	v.SetDefault("server.timeout.write", "1h")
	v.SetDefault("server.log.requests", true)
}

type sections struct {
	Backup  domain.BackupSettings `mapstructure:"backup"`
	Storage domain.StorageTarget  `mapstructure:"storage"`
}

// SettingsProvider decodes the settings every component receives at
// construction time. An unknown schedule interval falls back to weekly.
func SettingsProvider(logger *logrus.Logger, v *viper.Viper) (domain.Settings, error) {
	var settings domain.Settings

	// decoded as a whole so that values merge per key across sources
	var s sections
	err := v.Unmarshal(&s)
	if err != nil {
		return settings, errors.Wrap(err, "Unable to unmarshal settings")
	}

	settings.Backup = s.Backup
	settings.Storage = s.Storage

	raw := v.GetString(ConfigScheduleInterval)

	interval, err := domain.ParseInterval(raw)
	if err != nil {
		logger.WithField("interval", raw).Warn("Unknown schedule interval, falling back to weekly")
		interval = domain.IntervalWeekly
	}

	settings.ScheduleInterval = interval
	settings.EmailNotifications = v.GetBool(ConfigNotifyEmail)

	err = settings.Validate()
	if err != nil {
		return settings, errors.Wrap(err, "Invalid configuration")
	}

	return settings, nil
}
