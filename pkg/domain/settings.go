package domain

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	MaxArtifactsLimit  = 50
	DefaultMaxFileSize = 100 * 1024 * 1024
)

// Directory names skipped anywhere in the file tree, on top of the configured
// exclude patterns.
var DefaultExcludedDirectories = []string{"cache", "tmp", "temp"}

var DefaultExcludePatterns = []string{"*.log", "*.tmp", "cache/*", "tmp/*"}

type Interval string

const (
	IntervalDisabled Interval = "disabled"
	IntervalDaily    Interval = "daily"
	IntervalWeekly   Interval = "weekly"
)

var ErrInvalidInterval = errors.New("schedule interval must be one of disabled, daily, weekly")

func ParseInterval(s string) (Interval, error) {
	switch i := Interval(strings.ToLower(strings.TrimSpace(s))); i {
	case IntervalDisabled, IntervalDaily, IntervalWeekly:
		return i, nil
	}

	return "", ErrInvalidInterval
}

// Period is zero for IntervalDisabled.
func (i Interval) Period() time.Duration {
	switch i {
	case IntervalDaily:
		return 24 * time.Hour
	case IntervalWeekly:
		return 7 * 24 * time.Hour
	}

	return 0
}

// Settings is decoded once from configuration and handed to each component
// constructor.
type Settings struct {
	Backup             BackupSettings
	ScheduleInterval   Interval
	EmailNotifications bool
	Storage            StorageTarget
}

type BackupSettings struct {
	// artifacts and the transient database dump are written here
	Directory string `mapstructure:"directory"`

	// root of the application's file tree and its entry name in the archive
	SourceDirectory string `mapstructure:"source_directory"`
	ArchiveRoot     string `mapstructure:"archive_root"`

	MaxArtifacts    int      `mapstructure:"max_artifacts"`
	PruneLocal      bool     `mapstructure:"prune_local"`
	PruneRemote     bool     `mapstructure:"prune_remote"`
	ExportDatabase  bool     `mapstructure:"export_database"`
	ExportFiles     bool     `mapstructure:"export_files"`
	ExcludePatterns []string `mapstructure:"exclude_patterns"`
	MaxFileSize     int64    `mapstructure:"max_file_size"`
}

// StorageTarget is the remote bucket configuration. A target missing any
// required field is unconfigured and every remote operation becomes a no-op.
type StorageTarget struct {
	Enabled                bool          `mapstructure:"enabled"`
	AccessKey              string        `mapstructure:"access_key"`
	SecretKey              string        `mapstructure:"secret_key"`
	Bucket                 string        `mapstructure:"bucket"`
	Region                 string        `mapstructure:"region"`
	Endpoint               string        `mapstructure:"endpoint"`
	DeleteLocalAfterUpload bool          `mapstructure:"delete_local_after_upload"`
	PresignTTL             time.Duration `mapstructure:"presign_ttl"`
}

func (t StorageTarget) Configured() bool {
	return t.Enabled &&
		t.AccessKey != "" &&
		t.SecretKey != "" &&
		t.Bucket != "" &&
		t.Region != ""
}

type RetentionPolicy struct {
	MaxArtifacts    int
	AppliesToLocal  bool
	AppliesToRemote bool
}

func (s Settings) RetentionPolicy() RetentionPolicy {
	return RetentionPolicy{
		MaxArtifacts:    s.Backup.MaxArtifacts,
		AppliesToLocal:  s.Backup.PruneLocal,
		AppliesToRemote: s.Backup.PruneRemote,
	}
}

func (s Settings) Validate() error {
	if s.Backup.Directory == "" {
		return errors.New("backup.directory is required")
	}

	if s.Backup.ExportFiles && s.Backup.SourceDirectory == "" {
		return errors.New("backup.source_directory is required when file export is enabled")
	}

	if s.Backup.MaxArtifacts < 0 || s.Backup.MaxArtifacts > MaxArtifactsLimit {
		return errors.Errorf("backup.max_artifacts must be within [0, %d], got %d", MaxArtifactsLimit, s.Backup.MaxArtifacts)
	}

	if s.Backup.MaxFileSize < 0 {
		return errors.New("backup.max_file_size must not be negative")
	}

	if _, err := ParseInterval(string(s.ScheduleInterval)); err != nil {
		return errors.Wrapf(err, "invalid schedule.interval %q", s.ScheduleInterval)
	}

	return nil
}
