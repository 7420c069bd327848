package mysqlfx

import (
	"database/sql"

	"github.com/juju/clock"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/yurykabanov/sitebackup/pkg/dbexport"
	"github.com/yurykabanov/sitebackup/pkg/domain"
)

const (
	ConfigDatabaseTablePrefix     = "database.table_prefix"
	ConfigDatabasePlatformVersion = "database.platform_version"
)

func ExporterConfigProvider(v *viper.Viper) dbexport.Config {
	return dbexport.Config{
		TablePrefix:     v.GetString(ConfigDatabaseTablePrefix),
		PlatformVersion: v.GetString(ConfigDatabasePlatformVersion),
	}
}

// DatabaseExporter is nil when database export is disabled.
func DatabaseExporter(
	logger *logrus.Logger,
	settings domain.Settings,
	db *sql.DB,
	fs afero.Fs,
	clk clock.Clock,
	config dbexport.Config,
) domain.DatabaseExporter {
	if !settings.Backup.ExportDatabase {
		return nil
	}

	return dbexport.New(logger, db, fs, clk, config)
}
