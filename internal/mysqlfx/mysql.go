package mysqlfx

import (
	"context"
	"database/sql"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

const (
	ConfigDatabaseDSN      = "database.dsn"
	ConfigDatabaseHost     = "database.host"
	ConfigDatabasePort     = "database.port"
	ConfigDatabaseUser     = "database.user"
	ConfigDatabasePassword = "database.password"
	ConfigDatabaseName     = "database.name"
)

// MysqlConfigProvider prefers database.dsn and otherwise assembles the DSN
// from the individual keys.
func MysqlConfigProvider(v *viper.Viper) (*mysql.Config, error) {
	if dsn := v.GetString(ConfigDatabaseDSN); dsn != "" {
		config, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, errors.Wrap(err, "Unable to parse database.dsn")
		}

		return config, nil
	}

	config := mysql.NewConfig()
	config.User = v.GetString(ConfigDatabaseUser)
	config.Passwd = v.GetString(ConfigDatabasePassword)
	config.DBName = v.GetString(ConfigDatabaseName)

	if host := v.GetString(ConfigDatabaseHost); host != "" {
		config.Net = "tcp"
		config.Addr = net.JoinHostPort(host, strconv.Itoa(v.GetInt(ConfigDatabasePort)))
	}

	return config, nil
}

func OpenMysqlDatabase(config *mysql.Config, logger *logrus.Logger) (*sql.DB, error) {
	logger.WithFields(logrus.Fields{
		"addr":     config.Addr,
		"database": config.DBName,
	}).Debug("Connecting to application DB")

	connector, err := mysql.NewConnector(config)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to connect to application DB")
	}

	return sql.OpenDB(connector), nil
}

func CloseMysqlDatabase(lc fx.Lifecycle, db *sql.DB) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return db.Close()
		},
	})
}
