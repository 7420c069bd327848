package configfx

import (
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix              = "sitebackup"
	DefaultConfigDirectory = "sitebackup"
	DefaultConfigFile      = "sitebackup"
)

var (
	defaultConfigPaths = []string{
		".",
		"./config",
		path.Join("/etc", DefaultConfigDirectory),
	}
)

// ViperProvider layers flags over environment (SITEBACKUP_BACKUP_DIRECTORY
// for backup.directory) over the config file over defaults.
func ViperProvider(logger *logrus.Logger, flagSet *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	err := v.BindPFlags(flagSet)
	if err != nil {
		return nil, err
	}

	SetDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configFile := v.GetString(ConfigFlag); configFile != "" {
		// An explicitly given file must exist and be valid
		v.SetConfigFile(configFile)

		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "Unable to read config file %s", configFile)
		}
	} else {
		v.SetConfigName(DefaultConfigFile)

		for _, dir := range defaultConfigPaths {
			v.AddConfigPath(dir)
		}

		err := v.ReadInConfig()
		switch err.(type) {
		case nil:
		case viper.ConfigFileNotFoundError:
			// environment and flags alone are enough
			logger.Debug("No config file found, using environment and defaults")
		default:
			return nil, errors.Wrap(err, "Unable to read config file")
		}
	}

	if used := v.ConfigFileUsed(); used != "" {
		logger.WithField("config", used).Debug("Using config file")
	}

	return v, nil
}
