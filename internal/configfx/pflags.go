package configfx

import (
	"github.com/spf13/pflag"
)

const ConfigFlag = "config"

// PFlags returns the flags shared by every command. They are bound to viper,
// so any of them overrides the config file and the environment.
func PFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("sitebackup", pflag.ContinueOnError)

	fs.StringP(ConfigFlag, "c", "", "Config file")
	fs.String("log.level", "", "Log level (debug, info, warn, error)")
	fs.String("log.format", "", "Log format (json, text)")

	return fs
}
