package loggerfx

import (
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	ConfigLogLevel  = "log.level"
	ConfigLogFormat = "log.format"
)

var logger *logrus.Logger

// Logs go to stderr, stdout is left to command output.
func init() {
	logger = logrus.StandardLogger()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(Formatter("json"))
}

func Logger() *logrus.Logger {
	return logger
}

func ConfigureLogger(logger *logrus.Logger, v *viper.Viper) {
	logLevel := v.GetString(ConfigLogLevel)

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logger.WithField("level", logLevel).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}

	logger.SetLevel(level)
	logger.SetFormatter(Formatter(v.GetString(ConfigLogFormat)))
}

// Formatter returns the text formatter for "text" and JSON for anything else.
func Formatter(format string) logrus.Formatter {
	switch strings.ToLower(format) {
	case "text":
		return &logrus.TextFormatter{FullTimestamp: true}
	default:
		return &logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano}
	}
}
