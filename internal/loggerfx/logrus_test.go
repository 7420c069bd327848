package loggerfx

import (
	"bytes"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestConfigureLogger(t *testing.T) {
	logger := logrus.New()

	v := viper.New()
	v.Set(ConfigLogLevel, "debug")
	v.Set(ConfigLogFormat, "text")

	ConfigureLogger(logger, v)

	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}

func TestConfigureLogger_UnknownLevel(t *testing.T) {
	buf := &bytes.Buffer{}

	logger := logrus.New()
	logger.Out = buf

	v := viper.New()
	v.Set(ConfigLogLevel, "loud")

	ConfigureLogger(logger, v)

	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
	assert.Contains(t, buf.String(), "Unknown log level")
}

func TestDefaultLoggerAdapter(t *testing.T) {
	logger, hook := test.NewNullLogger()

	DefaultLoggerAdapter(logger).Print("http: TLS handshake error")

	assert.Eventually(t, func() bool {
		entry := hook.LastEntry()
		return entry != nil && entry.Level == logrus.ErrorLevel && entry.Message == "http: TLS handshake error"
	}, time.Second, 10*time.Millisecond)
}
