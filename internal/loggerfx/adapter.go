package loggerfx

import (
	"log"

	"github.com/sirupsen/logrus"
)

// DefaultLoggerAdapter routes the standard library logger used by net/http
// into logrus at error level.
func DefaultLoggerAdapter(logger *logrus.Logger) *log.Logger {
	return log.New(logger.WriterLevel(logrus.ErrorLevel), "", 0)
}
