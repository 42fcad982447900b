package util

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger returns a logrus logger with the project defaults: text format,
// full timestamps, info level, stderr output. Components receive a logger
// (or an Entry derived from one) explicitly at construction; there is no
// process-wide logger instance.
func NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.InfoLevel)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return log
}

// NewTestLogger returns a logger that discards all output, for use in tests.
func NewTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// SetLogLevel parses and applies a level string ("debug", "info", ...).
func SetLogLevel(log *logrus.Logger, level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	return nil
}

// SetJSONFormat switches the logger to JSON output.
func SetJSONFormat(log *logrus.Logger) {
	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
	})
}

// WithDevice returns an entry carrying device context.
func WithDevice(log logrus.FieldLogger, device string) *logrus.Entry {
	return log.WithField("device", device)
}

// WithComponent returns an entry carrying component context.
func WithComponent(log *logrus.Logger, component string) *logrus.Entry {
	return log.WithField("component", component)
}
