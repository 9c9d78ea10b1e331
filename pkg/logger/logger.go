package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a logrus logger from a level name and format ("json" or
// "text"). Unknown levels fall back to info.
func New(level, format string) *logrus.Logger {
	log := logrus.New()

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)

	if format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	log.SetOutput(os.Stdout)

	return log
}

// FromEnv builds a logger from LOG_LEVEL and LOG_FORMAT.
func FromEnv() *logrus.Logger {
	return New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
}
