package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the JSON logger used across the service. LOG_LEVEL
// overrides the default info level.
func NewLogger() *logrus.Logger {
	logg := logrus.New()
	logg.SetFormatter(&logrus.JSONFormatter{})
	logg.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	logg.SetLevel(level)
	return logg
}
