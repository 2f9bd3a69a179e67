// Package logging builds the logrus logger shared by the club binaries.
package logging

import (
	"os"

	"github.com/jason-s-yu/volei/internal/config"
	"github.com/sirupsen/logrus"
)

// New returns a logger writing to stderr at the configured level. Production
// logs are JSON; everything else gets the text formatter with full timestamps.
func New(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
		logger.WithField("log_level", cfg.Server.LogLevel).Warn("unknown log level, using info")
	}
	logger.SetLevel(level)

	if cfg.IsProduction() {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
