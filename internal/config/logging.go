// internal/config/logging.go
package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

// ConfigureLogger sets up the global logrus logger: JSON in production, text
// everywhere else.
func (c *Config) ConfigureLogger() {
	logrus.SetOutput(os.Stdout)

	if c.Environment == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logrus.WithField("level", c.LogLevel).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
