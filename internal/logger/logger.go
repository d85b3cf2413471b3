package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the process-wide logrus instance. Packages tag their entries via
// WithComponent; main adjusts the level again once the config is loaded.
var Logger *logrus.Logger

func init() {
	Logger = logrus.New()
	Logger.SetOutput(os.Stdout)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	Logger.SetLevel(logrus.InfoLevel)

	// Early override from env, e.g. LOG_LEVEL=debug, so config loading itself
	// can be debugged before the config-driven level applies.
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		if parsedLevel, err := logrus.ParseLevel(strings.ToLower(level)); err == nil {
			Logger.SetLevel(parsedLevel)
		}
	}
}

// WithComponent tags entries with the emitting subsystem ("session",
// "gateway", "config", ...) so one admin action can be traced across layers.
func WithComponent(component string) *logrus.Entry {
	return Logger.WithField("component", component)
}
