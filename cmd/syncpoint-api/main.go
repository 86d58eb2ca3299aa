// Package main is the entry point for the syncpoint API server.
package main

import (
	"os"

	"github.com/stacklok/syncpoint-server/cmd/syncpoint-api/app"
	"github.com/stacklok/syncpoint-server/internal/config"
	"github.com/stacklok/syncpoint-server/internal/logger"
)

func main() {
	// Logs go to stderr to keep stdout clean for commands that output
	// data (e.g. version --format json). The serve command reconfigures
	// the level once the configuration is loaded.
	logger.Initialize(os.Getenv(config.EnvPrefix + "_LOG_LEVEL"))

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
