// Package main is the entry point for the ghinbox CLI application.
package main

import (
	"fmt"
	"os"

	"github.com/danielolaszy/ghinbox/cmd"
	"github.com/danielolaszy/ghinbox/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// main is the entry point of the application.
// It executes the root command and handles any errors that occur.
func main() {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	logging.Debug("starting ghinbox", "version", version, "log_level", logLevel)

	if err := cmd.Execute(); err != nil {
		logging.Error("command execution failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
