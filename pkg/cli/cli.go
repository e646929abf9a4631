// Package cli provides the command-line interface for domquery.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/domquery/pkg/config"
	"github.com/devicelab-dev/domquery/pkg/logger"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose logging",
		EnvVars: []string{"DOMQUERY_VERBOSE"},
	},
	&cli.StringFlag{
		Name:    "log-file",
		Usage:   "Log file path (default: <home>/logs/domquery.log)",
		EnvVars: []string{"DOMQUERY_LOG_FILE"},
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

// NewApp builds the domquery application.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "domquery",
		Usage:   "Find elements in HTML documents the way users see them",
		Version: Version,
		Description: `domquery locates elements by visible text, label, role, placeholder,
displayed value or id, and runs YAML query flows against HTML documents.

Examples:
  domquery test flows/
  domquery test login.yaml -e USER=test
  domquery query --by label page.html Email
  domquery hierarchy --compact page.html`,
		Flags:  GlobalFlags,
		Before: setupLogging,
		After: func(*cli.Context) error {
			logger.Close()
			return nil
		},
		Commands: []*cli.Command{
			testCommand,
			queryCommand,
			hierarchyCommand,
		},
	}
}

// Execute runs the CLI.
func Execute() {
	if err := NewApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setupLogging opens the log file and applies global output flags.
func setupLogging(c *cli.Context) error {
	if c.Bool("no-ansi") {
		colorsEnabled = false
	}
	if c.Bool("verbose") {
		logger.SetLevel(logger.LevelDebug)
	}

	logPath := c.String("log-file")
	if logPath == "" {
		logPath = filepath.Join(config.GetLogsDir(), "domquery.log")
	}
	if err := logger.Init(logPath); err != nil {
		fmt.Fprintf(c.App.ErrWriter, "Warning: Failed to initialize logger: %v\n", err)
	}
	return nil
}
