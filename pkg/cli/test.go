package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/domquery/pkg/config"
	"github.com/devicelab-dev/domquery/pkg/executor"
	"github.com/devicelab-dev/domquery/pkg/flow"
	"github.com/devicelab-dev/domquery/pkg/logger"
	"github.com/devicelab-dev/domquery/pkg/report"
	"github.com/devicelab-dev/domquery/pkg/validator"
)

var testCommand = &cli.Command{
	Name:      "test",
	Usage:     "Run query flows against their HTML documents",
	ArgsUsage: "<flow-file-or-folder>...",
	Description: `Run one or more query flow files.

Reports are generated in the output directory:
  - Default: <home>/reports/<timestamp>/
  - With --output: <output>/<timestamp>/
  - With --output and --flatten: <output>/ (no timestamp subfolder)

Examples:
  domquery test flow.yaml
  domquery test flows/
  domquery test login.yaml signup.yaml

  # With variables
  domquery test flows/ -e USER=test -e PASS=secret

  # With tag filtering
  domquery test flows/ --include-tags smoke

  # Flows listed in a workspace config
  domquery test --config config.yaml`,
	Flags: []cli.Flag{
		// Configuration
		&cli.StringFlag{
			Name:    "config",
			Usage:   "Path to workspace config.yaml",
			EnvVars: []string{"DOMQUERY_CONFIG"},
		},

		// Variables
		&cli.StringSliceFlag{
			Name:    "env",
			Aliases: []string{"e"},
			Usage:   "Variables for ${NAME} expansion (KEY=VALUE)",
		},

		// Tag filtering
		&cli.StringSliceFlag{
			Name:  "include-tags",
			Usage: "Only include flows with these tags",
		},
		&cli.StringSliceFlag{
			Name:  "exclude-tags",
			Usage: "Exclude flows with these tags",
		},

		// Output directory
		&cli.StringFlag{
			Name:    "output",
			Usage:   "Output directory for reports (default: <home>/reports)",
			EnvVars: []string{"DOMQUERY_OUTPUT"},
		},
		&cli.BoolFlag{
			Name:  "flatten",
			Usage: "Don't create timestamp subfolder (requires --output)",
		},

		// Execution
		&cli.IntFlag{
			Name:    "parallel",
			Usage:   "Run up to N flows concurrently",
			EnvVars: []string{"DOMQUERY_PARALLEL"},
		},
		&cli.BoolFlag{
			Name:  "stop-on-fail",
			Usage: "Skip remaining flows after the first failure",
		},
	},
	Action: runTest,
}

// RunConfig holds the resolved settings for one test run.
type RunConfig struct {
	FlowPaths   []string
	ConfigPath  string
	Env         map[string]string
	IncludeTags []string
	ExcludeTags []string
	OutputDir   string
	Parallel    int
	StopOnFail  bool

	Stdout io.Writer
	Stderr io.Writer
}

func runTest(c *cli.Context) error {
	// Load workspace config if provided
	workspaceConfig := &config.Config{}
	configPath := c.String("config")
	if configPath != "" {
		var err error
		workspaceConfig, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}

	flowPaths := c.Args().Slice()
	if len(flowPaths) == 0 {
		resolved, err := workspaceConfig.ResolveFlows()
		if err != nil {
			return err
		}
		flowPaths = resolved
	}
	if len(flowPaths) == 0 {
		return fmt.Errorf("at least one flow file or folder is required")
	}

	// Flags win over the workspace config
	output := workspaceConfig.Output
	if c.IsSet("output") {
		output = c.String("output")
	}
	outputDir, err := resolveOutputDir(output, c.Bool("flatten"))
	if err != nil {
		return err
	}

	parallel := workspaceConfig.Parallel
	if c.IsSet("parallel") {
		parallel = c.Int("parallel")
	}
	if parallel < 0 {
		return fmt.Errorf("--parallel must not be negative")
	}

	includeTags := workspaceConfig.IncludeTags
	if c.IsSet("include-tags") {
		includeTags = c.StringSlice("include-tags")
	}
	excludeTags := workspaceConfig.ExcludeTags
	if c.IsSet("exclude-tags") {
		excludeTags = c.StringSlice("exclude-tags")
	}

	// Merge variables: workspace config env + CLI env (CLI takes precedence)
	mergedEnv := make(map[string]string)
	for k, v := range workspaceConfig.Env {
		mergedEnv[k] = v
	}
	for k, v := range parseEnvVars(c.StringSlice("env")) {
		mergedEnv[k] = v
	}

	cfg := &RunConfig{
		FlowPaths:   flowPaths,
		ConfigPath:  configPath,
		Env:         mergedEnv,
		IncludeTags: includeTags,
		ExcludeTags: excludeTags,
		OutputDir:   outputDir,
		Parallel:    parallel,
		StopOnFail:  c.Bool("stop-on-fail"),
		Stdout:      c.App.Writer,
		Stderr:      c.App.ErrWriter,
	}

	// Cancel the run on Ctrl+C or kill; flows not yet started are skipped.
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return executeTest(ctx, cfg)
}

// resolveOutputDir determines the output directory based on flags.
// - No --output: <home>/reports/<timestamp>/
// - --output given: <output>/<timestamp>/
// - --output + --flatten: <output>/ (error if --output not given)
func resolveOutputDir(output string, flatten bool) (string, error) {
	if flatten && output == "" {
		return "", fmt.Errorf("--flatten requires --output to be specified")
	}

	baseDir := output
	if baseDir == "" {
		baseDir = config.GetReportsDir()
	}

	if flatten {
		return filepath.Clean(baseDir), nil
	}

	// Create timestamp-based subfolder
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(baseDir, timestamp), nil
}

func executeTest(ctx context.Context, cfg *RunConfig) error {
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}

	logger.Info("=== Test execution started ===")
	logger.Info("Output directory: %s", cfg.OutputDir)

	// 1. Validate and parse flows
	flows, err := validateAndParseFlows(cfg)
	if err != nil {
		logger.Error("Flow validation failed: %v", err)
		return err
	}
	logger.Info("Validated %d flow(s)", len(flows))

	// 2. Execute flows
	p := &progress{w: cfg.Stdout}
	runner := executor.New(executor.RunnerConfig{
		OutputDir:      cfg.OutputDir,
		Parallelism:    cfg.Parallel,
		StopOnFail:     cfg.StopOnFail,
		Env:            cfg.Env,
		SuiteName:      suiteName(cfg),
		OnFlowStart:    p.onFlowStart,
		OnStepComplete: p.onStepComplete,
		OnFlowEnd:      p.onFlowEnd,
	})
	result, err := runner.Run(ctx, flows)
	if err != nil {
		logger.Error("Flow execution failed: %v", err)
		return err
	}

	// 3. Summary
	printSummary(cfg.Stdout, result)

	// 4. Generate and display reports
	htmlPath, err := report.GenerateHTML(cfg.OutputDir, report.HTMLConfig{Title: "Query Report"})
	fmt.Fprintln(cfg.Stdout, "  Reports:")
	if err != nil {
		fmt.Fprintf(cfg.Stdout, "  %s⚠%s Warning: failed to generate HTML report: %v\n", color(colorYellow), color(colorReset), err)
	} else {
		fmt.Fprintf(cfg.Stdout, "    HTML:   %s\n", htmlPath)
	}
	fmt.Fprintf(cfg.Stdout, "    JSON:   %s\n", filepath.Join(cfg.OutputDir, report.FileName))

	// Exit with code 1 if any flows failed (summary already printed)
	if !result.Success() {
		return cli.Exit("", 1)
	}
	return nil
}

// validateAndParseFlows validates and parses all flow files.
func validateAndParseFlows(cfg *RunConfig) ([]*flow.Flow, error) {
	v := validator.New(cfg.IncludeTags, cfg.ExcludeTags)
	result := v.Validate(cfg.FlowPaths...)

	if !result.IsValid() {
		fmt.Fprintf(cfg.Stderr, "Validation errors:\n")
		for _, err := range result.Errors {
			fmt.Fprintf(cfg.Stderr, "  - %v\n", err)
		}
		return nil, fmt.Errorf("validation failed with %d error(s)", len(result.Errors))
	}

	for _, skipped := range result.Skipped {
		logger.Debug("Skipped by tag filter: %s", skipped)
	}
	if len(result.Flows) == 0 {
		return nil, fmt.Errorf("no flows to run (%d skipped by tag filters)", len(result.Skipped))
	}
	return result.Flows, nil
}

func suiteName(cfg *RunConfig) string {
	if cfg.ConfigPath != "" {
		return filepath.Base(filepath.Dir(cfg.ConfigPath))
	}
	if len(cfg.FlowPaths) == 1 {
		return filepath.Base(cfg.FlowPaths[0])
	}
	return "domquery"
}

func parseEnvVars(envs []string) map[string]string {
	result := make(map[string]string)
	for _, e := range envs {
		if k, v, ok := strings.Cut(e, "="); ok && k != "" {
			result[k] = v
		}
	}
	return result
}
