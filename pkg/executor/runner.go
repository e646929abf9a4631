// Package executor runs query flows against their documents and collects
// the results.
package executor

import (
	"context"
	"sync"
	"time"

	"github.com/devicelab-dev/domquery/pkg/core"
	"github.com/devicelab-dev/domquery/pkg/flow"
	"github.com/devicelab-dev/domquery/pkg/logger"
	"github.com/devicelab-dev/domquery/pkg/report"
)

// RunnerConfig configures the test runner.
type RunnerConfig struct {
	OutputDir   string            // Report output directory ("" = no report)
	Parallelism int               // Max concurrent flows (0 or 1 = sequential)
	StopOnFail  bool              // Stop all flows on first failure
	Env         map[string]string // Variables from the command line
	SuiteName   string

	// Live progress callbacks
	OnFlowStart    func(flowIdx, totalFlows int, name, file string)
	OnStepComplete func(flowName string, idx int, desc string, status core.StepStatus, duration time.Duration, err string)
	OnFlowEnd      func(name string, status core.StepStatus, duration time.Duration)
}

// Runner orchestrates flow execution.
type Runner struct {
	config RunnerConfig
}

// New creates a new Runner.
func New(cfg RunnerConfig) *Runner {
	return &Runner{config: cfg}
}

// Run executes all flows, writes report.json when an output directory is
// configured, and returns the suite result. Flows that never started
// because of cancellation or StopOnFail are reported as skipped.
func (r *Runner) Run(ctx context.Context, flows []*flow.Flow) (*core.SuiteResult, error) {
	start := time.Now()
	suite := &core.SuiteResult{
		Name:      r.config.SuiteName,
		RunID:     start.Format("20060102-150405"),
		StartTime: start,
	}

	logger.Info("run %s: %d flow(s), parallelism %d", suite.RunID, len(flows), r.config.Parallelism)
	suite.Flows = r.executeFlows(ctx, flows)
	suite.Duration = time.Since(start)
	suite.ComputeSummary()
	logger.Info("run %s finished: %d passed, %d failed, %d skipped",
		suite.RunID, suite.PassedFlows, suite.FailedFlows, suite.SkippedFlows)

	if r.config.OutputDir != "" {
		if _, err := report.Write(r.config.OutputDir, suite); err != nil {
			return suite, err
		}
	}
	return suite, nil
}

// executeFlows runs flows either sequentially or in parallel.
func (r *Runner) executeFlows(ctx context.Context, flows []*flow.Flow) []core.FlowResult {
	results := make([]core.FlowResult, len(flows))
	total := len(flows)

	if r.config.Parallelism <= 1 {
		stop := false
		for i, f := range flows {
			if stop || ctx.Err() != nil {
				results[i] = skippedFlow(f, stopReason(ctx))
				continue
			}
			results[i] = r.executeFlow(ctx, f, i, total)
			if r.config.StopOnFail && !results[i].Status.IsSuccess() {
				stop = true
			}
		}
		return results
	}

	// Parallel execution with semaphore
	sem := make(chan struct{}, r.config.Parallelism)
	var wg sync.WaitGroup
	var mu sync.Mutex
	stopAll := false

	for i := range flows {
		sem <- struct{}{} // Acquire

		mu.Lock()
		shouldStop := stopAll
		mu.Unlock()
		if shouldStop || ctx.Err() != nil {
			<-sem
			results[i] = skippedFlow(flows[i], stopReason(ctx))
			continue
		}

		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }() // Release

			result := r.executeFlow(ctx, flows[idx], idx, total)
			results[idx] = result

			if r.config.StopOnFail && !result.Status.IsSuccess() {
				mu.Lock()
				stopAll = true
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	return results
}

// executeFlow runs a single flow.
func (r *Runner) executeFlow(ctx context.Context, f *flow.Flow, flowIdx, totalFlows int) core.FlowResult {
	fr := &FlowRunner{
		ctx:        ctx,
		flow:       f,
		config:     r.config,
		flowIdx:    flowIdx,
		totalFlows: totalFlows,
	}
	return fr.Run()
}

func stopReason(ctx context.Context) string {
	if ctx.Err() != nil {
		return "run cancelled"
	}
	return "run stopped after a failure"
}

func skippedFlow(f *flow.Flow, reason string) core.FlowResult {
	result := core.FlowResult{
		Name:     f.DisplayName(),
		FilePath: f.SourcePath,
		Tags:     f.Config.Tags,
		Status:   core.StatusSkipped,
		Error:    reason,
	}
	for i, step := range f.Steps {
		result.Steps = append(result.Steps, core.StepResult{
			Index:       i,
			Command:     string(step.Type()),
			Description: step.Describe(),
			Status:      core.StatusSkipped,
		})
	}
	result.ComputeSummary()
	return result
}
