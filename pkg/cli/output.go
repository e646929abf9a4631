package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/devicelab-dev/domquery/pkg/core"
	"github.com/devicelab-dev/domquery/pkg/report"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// colorsEnabled determines if ANSI colors should be used
var colorsEnabled = true

func init() {
	// Respect NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		colorsEnabled = false
		return
	}
	// Check if stdout is a terminal
	if fileInfo, err := os.Stdout.Stat(); err == nil {
		if (fileInfo.Mode() & os.ModeCharDevice) == 0 {
			colorsEnabled = false
		}
	}
}

// color returns the color code if colors are enabled, empty string otherwise
func color(c string) string {
	if colorsEnabled {
		return c
	}
	return ""
}

// progress prints live flow and step lines. Parallel flows share one
// writer, so every callback holds the lock while printing.
type progress struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *progress) onFlowStart(flowIdx, totalFlows int, name, file string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "\n  %s[%d/%d]%s %s%s%s (%s)\n",
		color(colorCyan), flowIdx+1, totalFlows, color(colorReset),
		color(colorBold), name, color(colorReset), file)
	fmt.Fprintln(p.w, strings.Repeat("─", 60))
}

func (p *progress) onStepComplete(flowName string, idx int, desc string, status core.StepStatus, d time.Duration, errMsg string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	durStr := report.FormatDuration(d)
	switch status {
	case core.StatusPassed:
		fmt.Fprintf(p.w, "    %s✓%s %s (%s)\n", color(colorGreen), color(colorReset), desc, durStr)
	case core.StatusWarned:
		fmt.Fprintf(p.w, "    %s⚠%s %s (%s)\n", color(colorYellow), color(colorReset), desc, durStr)
		if errMsg != "" {
			fmt.Fprintf(p.w, "      %s╰─%s %s\n", color(colorGray), color(colorReset), errMsg)
		}
	default:
		fmt.Fprintf(p.w, "    %s✗%s %s (%s)\n", color(colorRed), color(colorReset), desc, durStr)
		if errMsg != "" {
			fmt.Fprintf(p.w, "      %s╰─%s %s\n", color(colorGray), color(colorReset), errMsg)
		}
	}
}

func (p *progress) onFlowEnd(name string, status core.StepStatus, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if status.IsSuccess() {
		fmt.Fprintf(p.w, "%s✓ %s%s %s%s%s\n",
			color(colorGreen), color(colorReset), name, color(colorGray), report.FormatDuration(d), color(colorReset))
	} else {
		fmt.Fprintf(p.w, "%s✗ %s%s %s%s%s\n",
			color(colorRed), color(colorReset), name, color(colorGray), report.FormatDuration(d), color(colorReset))
	}
}

// printSummary prints the step totals and the per-flow table.
func printSummary(w io.Writer, result *core.SuiteResult) {
	// Calculate totals
	totalSteps := 0
	passedSteps := 0
	failedSteps := 0
	skippedSteps := 0
	for _, fr := range result.Flows {
		totalSteps += fr.TotalSteps
		passedSteps += fr.PassedSteps + fr.WarnedSteps
		failedSteps += fr.FailedSteps
		skippedSteps += fr.SkippedSteps
	}

	// Print step summary
	fmt.Fprintln(w)
	if passedSteps > 0 {
		fmt.Fprintf(w, "  %s%d steps passing%s (%s)\n", color(colorGreen), passedSteps, color(colorReset), report.FormatDuration(result.Duration))
	}
	if failedSteps > 0 {
		fmt.Fprintf(w, "  %s%d steps failing%s\n", color(colorRed), failedSteps, color(colorReset))
	}
	if skippedSteps > 0 {
		fmt.Fprintf(w, "  %s%d steps skipped%s\n", color(colorCyan), skippedSteps, color(colorReset))
	}
	fmt.Fprintln(w)

	// Print table
	tableWidth := 92
	fmt.Fprintln(w, strings.Repeat("═", tableWidth))
	fmt.Fprintf(w, "  %-42s %6s %7s %6s %6s %6s %10s\n", "Flow", "Status", "Steps", "Pass", "Fail", "Skip", "Duration")
	fmt.Fprintln(w, strings.Repeat("─", tableWidth))

	for _, fr := range result.Flows {
		var status, statusColor string
		switch fr.Status {
		case core.StatusFailed, core.StatusErrored:
			status = "✗ FAIL"
			statusColor = color(colorRed)
		case core.StatusSkipped:
			status = "- SKIP"
			statusColor = color(colorCyan)
		default:
			status = "✓ PASS"
			statusColor = color(colorGreen)
		}

		// Truncate name if too long
		name := fr.Name
		if len(name) > 42 {
			name = name[:39] + "..."
		}

		fmt.Fprintf(w, "  %-42s %s%6s%s %7d %6d %6d %6d %10s\n",
			name, statusColor, status, color(colorReset),
			fr.TotalSteps, fr.PassedSteps+fr.WarnedSteps, fr.FailedSteps, fr.SkippedSteps,
			report.FormatDuration(fr.Duration))
	}

	// Print totals row
	fmt.Fprintln(w, strings.Repeat("─", tableWidth))
	statusStr := fmt.Sprintf("%d/%d", result.PassedFlows, result.TotalFlows)
	statusColor := color(colorGreen)
	if result.FailedFlows > 0 {
		statusColor = color(colorRed)
	}
	fmt.Fprintf(w, "  %s%-42s%s %s%6s%s %7d %6d %6d %6d %10s\n",
		color(colorBold), "TOTAL", color(colorReset),
		statusColor, statusStr, color(colorReset),
		totalSteps, passedSteps, failedSteps, skippedSteps,
		report.FormatDuration(result.Duration))
	fmt.Fprintln(w, strings.Repeat("═", tableWidth))
}
