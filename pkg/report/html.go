package report

import (
	"bytes"
	"fmt"
	"html/template"
	"path/filepath"
	"time"

	"github.com/devicelab-dev/domquery/pkg/core"
)

// HTMLConfig contains configuration for HTML report generation.
type HTMLConfig struct {
	OutputPath string // Path to write the HTML file (default: <reportDir>/report.html)
	Title      string // Report title (default: "Query Report")
}

// GenerateHTML renders report.json in reportDir as a standalone HTML page
// and returns the page's path.
func GenerateHTML(reportDir string, cfg HTMLConfig) (string, error) {
	suite, err := Read(reportDir)
	if err != nil {
		return "", fmt.Errorf("read report: %w", err)
	}

	if cfg.Title == "" {
		cfg.Title = "Query Report"
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = filepath.Join(reportDir, "report.html")
	}

	html, err := renderHTML(buildHTMLData(suite, cfg))
	if err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	if err := atomicWrite(cfg.OutputPath, html); err != nil {
		return "", fmt.Errorf("write html: %w", err)
	}
	return cfg.OutputPath, nil
}

// HTMLData contains all data needed for the HTML template.
type HTMLData struct {
	Title         string
	GeneratedAt   string
	Suite         *core.SuiteResult
	TotalDuration string
	PassRate      float64
	Flows         []FlowHTMLData
}

// FlowHTMLData contains flow data formatted for HTML.
type FlowHTMLData struct {
	core.FlowResult
	StatusClass string
	DurationStr string
	Steps       []StepHTMLData
}

// StepHTMLData contains step data formatted for HTML.
type StepHTMLData struct {
	core.StepResult
	StatusClass string
	DurationStr string
}

func buildHTMLData(suite *core.SuiteResult, cfg HTMLConfig) HTMLData {
	flows := make([]FlowHTMLData, len(suite.Flows))
	for i, f := range suite.Flows {
		steps := make([]StepHTMLData, len(f.Steps))
		for j, s := range f.Steps {
			steps[j] = StepHTMLData{
				StepResult:  s,
				StatusClass: s.Status.String(),
				DurationStr: FormatDuration(s.Duration),
			}
		}
		flows[i] = FlowHTMLData{
			FlowResult:  f,
			StatusClass: f.Status.String(),
			DurationStr: FormatDuration(f.Duration),
			Steps:       steps,
		}
	}

	var passRate float64
	if suite.TotalFlows > 0 {
		passRate = float64(suite.PassedFlows) / float64(suite.TotalFlows) * 100
	}

	return HTMLData{
		Title:         cfg.Title,
		GeneratedAt:   time.Now().Format("2006-01-02 15:04:05"),
		Suite:         suite,
		TotalDuration: FormatDuration(suite.Duration),
		PassRate:      passRate,
		Flows:         flows,
	}
}

// FormatDuration renders d the way the report and console show it.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
}

func renderHTML(data HTMLData) ([]byte, error) {
	tmpl, err := template.New("report").Parse(htmlTemplate)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif; margin: 2rem; color: #111827; }
        .summary span { margin-right: 1.5rem; }
        .flow { border: 1px solid #e5e7eb; border-radius: 6px; margin: 1rem 0; padding: 0.5rem 1rem; }
        .passed { color: #16a34a; }
        .warned { color: #ca8a04; }
        .failed, .errored { color: #dc2626; }
        .skipped, .pending { color: #6b7280; }
        table { border-collapse: collapse; width: 100%; }
        td, th { text-align: left; padding: 0.25rem 0.5rem; border-top: 1px solid #f3f4f6; }
        code { background: #f3f4f6; padding: 0 0.25rem; }
    </style>
</head>
<body>
    <h1>{{.Title}}</h1>
    <div class="summary" id="summary">
        <span id="total">Total: {{.Suite.TotalFlows}}</span>
        <span id="passed" class="passed">Passed: {{.Suite.PassedFlows}}</span>
        <span id="failed" class="failed">Failed: {{.Suite.FailedFlows}}</span>
        <span id="skipped" class="skipped">Skipped: {{.Suite.SkippedFlows}}</span>
        <span id="pass-rate">{{printf "%.0f" .PassRate}}%</span>
        <span id="duration">{{.TotalDuration}}</span>
    </div>
    <p>Generated {{.GeneratedAt}}</p>
    {{range .Flows}}
    <section class="flow" role="region" aria-label="{{.Name}}">
        <h2 class="{{.StatusClass}}">{{.Name}}</h2>
        <p><code>{{.FilePath}}</code> <span class="{{.StatusClass}}">{{.StatusClass}}</span> {{.DurationStr}}</p>
        {{if .Error}}<p class="failed">{{.Error}}</p>{{end}}
        <table>
            <tr><th>#</th><th>Step</th><th>Status</th><th>Matches</th><th>Time</th><th>Message</th></tr>
            {{range .Steps}}
            <tr role="row">
                <td>{{.Index}}</td>
                <td>{{.Description}}</td>
                <td class="{{.StatusClass}}">{{.StatusClass}}</td>
                <td>{{.Matches}}</td>
                <td>{{.DurationStr}}</td>
                <td>{{if .Error}}{{.Error}}{{else}}{{.Message}}{{end}}</td>
            </tr>
            {{end}}
        </table>
    </section>
    {{end}}
</body>
</html>
`
