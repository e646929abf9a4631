package executor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/devicelab-dev/domquery/pkg/core"
	"github.com/devicelab-dev/domquery/pkg/flow"
	"github.com/devicelab-dev/domquery/pkg/report"
)

const loginForm = `<form id="login">
  <label for="email">Email</label><input id="email" type="email" placeholder="you@example.com">
  <label for="pw">Password</label><input id="pw" type="password">
  <select id="plan"><option>Free</option><option selected>Pro</option></select>
  <button role="button">Sign in</button>
</form>
<p id="msg">Welcome back, Ada</p>`

// mustParse parses a flow from YAML, placing it in dir.
func mustParse(t *testing.T, dir, name, yaml string) *flow.Flow {
	t.Helper()
	f, err := flow.Parse([]byte(yaml), filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("parse %s: %v", name, err)
	}
	return f
}

func inlineFlow(t *testing.T, name, steps string) *flow.Flow {
	t.Helper()
	yaml := "name: " + name + "\nhtml: |\n"
	for _, line := range strings.Split(loginForm, "\n") {
		yaml += "  " + line + "\n"
	}
	yaml += "---\n" + steps
	return mustParse(t, t.TempDir(), name+".yaml", yaml)
}

func TestRunner_Run_AllPassed(t *testing.T) {
	tmpDir := t.TempDir()

	flows := []*flow.Flow{
		inlineFlow(t, "login", `- getByLabel: Email
- getByPlaceholder: you@example.com
- getByDisplayValue: Pro
- getByRole: button
- getAllByRole:
    query: button
    count: 1
- getByText:
    query: Welcome
    contains: true
`),
	}

	runner := New(RunnerConfig{OutputDir: tmpDir})
	result, err := runner.Run(context.Background(), flows)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.TotalFlows != 1 || result.PassedFlows != 1 {
		t.Errorf("flows total=%d passed=%d, want 1/1", result.TotalFlows, result.PassedFlows)
	}
	if !result.Success() {
		t.Errorf("Success() = false, flow = %+v", result.Flows[0])
	}
	fr := result.Flows[0]
	if fr.PassedSteps != 6 {
		t.Errorf("PassedSteps = %d, want 6", fr.PassedSteps)
	}
	if got := fr.Steps[0].Elements; len(got) != 1 || got[0].ID != "email" {
		t.Errorf("getByLabel elements = %+v, want #email", got)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, report.FileName)); err != nil {
		t.Errorf("report not written: %v", err)
	}
}

func TestRunner_Run_StepOutcomes(t *testing.T) {
	tests := []struct {
		name         string
		steps        string
		wantStatus   core.StepStatus
		wantCategory core.ErrorCategory
	}{
		{"found", "- getById: email\n", core.StatusPassed, core.ErrCategoryNone},
		{"not found", "- getByText: Nope\n", core.StatusFailed, core.ErrCategoryNotFound},
		{"expected not found", "- getByText:\n    query: Nope\n    expect: notFound\n", core.StatusPassed, core.ErrCategoryNone},
		{"expected not found but found", "- getById:\n    query: email\n    expect: notFound\n", core.StatusFailed, core.ErrCategoryExpectation},
		{"optional failure warns", "- getByText:\n    query: Nope\n    optional: true\n", core.StatusWarned, core.ErrCategoryNotFound},
		{"count mismatch", "- getAllByLabel:\n    query: Email\n    count: 2\n", core.StatusFailed, core.ErrCategoryExpectation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := inlineFlow(t, "outcomes", tt.steps)
			result, err := New(RunnerConfig{}).Run(context.Background(), []*flow.Flow{f})
			if err != nil {
				t.Fatal(err)
			}
			step := result.Flows[0].Steps[0]
			if step.Status != tt.wantStatus {
				t.Errorf("status = %v, want %v (error %q)", step.Status, tt.wantStatus, step.Error)
			}
			if step.Category != tt.wantCategory {
				t.Errorf("category = %v, want %v", step.Category, tt.wantCategory)
			}
		})
	}
}

func TestRunner_Run_MoreThanOne(t *testing.T) {
	f := inlineFlow(t, "many", `- getByText:
    query: a
    contains: true
    expect: moreThanOne
- getByText:
    query: a
    contains: true
`)
	result, err := New(RunnerConfig{}).Run(context.Background(), []*flow.Flow{f})
	if err != nil {
		t.Fatal(err)
	}
	steps := result.Flows[0].Steps
	if steps[0].Status != core.StatusPassed {
		t.Errorf("expect moreThanOne: status = %v (%s)", steps[0].Status, steps[0].Error)
	}
	if steps[1].Status != core.StatusFailed || steps[1].Category != core.ErrCategoryMoreThanOne {
		t.Errorf("singular over many: status = %v category = %v", steps[1].Status, steps[1].Category)
	}
	if result.Flows[0].Status != core.StatusFailed {
		t.Errorf("flow status = %v, want failed", result.Flows[0].Status)
	}
}

func TestRunner_Run_FailureSkipsRemainingSteps(t *testing.T) {
	f := inlineFlow(t, "skip", `- getByText: Nope
- getById: email
- getById: pw
`)
	result, err := New(RunnerConfig{}).Run(context.Background(), []*flow.Flow{f})
	if err != nil {
		t.Fatal(err)
	}
	fr := result.Flows[0]
	if fr.FailedSteps != 1 || fr.SkippedSteps != 2 {
		t.Errorf("failed=%d skipped=%d, want 1/2", fr.FailedSteps, fr.SkippedSteps)
	}
}

func TestRunner_Run_SetDisplayValueAndAssertText(t *testing.T) {
	f := inlineFlow(t, "interact", `- setDisplayValue:
    by: label
    query: Email
    value: ${USER_EMAIL}
- getByDisplayValue: ada@example.com
- setDisplayValue:
    by: id
    query: plan
    value: Free
- getByDisplayValue: Free
- assertText:
    by: id
    query: msg
    textContains: Ada
`)
	result, err := New(RunnerConfig{Env: map[string]string{"USER_EMAIL": "ada@example.com"}}).
		Run(context.Background(), []*flow.Flow{f})
	if err != nil {
		t.Fatal(err)
	}
	fr := result.Flows[0]
	for _, s := range fr.Steps {
		if s.Status != core.StatusPassed {
			t.Errorf("step %d %s: %v %s", s.Index, s.Description, s.Status, s.Error)
		}
	}
}

func TestRunner_Run_AssertTextMismatch(t *testing.T) {
	f := inlineFlow(t, "assert", `- assertText:
    by: id
    query: msg
    equals: Goodbye
`)
	result, err := New(RunnerConfig{}).Run(context.Background(), []*flow.Flow{f})
	if err != nil {
		t.Fatal(err)
	}
	step := result.Flows[0].Steps[0]
	if step.Status != core.StatusFailed || step.Category != core.ErrCategoryExpectation {
		t.Errorf("status = %v category = %v, want failed/expectation", step.Status, step.Category)
	}
}

func TestRunner_Run_IndentedDocument(t *testing.T) {
	dir := t.TempDir()
	page := "<main>\n  <h1 id=\"title\">\n    Order\n    summary\n  </h1>\n  <button>\n    Pay now\n  </button>\n</main>\n"
	if err := os.WriteFile(filepath.Join(dir, "order.html"), []byte(page), 0o644); err != nil {
		t.Fatal(err)
	}
	f := mustParse(t, dir, "order.yaml", `document: order.html
---
- getByText: Pay now
- assertText:
    by: id
    query: title
    equals: Order summary
`)
	result, err := New(RunnerConfig{}).Run(context.Background(), []*flow.Flow{f})
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range result.Flows[0].Steps {
		if s.Status != core.StatusPassed {
			t.Errorf("step %d %s: %v %s", s.Index, s.Description, s.Status, s.Error)
		}
	}
	if got := result.Flows[0].Steps[1].Elements[0].Text; got != "Order summary" {
		t.Errorf("element text = %q, want %q", got, "Order summary")
	}
}

func TestRunner_Run_SetDisplayValueOnNonControlErrors(t *testing.T) {
	f := inlineFlow(t, "contract", `- setDisplayValue:
    by: id
    query: msg
    value: x
`)
	result, err := New(RunnerConfig{}).Run(context.Background(), []*flow.Flow{f})
	if err != nil {
		t.Fatal(err)
	}
	step := result.Flows[0].Steps[0]
	if step.Status != core.StatusErrored || step.Category != core.ErrCategoryContract {
		t.Errorf("status = %v category = %v, want errored/contract", step.Status, step.Category)
	}
}

func TestRunner_Run_Within(t *testing.T) {
	f := inlineFlow(t, "within", `- getByText:
    query: Welcome
    contains: true
    within: login
    expect: notFound
- getByRole:
    query: button
    within: login
`)
	result, err := New(RunnerConfig{}).Run(context.Background(), []*flow.Flow{f})
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range result.Flows[0].Steps {
		if s.Status != core.StatusPassed {
			t.Errorf("step %d: %v %s", s.Index, s.Status, s.Error)
		}
	}
}

func TestRunner_Run_DocumentFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "page.html"), []byte(loginForm), 0o644); err != nil {
		t.Fatal(err)
	}
	ok := mustParse(t, dir, "ok.yaml", "document: page.html\n---\n- getById: pw\n")
	missing := mustParse(t, dir, "missing.yaml", "document: gone.html\n---\n- getById: pw\n")

	result, err := New(RunnerConfig{}).Run(context.Background(), []*flow.Flow{ok, missing})
	if err != nil {
		t.Fatal(err)
	}
	if result.Flows[0].Status != core.StatusPassed {
		t.Errorf("document flow: %v %s", result.Flows[0].Status, result.Flows[0].Error)
	}
	if result.Flows[1].Status != core.StatusErrored || result.Flows[1].Error == "" {
		t.Errorf("missing document flow: %v %q", result.Flows[1].Status, result.Flows[1].Error)
	}
	if result.Flows[1].SkippedSteps != 1 {
		t.Errorf("missing document skipped steps = %d, want 1", result.Flows[1].SkippedSteps)
	}
}

func TestRunner_Run_StopOnFail(t *testing.T) {
	flows := []*flow.Flow{
		inlineFlow(t, "fails", "- getByText: Nope\n"),
		inlineFlow(t, "never", "- getById: email\n"),
	}
	result, err := New(RunnerConfig{StopOnFail: true}).Run(context.Background(), flows)
	if err != nil {
		t.Fatal(err)
	}
	if result.Flows[1].Status != core.StatusSkipped {
		t.Errorf("second flow status = %v, want skipped", result.Flows[1].Status)
	}
	if result.FailedFlows != 1 || result.SkippedFlows != 1 {
		t.Errorf("failed=%d skipped=%d", result.FailedFlows, result.SkippedFlows)
	}
}

func TestRunner_Run_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	flows := []*flow.Flow{inlineFlow(t, "a", "- getById: email\n")}
	result, err := New(RunnerConfig{}).Run(ctx, flows)
	if err != nil {
		t.Fatal(err)
	}
	if result.Flows[0].Status != core.StatusSkipped || result.Flows[0].Error != "run cancelled" {
		t.Errorf("flow = %v %q, want skipped/run cancelled", result.Flows[0].Status, result.Flows[0].Error)
	}
}

func TestRunner_Run_Parallel(t *testing.T) {
	var flows []*flow.Flow
	for _, name := range []string{"p1", "p2", "p3", "p4", "p5"} {
		flows = append(flows, inlineFlow(t, name, "- getByLabel: Password\n"))
	}

	var mu sync.Mutex
	started := map[string]bool{}
	ended := 0
	cfg := RunnerConfig{
		Parallelism: 3,
		OnFlowStart: func(_, total int, name, _ string) {
			mu.Lock()
			defer mu.Unlock()
			if total != 5 {
				t.Errorf("totalFlows = %d, want 5", total)
			}
			started[name] = true
		},
		OnFlowEnd: func(string, core.StepStatus, time.Duration) {
			mu.Lock()
			ended++
			mu.Unlock()
		},
	}
	result, err := New(cfg).Run(context.Background(), flows)
	if err != nil {
		t.Fatal(err)
	}
	if result.PassedFlows != 5 {
		t.Errorf("PassedFlows = %d, want 5", result.PassedFlows)
	}
	for i, fr := range result.Flows {
		if fr.Name != flows[i].DisplayName() {
			t.Errorf("result %d = %s, want %s", i, fr.Name, flows[i].DisplayName())
		}
	}
	if len(started) != 5 || ended != 5 {
		t.Errorf("started=%d ended=%d, want 5/5", len(started), ended)
	}
}

func TestRunner_Run_OnStepComplete(t *testing.T) {
	f := inlineFlow(t, "progress", "- getById: email\n- getByText: Nope\n- getById: pw\n")

	var statuses []core.StepStatus
	cfg := RunnerConfig{
		OnStepComplete: func(_ string, _ int, _ string, status core.StepStatus, _ time.Duration, _ string) {
			statuses = append(statuses, status)
		},
	}
	if _, err := New(cfg).Run(context.Background(), []*flow.Flow{f}); err != nil {
		t.Fatal(err)
	}
	want := []core.StepStatus{core.StatusPassed, core.StatusFailed}
	if len(statuses) != len(want) {
		t.Fatalf("callbacks = %v, want %v", statuses, want)
	}
	for i := range want {
		if statuses[i] != want[i] {
			t.Errorf("callback %d = %v, want %v", i, statuses[i], want[i])
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate short = %q", got)
	}
	if got := truncate("ééééé", 2); got != "éé..." {
		t.Errorf("truncate runes = %q", got)
	}
}
