package core

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestFlowResult_ComputeSummary(t *testing.T) {
	flow := &FlowResult{
		Name: "test-flow",
		Steps: []StepResult{
			{Index: 0, Status: StatusPassed},
			{Index: 1, Status: StatusPassed},
			{Index: 2, Status: StatusFailed},
			{Index: 3, Status: StatusSkipped},
			{Index: 4, Status: StatusWarned},
			{Index: 5, Status: StatusErrored},
		},
	}

	flow.ComputeSummary()

	if flow.TotalSteps != 6 {
		t.Errorf("TotalSteps = %d, want 6", flow.TotalSteps)
	}
	if flow.PassedSteps != 2 {
		t.Errorf("PassedSteps = %d, want 2", flow.PassedSteps)
	}
	if flow.FailedSteps != 2 { // Failed + Errored
		t.Errorf("FailedSteps = %d, want 2", flow.FailedSteps)
	}
	if flow.SkippedSteps != 1 {
		t.Errorf("SkippedSteps = %d, want 1", flow.SkippedSteps)
	}
	if flow.WarnedSteps != 1 {
		t.Errorf("WarnedSteps = %d, want 1", flow.WarnedSteps)
	}
}

func TestFlowResult_AggregateStatus(t *testing.T) {
	tests := []struct {
		name string
		flow FlowResult
		want StepStatus
	}{
		{
			name: "all passed",
			flow: FlowResult{Steps: []StepResult{{Status: StatusPassed}, {Status: StatusPassed}}},
			want: StatusPassed,
		},
		{
			name: "with warned",
			flow: FlowResult{Steps: []StepResult{{Status: StatusPassed}, {Status: StatusWarned}}},
			want: StatusWarned,
		},
		{
			name: "with failed",
			flow: FlowResult{Steps: []StepResult{{Status: StatusWarned}, {Status: StatusFailed}, {Status: StatusSkipped}}},
			want: StatusFailed,
		},
		{
			name: "with errored step",
			flow: FlowResult{Steps: []StepResult{{Status: StatusPassed}, {Status: StatusErrored}}},
			want: StatusFailed,
		},
		{
			name: "flow level error",
			flow: FlowResult{Error: "document not found"},
			want: StatusErrored,
		},
		{
			name: "no steps",
			flow: FlowResult{},
			want: StatusPassed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.flow.AggregateStatus(); got != tt.want {
				t.Errorf("AggregateStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSuiteResult_ComputeSummary(t *testing.T) {
	suite := &SuiteResult{
		Flows: []FlowResult{
			{Status: StatusPassed},
			{Status: StatusPassed},
			{Status: StatusFailed},
			{Status: StatusWarned},
			{Status: StatusSkipped},
			{Status: StatusErrored},
		},
	}

	suite.ComputeSummary()

	if suite.TotalFlows != 6 {
		t.Errorf("TotalFlows = %d, want 6", suite.TotalFlows)
	}
	if suite.PassedFlows != 3 { // Passed + Warned
		t.Errorf("PassedFlows = %d, want 3", suite.PassedFlows)
	}
	if suite.FailedFlows != 2 {
		t.Errorf("FailedFlows = %d, want 2", suite.FailedFlows)
	}
	if suite.SkippedFlows != 1 {
		t.Errorf("SkippedFlows = %d, want 1", suite.SkippedFlows)
	}
}

func TestSuiteResult_Success(t *testing.T) {
	tests := []struct {
		name     string
		flows    []FlowResult
		expected bool
	}{
		{
			name:     "all passed",
			flows:    []FlowResult{{Status: StatusPassed}, {Status: StatusPassed}},
			expected: true,
		},
		{
			name:     "passed and warned",
			flows:    []FlowResult{{Status: StatusPassed}, {Status: StatusWarned}},
			expected: true,
		},
		{
			name:     "one failed",
			flows:    []FlowResult{{Status: StatusPassed}, {Status: StatusFailed}},
			expected: false,
		},
		{
			name:     "empty suite",
			flows:    []FlowResult{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			suite := &SuiteResult{Flows: tt.flows}
			if got := suite.Success(); got != tt.expected {
				t.Errorf("Success() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStepResult_JSON(t *testing.T) {
	d := NewDescriptor(StrategyLabel, "Email")
	step := StepResult{
		Command:  "getByLabel",
		Query:    &d,
		Status:   StatusFailed,
		Category: ErrCategoryNotFound,
		Matches:  0,
	}

	data, err := json.Marshal(step)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	out := string(data)
	for _, part := range []string{`"status":"failed"`, `"errorCategory":"not_found"`, `"strategy":"by_label"`} {
		if !strings.Contains(out, part) {
			t.Errorf("JSON %s should contain %s", out, part)
		}
	}
}
