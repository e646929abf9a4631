package core

import (
	"time"
)

// ElementInfo is the reportable summary of a matched element.
type ElementInfo struct {
	Tag  string `json:"tag"`
	ID   string `json:"id,omitempty"`
	Role string `json:"role,omitempty"`
	Text string `json:"text,omitempty"`
	HTML string `json:"html,omitempty"`
}

// StepResult captures the outcome of evaluating a single step
type StepResult struct {
	// Identity
	Index       int    `json:"index"`   // 0-based position in flow
	Command     string `json:"command"` // getByText, setDisplayValue, etc.
	Description string `json:"description"`

	// Query that was evaluated, if any
	Query *Descriptor `json:"query,omitempty"`

	// Status
	Status   StepStatus    `json:"status"`
	Category ErrorCategory `json:"errorCategory,omitempty"`

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	// Output
	Message  string        `json:"message,omitempty"`
	Matches  int           `json:"matches"`
	Elements []ElementInfo `json:"elements,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// FlowResult captures the complete outcome of executing a flow
type FlowResult struct {
	// Identity
	Name     string   `json:"name"`
	FilePath string   `json:"filePath"`
	Document string   `json:"document,omitempty"`
	Tags     []string `json:"tags,omitempty"`

	// Status (aggregated from steps)
	Status StepStatus `json:"status"`

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	Steps []StepResult `json:"steps"`

	// Summary (computed)
	TotalSteps   int `json:"totalSteps"`
	PassedSteps  int `json:"passedSteps"`
	FailedSteps  int `json:"failedSteps"`
	SkippedSteps int `json:"skippedSteps"`
	WarnedSteps  int `json:"warnedSteps"`

	// Error info (if flow failed before or outside its steps)
	Error string `json:"error,omitempty"`
}

// ComputeSummary calculates step counts from the Steps slice
func (f *FlowResult) ComputeSummary() {
	f.TotalSteps = len(f.Steps)
	f.PassedSteps = 0
	f.FailedSteps = 0
	f.SkippedSteps = 0
	f.WarnedSteps = 0

	for _, step := range f.Steps {
		switch step.Status {
		case StatusPassed:
			f.PassedSteps++
		case StatusFailed, StatusErrored:
			f.FailedSteps++
		case StatusSkipped:
			f.SkippedSteps++
		case StatusWarned:
			f.WarnedSteps++
		}
	}
}

// AggregateStatus determines the flow status from step results
// Rules:
// - Flow-level error (document not loadable) → StatusErrored
// - Any failed/errored step → StatusFailed
// - Otherwise warned if any step warned, else passed
func (f *FlowResult) AggregateStatus() StepStatus {
	if f.Error != "" {
		return StatusErrored
	}
	warned := false
	for _, step := range f.Steps {
		switch step.Status {
		case StatusFailed, StatusErrored:
			return StatusFailed
		case StatusWarned:
			warned = true
		}
	}
	if warned {
		return StatusWarned
	}
	return StatusPassed
}

// SuiteResult captures the complete outcome of executing multiple flows
type SuiteResult struct {
	// Identity
	Name  string `json:"name"`
	RunID string `json:"runId"`

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	Flows []FlowResult `json:"flows"`

	// Summary
	TotalFlows   int `json:"totalFlows"`
	PassedFlows  int `json:"passedFlows"`
	FailedFlows  int `json:"failedFlows"`
	SkippedFlows int `json:"skippedFlows"`
}

// ComputeSummary calculates flow counts from the Flows slice
func (s *SuiteResult) ComputeSummary() {
	s.TotalFlows = len(s.Flows)
	s.PassedFlows = 0
	s.FailedFlows = 0
	s.SkippedFlows = 0

	for _, flow := range s.Flows {
		switch flow.Status {
		case StatusPassed, StatusWarned:
			s.PassedFlows++
		case StatusFailed, StatusErrored:
			s.FailedFlows++
		case StatusSkipped:
			s.SkippedFlows++
		}
	}
}

// Success returns true if all flows passed (including warned)
func (s *SuiteResult) Success() bool {
	for _, flow := range s.Flows {
		if !flow.Status.IsSuccess() {
			return false
		}
	}
	return len(s.Flows) > 0
}
