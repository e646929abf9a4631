package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/devicelab-dev/domquery/pkg/core"
	"github.com/devicelab-dev/domquery/pkg/dom"
	"github.com/devicelab-dev/domquery/pkg/flow"
	"github.com/devicelab-dev/domquery/pkg/logger"
	"github.com/devicelab-dev/domquery/pkg/query"
)

// Limits for element snippets stored in step results.
const (
	maxTextLen = 80
	maxHTMLLen = 200
)

// FlowRunner executes a single flow.
type FlowRunner struct {
	ctx        context.Context
	flow       *flow.Flow
	config     RunnerConfig
	flowIdx    int // Current flow index (0-based)
	totalFlows int // Total number of flows

	doc  *dom.Document
	vars *flow.Vars
}

// Run executes the flow and returns the result.
func (fr *FlowRunner) Run() core.FlowResult {
	flowStart := time.Now()
	flowName := fr.flow.DisplayName()

	result := core.FlowResult{
		Name:      flowName,
		FilePath:  fr.flow.SourcePath,
		Document:  fr.flow.Config.Document,
		Tags:      fr.flow.Config.Tags,
		StartTime: flowStart,
	}

	if fr.config.OnFlowStart != nil {
		fr.config.OnFlowStart(fr.flowIdx, fr.totalFlows, flowName, filepath.Base(fr.flow.SourcePath))
	}

	fr.vars = flow.NewVars(fr.flow.Config.Env, fr.config.Env, flow.EnvLayer())

	doc, err := fr.loadDocument()
	if err != nil {
		logger.Error("flow %s: %v", flowName, err)
		result.Error = err.Error()
	}
	fr.doc = doc

	stopped := result.Error != ""
	for i, step := range fr.flow.Steps {
		if stopped || fr.ctx.Err() != nil {
			result.Steps = append(result.Steps, core.StepResult{
				Index:       i,
				Command:     string(step.Type()),
				Description: step.Describe(),
				Status:      core.StatusSkipped,
			})
			continue
		}

		sr := fr.executeStep(i, step)
		result.Steps = append(result.Steps, sr)

		if fr.config.OnStepComplete != nil {
			fr.config.OnStepComplete(flowName, i, sr.Description, sr.Status, sr.Duration, sr.Error)
		}
		if sr.Status == core.StatusFailed || sr.Status == core.StatusErrored {
			stopped = true
		}
	}

	result.Duration = time.Since(flowStart)
	result.ComputeSummary()
	result.Status = result.AggregateStatus()
	logger.Info("flow %s: %s (%d/%d steps passed)", flowName, result.Status, result.PassedSteps, result.TotalSteps)

	if fr.config.OnFlowEnd != nil {
		fr.config.OnFlowEnd(flowName, result.Status, result.Duration)
	}
	return result
}

// loadDocument parses the flow's inline markup or document file.
func (fr *FlowRunner) loadDocument() (*dom.Document, error) {
	if fr.flow.Config.HTML != "" {
		return dom.ParseString(fr.flow.Config.HTML)
	}
	path := fr.flow.DocumentPath()
	if path == "" {
		return nil, core.ErrInvalidFlow.WithMessage("flow has no document or html")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, core.ErrInvalidFlow.WithMessage("open document").WithCause(err)
	}
	defer f.Close()

	doc, err := dom.Parse(f)
	if err != nil {
		return nil, core.ErrInvalidFlow.WithMessage("parse document " + path).WithCause(err)
	}
	return doc, nil
}

// executeStep runs one step and converts its outcome into a StepResult.
func (fr *FlowRunner) executeStep(idx int, step flow.Step) (sr core.StepResult) {
	start := time.Now()
	sr = core.StepResult{
		Index:       idx,
		Command:     string(step.Type()),
		Description: step.Describe(),
		StartTime:   start,
	}

	// The engine panics when the host tree breaks a contract.
	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = core.ContractViolation("%v", r)
			}
			fr.finishStep(&sr, step, err)
		}
		sr.Duration = time.Since(start)
	}()

	var err error
	switch s := step.(type) {
	case *flow.QueryStep:
		err = fr.executeQuery(s, &sr)
	case *flow.SetDisplayValueStep:
		err = fr.executeSetDisplayValue(s, &sr)
	case *flow.AssertTextStep:
		err = fr.executeAssertText(s, &sr)
	default:
		err = core.ErrInvalidFlow.WithMessage(fmt.Sprintf("unsupported step type %s", step.Type()))
	}
	fr.finishStep(&sr, step, err)
	return sr
}

// finishStep maps err onto the step's status and category.
func (fr *FlowRunner) finishStep(sr *core.StepResult, step flow.Step, err error) {
	if err == nil {
		sr.Status = core.StatusPassed
		sr.Category = core.ErrCategoryNone
		sr.Error = ""
		return
	}

	sr.Error = err.Error()
	sr.Category = core.CategoryOf(err)
	switch sr.Category {
	case core.ErrCategoryNotFound, core.ErrCategoryMoreThanOne, core.ErrCategoryExpectation:
		sr.Status = core.StatusFailed
	default:
		sr.Status = core.StatusErrored
	}
	if step.IsOptional() {
		sr.Status = core.StatusWarned
	}
	logger.Debug("step %d %s: %s: %v", sr.Index, sr.Description, sr.Status, err)
}

// scope returns the queries for a target, narrowed by its within id.
func (fr *FlowRunner) scope(t flow.Target) (query.Queries, error) {
	root := query.Within(fr.doc)
	if t.Within == "" {
		return root, nil
	}
	container, err := root.GetByID(fr.vars.Expand(t.Within))
	if err != nil {
		return query.Queries{}, fmt.Errorf("within: %w", err)
	}
	return query.Within(container), nil
}

func (fr *FlowRunner) executeQuery(s *flow.QueryStep, sr *core.StepResult) error {
	strategy := s.Strategy()
	text := fr.vars.Expand(s.Target.Query)
	d := core.NewDescriptor(strategy, text)
	sr.Query = &d

	q, err := fr.scope(s.Target)
	if err != nil {
		return err
	}

	if s.StepType.IsPlural() {
		all, err := q.FindAll(strategy, text)
		if err != nil {
			return core.ErrInvalidFlow.WithCause(err)
		}
		sr.Matches = len(all)
		sr.Elements = elementInfos(all)
		if s.Count != nil && len(all) != *s.Count {
			return core.ErrExpectation.
				WithDescriptor(d).
				WithMessage(fmt.Sprintf("%s: expected %d match(es), found %d", d, *s.Count, len(all)))
		}
		sr.Message = fmt.Sprintf("%d match(es)", len(all))
		return nil
	}

	el, err := q.Find(strategy, text)
	switch s.Expectation() {
	case flow.ExpectNotFound:
		if core.IsNotFound(err) {
			sr.Message = "not found, as expected"
			return nil
		}
	case flow.ExpectMoreThanOne:
		if core.IsMoreThanOne(err) {
			sr.Message = "more than one, as expected"
			return nil
		}
	default:
		if err == nil {
			sr.Matches = 1
			sr.Elements = elementInfos([]dom.Element{el})
			sr.Message = el.String()
			return nil
		}
		return err
	}

	// A differing outcome for notFound/moreThanOne expectations.
	if err == nil {
		sr.Matches = 1
		sr.Elements = elementInfos([]dom.Element{el})
		return core.ErrExpectation.
			WithDescriptor(d).
			WithMessage(fmt.Sprintf("%s: expected %s, found %s", d, s.Expectation(), el))
	}
	if core.CategoryOf(err) == core.ErrCategoryContract {
		return err
	}
	return core.ErrExpectation.
		WithDescriptor(d).
		WithMessage(fmt.Sprintf("%s: expected %s", d, s.Expectation())).
		WithCause(err)
}

// findTarget runs the singular query a non-query step acts on.
func (fr *FlowRunner) findTarget(t flow.Target, sr *core.StepResult) (dom.Element, error) {
	strategy, err := t.Strategy()
	if err != nil {
		return dom.Element{}, core.ErrInvalidFlow.WithCause(err)
	}
	text := fr.vars.Expand(t.Query)
	d := core.NewDescriptor(strategy, text)
	sr.Query = &d

	q, err := fr.scope(t)
	if err != nil {
		return dom.Element{}, err
	}
	el, err := q.Find(strategy, text)
	if err != nil {
		return dom.Element{}, err
	}
	sr.Matches = 1
	sr.Elements = elementInfos([]dom.Element{el})
	return el, nil
}

func (fr *FlowRunner) executeSetDisplayValue(s *flow.SetDisplayValueStep, sr *core.StepResult) error {
	el, err := fr.findTarget(s.Target, sr)
	if err != nil {
		return err
	}
	value := fr.vars.Expand(s.Value)
	if err := el.SetDisplayValue(value); err != nil {
		return err
	}
	sr.Message = fmt.Sprintf("%s = %q", el, value)
	return nil
}

func (fr *FlowRunner) executeAssertText(s *flow.AssertTextStep, sr *core.StepResult) error {
	el, err := fr.findTarget(s.Target, sr)
	if err != nil {
		return err
	}
	text := el.RenderedText()

	if s.Equals != nil {
		want := fr.vars.Expand(*s.Equals)
		if text != want {
			return core.ErrExpectation.WithMessage(fmt.Sprintf("%s text is %q, expected %q", el, truncate(text, maxTextLen), want))
		}
	}
	if s.TextContains != "" {
		want := fr.vars.Expand(s.TextContains)
		if !strings.Contains(text, want) {
			return core.ErrExpectation.WithMessage(fmt.Sprintf("%s text %q does not contain %q", el, truncate(text, maxTextLen), want))
		}
	}
	sr.Message = fmt.Sprintf("%s text %q", el, truncate(text, maxTextLen))
	return nil
}

func elementInfos(elements []dom.Element) []core.ElementInfo {
	if len(elements) == 0 {
		return nil
	}
	infos := make([]core.ElementInfo, len(elements))
	for i, el := range elements {
		infos[i] = core.ElementInfo{
			Tag:  el.TagName(),
			ID:   el.ID(),
			Role: el.Role(),
			Text: truncate(el.RenderedText(), maxTextLen),
			HTML: truncate(el.OuterHTML(), maxHTMLLen),
		}
	}
	return infos
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
