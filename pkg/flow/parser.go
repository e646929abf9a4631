package flow

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/domquery/pkg/core"
	"github.com/devicelab-dev/domquery/pkg/logger"
)

// ParseError represents a parsing error with location info.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Unwrap lets errors.Is(err, core.ErrInvalidFlow) match parse errors.
func (e *ParseError) Unwrap() error { return core.ErrInvalidFlow }

// ParseFile parses a single flow file.
func ParseFile(path string) (*Flow, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is user-provided flow file
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	flow, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	logger.Debug("parsed %s: %d step(s)", path, len(flow.Steps))
	return flow, nil
}

// Parse parses flow YAML content: an optional config document, then a
// sequence of steps.
func Parse(data []byte, sourcePath string) (*Flow, error) {
	parts := splitYAMLDocuments(string(data))

	flow := &Flow{
		SourcePath: sourcePath,
	}

	if len(parts) == 0 {
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    1,
			Message: "empty flow file",
		}
	}

	if len(parts) == 1 {
		if err := parseSteps(parts[0], flow); err != nil {
			return nil, err
		}
	} else {
		if err := parseConfig(parts[0], flow); err != nil {
			return nil, err
		}
		if err := parseSteps(parts[1], flow); err != nil {
			return nil, err
		}
	}

	return flow, nil
}

// blockScalarHeader matches a line opening a literal or folded block, such
// as "html: |" or "- >-". Markup ending in ">" is not a header.
var blockScalarHeader = regexp.MustCompile(`(^|\s)[|>][-+]?[0-9]?$`)

func splitYAMLDocuments(content string) []string {
	var parts []string
	var current strings.Builder
	inMultiline := false
	multilineIndent := 0

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if !inMultiline {
			if blockScalarHeader.MatchString(trimmed) && i+1 < len(lines) {
				indent := len(line) - len(strings.TrimLeft(line, " \t"))
				next := lines[i+1]
				multilineIndent = len(next) - len(strings.TrimLeft(next, " \t"))
				inMultiline = multilineIndent > indent
			}
		} else {
			indent := len(line) - len(strings.TrimLeft(line, " \t"))
			if trimmed != "" && indent < multilineIndent {
				inMultiline = false
			}
		}

		if !inMultiline && trimmed == "---" && strings.TrimLeft(line, " \t") == "---" {
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		} else {
			current.WriteString(line)
			current.WriteString("\n")
		}
	}

	if current.Len() > 0 {
		s := strings.TrimSpace(current.String())
		if s != "" {
			parts = append(parts, current.String())
		}
	}

	return parts
}

func parseConfig(content string, flow *Flow) error {
	var config Config
	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return &ParseError{
			Path:    flow.SourcePath,
			Message: fmt.Sprintf("invalid config: %v", err),
		}
	}
	if config.Document != "" && config.HTML != "" {
		return &ParseError{
			Path:    flow.SourcePath,
			Message: "config sets both document and html",
		}
	}

	flow.Config = config
	return nil
}

func parseSteps(content string, flow *Flow) error {
	var rawSteps []yaml.Node
	if err := yaml.Unmarshal([]byte(content), &rawSteps); err != nil {
		return &ParseError{
			Path:    flow.SourcePath,
			Message: fmt.Sprintf("invalid steps: %v", err),
		}
	}

	for _, node := range rawSteps {
		step, err := parseStep(&node, flow.SourcePath)
		if err != nil {
			return err
		}
		flow.Steps = append(flow.Steps, step)
	}

	return nil
}

func parseStep(node *yaml.Node, sourcePath string) (Step, error) {
	if node.Kind != yaml.MappingNode {
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    node.Line,
			Message: "step must be a mapping",
		}
	}

	stepType, valueNode := extractStepType(node)
	if stepType == "" || valueNode == nil {
		key := ""
		if len(node.Content) > 0 {
			key = node.Content[0].Value
		}
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    node.Line,
			Message: fmt.Sprintf("unknown step type: %s", key),
		}
	}

	return decodeStep(StepType(stepType), valueNode, sourcePath)
}

func extractStepType(node *yaml.Node) (string, *yaml.Node) {
	for i := 0; i < len(node.Content)-1; i += 2 {
		key := node.Content[i].Value
		if isStepType(key) {
			return key, node.Content[i+1]
		}
	}
	return "", nil
}

func isStepType(key string) bool {
	t := StepType(key)
	return t.IsQuery() || t == StepSetDisplayValue || t == StepAssertText
}

func decodeStep(stepType StepType, valueNode *yaml.Node, sourcePath string) (Step, error) {
	switch {
	case stepType.IsQuery():
		var s QueryStep
		if valueNode.Kind == yaml.ScalarNode {
			s.Target.Query = valueNode.Value
		} else if err := valueNode.Decode(&s); err != nil {
			return nil, wrapParseError(sourcePath, valueNode.Line, err)
		}
		s.StepType = stepType
		if err := validateQueryStep(&s); err != nil {
			return nil, wrapParseError(sourcePath, valueNode.Line, err)
		}
		return &s, nil

	case stepType == StepSetDisplayValue:
		var s SetDisplayValueStep
		if err := valueNode.Decode(&s); err != nil {
			return nil, wrapParseError(sourcePath, valueNode.Line, err)
		}
		s.StepType = stepType
		if err := validateTarget(&s.Target); err != nil {
			return nil, wrapParseError(sourcePath, valueNode.Line, err)
		}
		return &s, nil

	case stepType == StepAssertText:
		var s AssertTextStep
		if err := valueNode.Decode(&s); err != nil {
			return nil, wrapParseError(sourcePath, valueNode.Line, err)
		}
		s.StepType = stepType
		if err := validateTarget(&s.Target); err != nil {
			return nil, wrapParseError(sourcePath, valueNode.Line, err)
		}
		if s.Equals == nil && s.TextContains == "" {
			return nil, wrapParseError(sourcePath, valueNode.Line,
				fmt.Errorf("assertText needs equals or textContains"))
		}
		return &s, nil
	}

	return nil, &ParseError{
		Path:    sourcePath,
		Line:    valueNode.Line,
		Message: fmt.Sprintf("unknown step type: %s", stepType),
	}
}

func validateQueryStep(s *QueryStep) error {
	if s.Target.IsEmpty() {
		return fmt.Errorf("%s needs a query", s.StepType)
	}
	if s.Target.By != "" {
		return fmt.Errorf("%s takes its strategy from the step name, drop by: %s", s.StepType, s.Target.By)
	}
	if s.Strategy() == "" {
		return fmt.Errorf("%s has no contains variant", s.StepType)
	}
	if !s.Expect.IsValid() {
		return fmt.Errorf("unknown expect value %q", s.Expect)
	}
	if s.StepType.IsPlural() && s.Expect != "" {
		return fmt.Errorf("%s never fails, use count instead of expect", s.StepType)
	}
	if !s.StepType.IsPlural() && s.Count != nil {
		return fmt.Errorf("count applies to getAllBy steps only")
	}
	if s.Count != nil && *s.Count < 0 {
		return fmt.Errorf("count must not be negative")
	}
	return nil
}

func validateTarget(t *Target) error {
	if t.IsEmpty() {
		return fmt.Errorf("query is required")
	}
	_, err := t.Strategy()
	return err
}

func wrapParseError(path string, line int, err error) error {
	return &ParseError{
		Path:    path,
		Line:    line,
		Message: err.Error(),
	}
}

// ShouldIncludeFlow checks if a flow matches tag filters.
func ShouldIncludeFlow(flow *Flow, includeTags, excludeTags []string) bool {
	if len(includeTags) > 0 {
		hasTag := false
		for _, tag := range flow.Config.Tags {
			for _, include := range includeTags {
				if tag == include {
					hasTag = true
					break
				}
			}
		}
		if !hasTag {
			return false
		}
	}

	for _, tag := range flow.Config.Tags {
		for _, exclude := range excludeTags {
			if tag == exclude {
				return false
			}
		}
	}

	return true
}
