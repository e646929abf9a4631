// Package validator validates flow files before execution.
// It parses all files upfront, checks that every flow can reach its
// document, and applies tag filters.
package validator

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/devicelab-dev/domquery/pkg/flow"
)

// ValidationError represents a validation error with context.
type ValidationError struct {
	File    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// Result contains the validation result.
type Result struct {
	// Files is the list of flow file paths in execution order.
	Files []string
	// Flows holds the parsed flow for each entry of Files.
	Flows []*flow.Flow
	// Skipped lists files left out by tag filters.
	Skipped []string
	// Errors contains all validation errors found.
	Errors []error
}

// IsValid returns true if there are no validation errors.
func (r *Result) IsValid() bool {
	return len(r.Errors) == 0
}

// Validator validates flow files.
type Validator struct {
	includeTags []string
	excludeTags []string
}

// New creates a new Validator.
func New(includeTags, excludeTags []string) *Validator {
	return &Validator{
		includeTags: includeTags,
		excludeTags: excludeTags,
	}
}

// Validate validates files or directories. Each file is checked once even
// when several paths reach it.
func (v *Validator) Validate(paths ...string) *Result {
	result := &Result{}
	seen := make(map[string]bool)

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			result.Errors = append(result.Errors, &ValidationError{
				File:    path,
				Message: fmt.Sprintf("cannot access: %v", err),
			})
			continue
		}

		var files []string
		if info.IsDir() {
			files, err = v.collectFlowFiles(path)
			if err != nil {
				result.Errors = append(result.Errors, &ValidationError{
					File:    path,
					Message: fmt.Sprintf("failed to scan directory: %v", err),
				})
				continue
			}
		} else {
			files = []string{path}
		}

		for _, file := range files {
			clean := filepath.Clean(file)
			if seen[clean] {
				continue
			}
			seen[clean] = true
			v.validateFile(clean, result)
		}
	}

	return result
}

// collectFlowFiles finds all .yaml/.yml files in a directory, sorted so
// runs are reproducible.
func (v *Validator) collectFlowFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".yaml" || ext == ".yml" {
			if isWorkspaceConfig(path) {
				return nil
			}
			files = append(files, path)
		}
		return nil
	})

	sort.Strings(files)
	return files, err
}

// isWorkspaceConfig reports whether path is the workspace config.yaml, which
// lives next to flows but is not one.
func isWorkspaceConfig(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	return base == "config.yaml" || base == "config.yml"
}

// validateFile parses one flow and checks its document.
func (v *Validator) validateFile(filePath string, result *Result) {
	f, err := flow.ParseFile(filePath)
	if err != nil {
		result.Errors = append(result.Errors, &ValidationError{
			File:    filePath,
			Message: fmt.Sprintf("parse error: %v", err),
		})
		return
	}

	if !flow.ShouldIncludeFlow(f, v.includeTags, v.excludeTags) {
		result.Skipped = append(result.Skipped, filePath)
		return
	}

	if err := checkDocument(f); err != nil {
		result.Errors = append(result.Errors, &ValidationError{
			File:    filePath,
			Message: err.Error(),
		})
		return
	}

	if len(f.Steps) == 0 {
		result.Errors = append(result.Errors, &ValidationError{
			File:    filePath,
			Message: "flow has no steps",
		})
		return
	}

	result.Files = append(result.Files, filePath)
	result.Flows = append(result.Flows, f)
}

func checkDocument(f *flow.Flow) error {
	if f.Config.HTML != "" {
		return nil
	}
	path := f.DocumentPath()
	if path == "" {
		return fmt.Errorf("flow names no document: set document or html in the config section")
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("document %s: %v", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("document %s is a directory", path)
	}
	return nil
}
