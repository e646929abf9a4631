// Package flow handles parsing and representation of query flow files: a
// YAML document naming the HTML under test followed by the queries to run
// against it.
package flow

import "path/filepath"

// Flow represents a parsed flow file.
type Flow struct {
	SourcePath string // Path to the source file
	Config     Config // Flow configuration (document, tags, etc.)
	Steps      []Step // Steps to execute
}

// Config represents flow-level configuration.
type Config struct {
	Name     string            `yaml:"name"`
	Document string            `yaml:"document"` // HTML file, relative to the flow file
	HTML     string            `yaml:"html"`     // Inline markup (alternative to document)
	Tags     []string          `yaml:"tags"`
	Env      map[string]string `yaml:"env"`
}

// DisplayName returns the configured name, falling back to the file name.
func (f *Flow) DisplayName() string {
	if f.Config.Name != "" {
		return f.Config.Name
	}
	base := filepath.Base(f.SourcePath)
	return base[:len(base)-len(filepath.Ext(base))]
}

// DocumentPath resolves the document path against the flow's directory.
// It returns "" when the flow carries inline markup or no document at all.
func (f *Flow) DocumentPath() string {
	if f.Config.Document == "" {
		return ""
	}
	if filepath.IsAbs(f.Config.Document) {
		return f.Config.Document
	}
	return filepath.Join(filepath.Dir(f.SourcePath), f.Config.Document)
}
