// Package report writes the results of a run to disk: report.json holds the
// full suite result, report.html renders it for people.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/devicelab-dev/domquery/pkg/core"
)

// FileName is the name of the JSON report inside the output directory.
const FileName = "report.json"

// Write stores suite as report.json in outputDir and returns its path.
// The file is replaced atomically so readers never see a partial report.
func Write(outputDir string, suite *core.SuiteResult) (string, error) {
	if err := ensureDir(outputDir); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(outputDir, FileName)
	if err := atomicWriteJSON(path, suite); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// Read loads report.json from reportDir.
func Read(reportDir string) (*core.SuiteResult, error) {
	data, err := os.ReadFile(filepath.Join(reportDir, FileName))
	if err != nil {
		return nil, err
	}
	var suite core.SuiteResult
	if err := json.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("parse %s: %w", FileName, err)
	}
	return &suite, nil
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// atomicWriteJSON writes v to a temp file next to path, then renames it.
func atomicWriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return atomicWrite(path, data)
}

func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
