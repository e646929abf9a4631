package config

import (
	"os"
	"path/filepath"
	"sync"
)

// envHome overrides where domquery keeps its logs and reports.
const envHome = "DOMQUERY_HOME"

var (
	homeOnce sync.Once
	homeDir  string
)

// GetHome returns the directory domquery writes logs and reports under.
// It is resolved once per process, in this order:
//
//	$DOMQUERY_HOME
//	<home> when the running binary is <home>/bin/domquery
//	the working directory
func GetHome() string {
	homeOnce.Do(func() {
		homeDir = resolveHome()
	})
	return homeDir
}

// GetLogsDir is where the CLI writes domquery.log unless --log-file is set.
func GetLogsDir() string {
	return filepath.Join(GetHome(), "logs")
}

// GetReportsDir holds one timestamped directory per test run.
func GetReportsDir() string {
	return filepath.Join(GetHome(), "reports")
}

func resolveHome() string {
	if dir := os.Getenv(envHome); dir != "" {
		return dir
	}
	if exe, err := os.Executable(); err == nil {
		if root, ok := installRoot(exe); ok {
			return root
		}
	}
	if cwd, err := os.Getwd(); err == nil {
		return cwd
	}
	return "."
}

// installRoot returns the parent of the bin directory holding exe, after
// following symlinks, so a linked binary reports where it is installed.
func installRoot(exe string) (string, bool) {
	if target, err := filepath.EvalSymlinks(exe); err == nil {
		exe = target
	}
	bin := filepath.Dir(exe)
	if filepath.Base(bin) != "bin" {
		return "", false
	}
	return filepath.Dir(bin), true
}

// ResetHome forgets the resolved home so tests can change $DOMQUERY_HOME.
func ResetHome() {
	homeOnce = sync.Once{}
	homeDir = ""
}
