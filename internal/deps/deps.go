package deps

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

var (
	// ErrNotConfigured is reported for a requirement with an empty command.
	ErrNotConfigured = errors.New("command not configured")
	// ErrMissing is reported when a command cannot be resolved on PATH.
	ErrMissing = errors.New("binary not found")
)

// versionTimeout bounds each "-version" probe.
const versionTimeout = 5 * time.Second

// Requirement is an external binary a run shells out to.
type Requirement struct {
	Name    string
	Command string
	Purpose string
	// VersionArgs, when set, are passed to the resolved binary and the
	// first line of its output is recorded as the version.
	VersionArgs []string
	Optional    bool
}

// Status is the outcome of resolving one Requirement.
type Status struct {
	Requirement
	Path    string
	Version string
	Err     error
}

// Available reports whether the binary was resolved.
func (s Status) Available() bool {
	return s.Err == nil
}

// Blocking reports whether the status should stop a run.
func (s Status) Blocking() bool {
	return s.Err != nil && !s.Optional
}

// Detail is a one-line description for tables and errors.
func (s Status) Detail() string {
	switch {
	case s.Err != nil && s.Purpose != "":
		return s.Err.Error() + ", needed for " + s.Purpose
	case s.Err != nil:
		return s.Err.Error()
	case s.Version != "":
		return s.Path + " (" + s.Version + ")"
	default:
		return s.Path
	}
}

// Resolve looks up every requirement on PATH and probes versions where
// asked. A binary that resolves but fails its version probe is still
// available; the probe only annotates.
func Resolve(ctx context.Context, requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		req.Command = strings.TrimSpace(req.Command)
		status := Status{Requirement: req}
		if req.Command == "" {
			status.Err = ErrNotConfigured
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(req.Command)
		if err != nil {
			status.Err = fmt.Errorf("%w: %q", ErrMissing, req.Command)
			results = append(results, status)
			continue
		}
		status.Path = path
		if len(req.VersionArgs) > 0 {
			status.Version = probeVersion(ctx, path, req.VersionArgs)
		}
		results = append(results, status)
	}
	return results
}

func probeVersion(ctx context.Context, path string, args []string) string {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, path, args...).Output()
	if err != nil {
		return ""
	}
	line, _, _ := bufio.NewReader(bytes.NewReader(out)).ReadLine()
	return strings.TrimSpace(string(line))
}
