package preflight

import (
	"context"
	"path/filepath"

	"veil/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// outputPath, when set, adds access and free-space checks for its directory.
func RunAll(ctx context.Context, cfg *config.Config, outputPath string) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	for _, status := range CheckSystemDeps(ctx, cfg) {
		results = append(results, Result{
			Name:   status.Name,
			Passed: !status.Blocking(),
			Detail: status.Detail(),
		})
	}

	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	if outputPath != "" {
		dir := filepath.Dir(outputPath)
		access := CheckDirectoryAccess("Output directory", dir)
		results = append(results, access)
		if access.Passed {
			results = append(results, CheckFreeSpace("Output free space", dir, MinFreeBytes))
		}
	}

	if cfg.Transcode.Enabled && cfg.Transcode.OutputDir != "" {
		access := CheckDirectoryAccess("Transcode directory", cfg.Transcode.OutputDir)
		results = append(results, access)
		if access.Passed {
			results = append(results, CheckFreeSpace("Transcode free space", cfg.Transcode.OutputDir, MinFreeBytes))
		}
	}

	return results
}
