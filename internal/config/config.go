package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Matching contains occurrence extraction and window scheduling settings.
type Matching struct {
	// Threshold is the default correlation score a template must reach.
	Threshold float64 `toml:"threshold"`
	// WindowSize is the read-ahead step in frames. 1 matches every frame.
	WindowSize int `toml:"window_size"`
	// Backend selects the correlation primitive ("native" or "opencv").
	Backend string `toml:"backend"`
}

// Stamp controls how the redaction stamp is derived from each template.
type Stamp struct {
	// Blur is "box" or "gaussian".
	Blur string `toml:"blur"`
	// Kernel is the box blur size in pixels. 0 derives half the template's
	// smaller side.
	Kernel int `toml:"kernel"`
	// Sigma is the gaussian blur sigma. 0 derives a third of the kernel.
	Sigma float64 `toml:"sigma"`
}

// Encode contains ffmpeg decode/encode settings.
type Encode struct {
	FFmpegBinary  string   `toml:"ffmpeg_binary"`
	FFprobeBinary string   `toml:"ffprobe_binary"`
	Codec         string   `toml:"codec"`
	Preset        string   `toml:"preset"`
	CRF           int      `toml:"crf"`
	PixelFormat   string   `toml:"pixel_format"`
	CopyAudio     bool     `toml:"copy_audio"`
	ExtraArgs     []string `toml:"extra_args"`
}

// Transcode configures the optional AV1 re-encode of a finished output.
type Transcode struct {
	Enabled   bool   `toml:"enabled"`
	OutputDir string `toml:"output_dir"`
}

// History configures the SQLite run ledger.
type History struct {
	Enabled bool `toml:"enabled"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Template declares a reference image loaded for every run.
type Template struct {
	Path      string  `toml:"path"`
	Name      string  `toml:"name"`
	Threshold float64 `toml:"threshold"`
}

// Config encapsulates all configuration values for veil.
//
// Configuration sections by subsystem:
//   - Paths: state (history database, locks) and log directories
//   - Matching: thresholds, read-ahead window size, correlation backend
//   - Stamp: blur applied to templates to build redaction stamps
//   - Encode: ffmpeg binaries and output codec parameters
//   - Transcode: optional drapto AV1 pass over the redacted output
//   - History: run ledger toggle
//   - Logging: log format and level
//   - Templates: reference images loaded for every run
type Config struct {
	Paths     Paths      `toml:"paths"`
	Matching  Matching   `toml:"matching"`
	Stamp     Stamp      `toml:"stamp"`
	Encode    Encode     `toml:"encode"`
	Transcode Transcode  `toml:"transcode"`
	History   History    `toml:"history"`
	Logging   Logging    `toml:"logging"`
	Templates []Template `toml:"templates"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/veil/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("veil.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Transcode.Enabled && strings.TrimSpace(c.Transcode.OutputDir) != "" {
		if err := os.MkdirAll(c.Transcode.OutputDir, 0o755); err != nil {
			return fmt.Errorf("create transcode directory %q: %w", c.Transcode.OutputDir, err)
		}
	}
	return nil
}

// HistoryPath returns the location of the run ledger database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LockDir returns the directory holding per-output run locks.
func (c *Config) LockDir() string {
	return filepath.Join(c.Paths.StateDir, "locks")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
