package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeMatching()
	c.normalizeStamp()
	c.normalizeEncode()
	if err := c.normalizeTranscode(); err != nil {
		return err
	}
	if err := c.normalizeTemplates(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeMatching() {
	c.Matching.Backend = strings.ToLower(strings.TrimSpace(c.Matching.Backend))
	if c.Matching.Backend == "" {
		c.Matching.Backend = defaultBackend
	}
	if c.Matching.Threshold == 0 {
		c.Matching.Threshold = defaultThreshold
	}
}

func (c *Config) normalizeStamp() {
	c.Stamp.Blur = strings.ToLower(strings.TrimSpace(c.Stamp.Blur))
	if c.Stamp.Blur == "" {
		c.Stamp.Blur = defaultStampBlur
	}
}

func (c *Config) normalizeEncode() {
	if value, ok := os.LookupEnv("VEIL_FFMPEG"); ok && strings.TrimSpace(value) != "" {
		c.Encode.FFmpegBinary = value
	}
	if value, ok := os.LookupEnv("VEIL_FFPROBE"); ok && strings.TrimSpace(value) != "" {
		c.Encode.FFprobeBinary = value
	}
	c.Encode.FFmpegBinary = strings.TrimSpace(c.Encode.FFmpegBinary)
	if c.Encode.FFmpegBinary == "" {
		c.Encode.FFmpegBinary = defaultFFmpegBinary
	}
	c.Encode.FFprobeBinary = strings.TrimSpace(c.Encode.FFprobeBinary)
	if c.Encode.FFprobeBinary == "" {
		c.Encode.FFprobeBinary = defaultFFprobeBinary
	}
	c.Encode.Codec = strings.TrimSpace(c.Encode.Codec)
	if c.Encode.Codec == "" {
		c.Encode.Codec = defaultCodec
	}
	c.Encode.Preset = strings.TrimSpace(c.Encode.Preset)
	c.Encode.PixelFormat = strings.TrimSpace(c.Encode.PixelFormat)
	if c.Encode.PixelFormat == "" {
		c.Encode.PixelFormat = defaultPixelFormat
	}
	args := c.Encode.ExtraArgs[:0]
	for _, arg := range c.Encode.ExtraArgs {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			args = append(args, trimmed)
		}
	}
	c.Encode.ExtraArgs = args
}

func (c *Config) normalizeTranscode() error {
	if strings.TrimSpace(c.Transcode.OutputDir) == "" {
		return nil
	}
	var err error
	if c.Transcode.OutputDir, err = expandPath(c.Transcode.OutputDir); err != nil {
		return fmt.Errorf("transcode.output_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTemplates() error {
	for i := range c.Templates {
		tpl := &c.Templates[i]
		tpl.Name = strings.TrimSpace(tpl.Name)
		if strings.TrimSpace(tpl.Path) == "" {
			continue
		}
		expanded, err := expandPath(strings.TrimSpace(tpl.Path))
		if err != nil {
			return fmt.Errorf("templates[%d].path: %w", i, err)
		}
		tpl.Path = expanded
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
