package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateStamp(); err != nil {
		return err
	}
	if err := c.validateEncode(); err != nil {
		return err
	}
	if err := c.validateTranscode(); err != nil {
		return err
	}
	if err := c.validateTemplates(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.Threshold <= 0 || c.Matching.Threshold > 1 {
		return errors.New("matching.threshold must be in (0, 1]")
	}
	if c.Matching.WindowSize < 1 {
		return errors.New("matching.window_size must be at least 1")
	}
	switch c.Matching.Backend {
	case "native", "opencv":
	default:
		return fmt.Errorf("matching.backend: unsupported value %q (want native or opencv)", c.Matching.Backend)
	}
	return nil
}

func (c *Config) validateStamp() error {
	switch c.Stamp.Blur {
	case "box", "gaussian":
	default:
		return fmt.Errorf("stamp.blur: unsupported value %q (want box or gaussian)", c.Stamp.Blur)
	}
	if c.Stamp.Kernel < 0 {
		return errors.New("stamp.kernel must be >= 0")
	}
	if c.Stamp.Sigma < 0 {
		return errors.New("stamp.sigma must be >= 0")
	}
	return nil
}

func (c *Config) validateEncode() error {
	if c.Encode.CRF < 0 || c.Encode.CRF > 63 {
		return errors.New("encode.crf must be between 0 and 63")
	}
	return nil
}

func (c *Config) validateTranscode() error {
	if c.Transcode.Enabled && strings.TrimSpace(c.Transcode.OutputDir) == "" {
		return errors.New("transcode.output_dir must be set when transcode.enabled is true")
	}
	return nil
}

func (c *Config) validateTemplates() error {
	seen := make(map[string]struct{}, len(c.Templates))
	for i, tpl := range c.Templates {
		if strings.TrimSpace(tpl.Path) == "" {
			return fmt.Errorf("templates[%d].path must be set", i)
		}
		if tpl.Threshold < 0 || tpl.Threshold > 1 {
			return fmt.Errorf("templates[%d].threshold must be in (0, 1] (0 uses matching.threshold)", i)
		}
		if tpl.Name == "" {
			continue
		}
		if _, ok := seen[tpl.Name]; ok {
			return fmt.Errorf("templates[%d].name %q is not unique", i, tpl.Name)
		}
		seen[tpl.Name] = struct{}{}
	}
	return nil
}
