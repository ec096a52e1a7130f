package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"veil/internal/config"
	"veil/internal/logging"
	"veil/internal/overlay"
)

type commandContext struct {
	configFlag *string
	logLevel   *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevel *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		logLevel:   logLevel,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevel != nil && strings.TrimSpace(*c.logLevel) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevel))
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) logger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func stampOptions(cfg *config.Config) overlay.StampOptions {
	return overlay.StampOptions{
		Blur:   cfg.Stamp.Blur,
		Kernel: cfg.Stamp.Kernel,
		Sigma:  cfg.Stamp.Sigma,
	}
}

// templateRefs merges [[templates]] config entries with command-line
// arguments. Config entries come first so their names win on clashes.
func templateRefs(cfg *config.Config, args []string) ([]overlay.Ref, error) {
	refs := make([]overlay.Ref, 0, len(cfg.Templates)+len(args))
	for _, tpl := range cfg.Templates {
		refs = append(refs, overlay.Ref{Path: tpl.Path, Name: tpl.Name, Threshold: tpl.Threshold})
	}
	for _, arg := range args {
		ref, err := overlay.ParseRef(arg)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func loadTemplates(cfg *config.Config, args []string, threshold float64) ([]*overlay.Template, error) {
	refs, err := templateRefs(cfg, args)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, overlay.ErrNoTemplates
	}
	if threshold <= 0 {
		threshold = cfg.Matching.Threshold
	}
	return overlay.Resolve(refs, threshold, stampOptions(cfg))
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
