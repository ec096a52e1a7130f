package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"veil/internal/overlay"
)

func newTemplatesCommand(ctx *commandContext) *cobra.Command {
	templatesCmd := &cobra.Command{
		Use:   "templates",
		Short: "Inspect template images",
	}
	templatesCmd.AddCommand(newTemplatesListCommand(ctx))
	return templatesCmd
}

func newTemplatesListCommand(ctx *commandContext) *cobra.Command {
	var threshold float64
	var exportDir string

	cmd := &cobra.Command{
		Use:   "list [TEMPLATE...]",
		Short: "Load templates and show how they will be matched",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			templates, err := loadTemplates(cfg, args, threshold)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, templatesTable(templates))

			if exportDir == "" {
				return nil
			}
			if err := os.MkdirAll(exportDir, 0o755); err != nil {
				return fmt.Errorf("create export directory: %w", err)
			}
			for _, tpl := range templates {
				target := filepath.Join(exportDir, stampFileName(tpl.Name))
				if err := imaging.Save(tpl.Stamp, target); err != nil {
					return fmt.Errorf("export stamp %s: %w", tpl.Name, err)
				}
				fmt.Fprintf(out, "Wrote %s\n", target)
			}
			return nil
		},
	}

	cmd.Flags().Float64VarP(&threshold, "threshold", "t", 0, "Default match threshold in (0, 1]")
	cmd.Flags().StringVar(&exportDir, "export-stamps", "", "Write each template's redaction stamp as PNG into this directory")
	return cmd
}

func stampFileName(name string) string {
	name = strings.NewReplacer("/", "-", "\\", "-", ":", "-").Replace(strings.TrimSpace(name))
	if name == "" || name == "." || name == ".." {
		name = "template"
	}
	return name + "-stamp.png"
}

func templatesTable(templates []*overlay.Template) string {
	t := newReport(label("Name"), label("Label"), count("Size"), count("Threshold"),
		count("Stamp Kernel"), count("Cluster Distance"))
	for _, tpl := range templates {
		t.add(tpl.Name, overlay.DisplayName(tpl.Name), fmt.Sprintf("%dx%d", tpl.Width(), tpl.Height()),
			tpl.Threshold, tpl.Kernel, tpl.MaxDistance())
	}
	return t.String()
}
