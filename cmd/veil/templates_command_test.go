package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTemplatesListAndExport(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := filepath.Join(env.baseDir, "templates")
	writeTemplate(t, dir, "corner_logo", 1)
	writeTemplate(t, dir, "ticker", 2)
	exportDir := filepath.Join(env.baseDir, "stamps")

	out, _, err := runCLI(t, []string{"templates", "list", dir + "@0.9", "--export-stamps", exportDir}, env.configPath)
	if err != nil {
		t.Fatalf("templates list: %v", err)
	}
	requireContains(t, out, "corner_logo")
	requireContains(t, out, "Corner Logo")
	requireContains(t, out, "12x8")
	requireContains(t, out, "0.9")

	for _, name := range []string{"corner_logo-stamp.png", "ticker-stamp.png"} {
		if _, err := os.Stat(filepath.Join(exportDir, name)); err != nil {
			t.Fatalf("expected exported stamp %s: %v", name, err)
		}
	}
}

func TestTemplatesListRequiresTemplates(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"templates", "list"}, env.configPath); err == nil {
		t.Fatal("expected error when no templates are given")
	}
}
