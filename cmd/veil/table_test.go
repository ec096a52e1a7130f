package main

import (
	"strings"
	"testing"

	"veil/internal/pipeline"
)

func TestReportPadsRowsAndKeepsTitles(t *testing.T) {
	r := newReport(label("Template"), count("Extracts"), count("Skipped"))
	r.add("logo", 12)
	r.add("ticker", 3, 9, "ignored")

	out := r.String()
	requireContains(t, out, "Template")
	requireContains(t, out, "Extracts")
	if strings.Contains(out, "ignored") {
		t.Fatalf("extra values should be dropped:\n%s", out)
	}
	lines := strings.Split(out, "\n")
	var logoLine string
	for _, line := range lines {
		if strings.Contains(line, "logo") {
			logoLine = line
		}
	}
	if logoLine == "" || !strings.Contains(logoLine, "12 │") {
		t.Fatalf("expected right-aligned count on logo row, got %q", logoLine)
	}
}

func TestReportWithoutColumns(t *testing.T) {
	if got := newReport().String(); got != "" {
		t.Fatalf("expected empty render, got %q", got)
	}
}

func TestTemplateStatsTableTotals(t *testing.T) {
	single := templateStatsTable([]pipeline.TemplateStats{{Name: "logo", ExtractCalls: 4}})
	if strings.Contains(single, "Total") {
		t.Fatalf("single template should not carry a totals row:\n%s", single)
	}

	out := templateStatsTable([]pipeline.TemplateStats{
		{Name: "logo", Occurrences: 5, ExtractCalls: 4, ReusedFrames: 2, SkippedFrames: 1},
		{Name: "ticker", Occurrences: 1, ExtractCalls: 6, ReusedFrames: 0, SkippedFrames: 3},
	})
	requireContains(t, out, "Total")
	requireContains(t, out, "10")
}
