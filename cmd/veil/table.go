package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column is one report column. Counts are right aligned.
type column struct {
	title string
	count bool
}

func label(title string) column { return column{title: title} }
func count(title string) column { return column{title: title, count: true} }

// report collects rows for a rounded go-pretty table with an optional
// totals footer.
type report struct {
	columns []column
	rows    []table.Row
	footer  table.Row
}

func newReport(columns ...column) *report {
	return &report{columns: columns}
}

// add appends a row, padding or truncating it to the column count.
func (r *report) add(values ...any) {
	r.rows = append(r.rows, r.fit(values))
}

// totals sets the footer row.
func (r *report) totals(values ...any) {
	r.footer = r.fit(values)
}

func (r *report) fit(values []any) table.Row {
	row := make(table.Row, len(r.columns))
	for i := range row {
		if i < len(values) {
			row[i] = values[i]
		} else {
			row[i] = ""
		}
	}
	return row
}

func (r *report) String() string {
	if len(r.columns) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Format.Footer = text.FormatDefault

	header := make(table.Row, len(r.columns))
	configs := make([]table.ColumnConfig, len(r.columns))
	for i, col := range r.columns {
		header[i] = col.title
		align := text.AlignLeft
		if col.count {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{Number: i + 1, Align: align, AlignFooter: align, AlignHeader: text.AlignLeft}
	}
	tw.AppendHeader(header)
	tw.AppendRows(r.rows)
	if r.footer != nil {
		tw.AppendFooter(r.footer)
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}
