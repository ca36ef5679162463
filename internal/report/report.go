// Package report lays out a summary the way describe() tables read: one
// column per variable, one row per statistic.
package report

import (
	"io"
	"math"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"f1insights/internal/models"
)

// Precision is the number of decimals statistics are rounded to for display.
const Precision = 6

// Stat formats one statistic, NaN for undefined and non-finite values.
func Stat(v *float64) string {
	if v == nil || math.IsInf(*v, 0) || math.IsNaN(*v) {
		return "NaN"
	}
	return decimal.NewFromFloat(*v).Round(Precision).String()
}

// Grid returns the header and rows of the summary table.
func Grid(s models.Summary) (header []string, rows [][]string) {
	header = make([]string, 0, len(s.Columns)+1)
	header = append(header, "")
	for _, c := range s.Columns {
		header = append(header, c.Column)
	}

	stats := []struct {
		name string
		get  func(models.ColumnStats) string
	}{
		{"count", func(c models.ColumnStats) string { return strconv.Itoa(c.Count) }},
		{"mean", func(c models.ColumnStats) string { return Stat(c.Mean) }},
		{"std", func(c models.ColumnStats) string { return Stat(c.Std) }},
		{"min", func(c models.ColumnStats) string { return Stat(c.Min) }},
		{"25%", func(c models.ColumnStats) string { return Stat(c.P25) }},
		{"50%", func(c models.ColumnStats) string { return Stat(c.P50) }},
		{"75%", func(c models.ColumnStats) string { return Stat(c.P75) }},
		{"max", func(c models.ColumnStats) string { return Stat(c.Max) }},
	}
	for _, st := range stats {
		row := make([]string, 0, len(header))
		row = append(row, st.name)
		for _, c := range s.Columns {
			row = append(row, st.get(c))
		}
		rows = append(rows, row)
	}
	return header, rows
}

// WriteSummary renders the summary as a text table.
func WriteSummary(w io.Writer, s models.Summary) {
	header, rows := Grid(s)

	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetHeader(header)
	table.AppendBulk(rows)
	table.Render()
}
