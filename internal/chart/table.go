package chart

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/usagechart/internal/analytics"
	"github.com/verte-zerg/usagechart/internal/model"
)

// TableHeaders are the column titles of the records table.
var TableHeaders = []string{"Date", "Country", "App", "Platform", "Ad Network", "Daily Users"}

// TableRow formats a plot point as table cells. Missing fields stay blank.
func TableRow(p model.PlotPoint) []string {
	return []string{p.X, p.Country, p.App, p.Platform, p.AdNetwork, p.Y.String()}
}

// RenderTable prints one page of the table and the pager line.
func RenderTable(w io.Writer, page analytics.Page) error {
	rows := make([][]string, 0, len(page.Rows))
	for _, p := range page.Rows {
		rows = append(rows, TableRow(p))
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No rows.")
		return err
	}
	lines := formatTable(TableHeaders, rows, map[int]bool{5: true})
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if !page.ShowPager {
		return nil
	}
	_, err := fmt.Fprintln(w, PagerLine(page))
	return err
}

// PagerLine renders the Previous/Next controls. Disabled buttons are
// wrapped in parentheses.
func PagerLine(page analytics.Page) string {
	prev := "[Previous]"
	if !page.HasPrev {
		prev = "(Previous)"
	}
	next := "[Next]"
	if !page.HasNext {
		next = "(Next)"
	}
	return fmt.Sprintf("%s  %d/%d  %s", prev, page.Index+1, page.Count, next)
}

func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = runewidth.StringWidth(header)
	}
	for _, row := range rows {
		for i := 0; i < colCount && i < len(row); i++ {
			if w := runewidth.StringWidth(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlignCols))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	var b strings.Builder
	for i := 0; i < len(widths); i++ {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(padCell(cell, widths[i], rightAlignCols[i]))
	}
	return strings.TrimRight(b.String(), " ")
}

func padCell(value string, width int, rightAlign bool) string {
	if rightAlign {
		return runewidth.FillLeft(value, width)
	}
	return runewidth.FillRight(value, width)
}
