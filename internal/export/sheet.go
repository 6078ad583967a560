package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/verte-zerg/usagechart/internal/analytics"
	"github.com/verte-zerg/usagechart/internal/chart"
)

const (
	defaultSheet = "Sheet1"
	filterSheet  = "Filters"
	maxSheetName = 31
)

// BuildWorkbook writes the whole selected series (not just one page) to a
// sheet named after the category, plus a sheet with the active filters.
func BuildWorkbook(view analytics.View) (*excelize.File, error) {
	f := excelize.NewFile()
	name := sheetName(view.Series.ID)
	if err := f.SetSheetName(defaultSheet, name); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9D9D9"}, Pattern: 1},
	})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	header := make([]interface{}, len(chart.TableHeaders))
	for i, h := range chart.TableHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		_ = f.Close()
		return nil, err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(chart.TableHeaders))
	if err := f.SetCellStyle(name, "A1", lastCol+"1", headerStyle); err != nil {
		_ = f.Close()
		return nil, err
	}

	for i, pt := range view.Series.Points {
		var users interface{}
		if pt.Y.Valid {
			users = pt.Y.Value
		}
		row := []interface{}{pt.X, pt.Country, pt.App, pt.Platform, pt.AdNetwork, users}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	if err := f.SetColWidth(name, "A", lastCol, 14); err != nil {
		_ = f.Close()
		return nil, err
	}

	if _, err := f.NewSheet(filterSheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	filters := [][]interface{}{
		{"Category", view.Series.ID},
		{"Start", view.Range.Start},
		{"End", view.Range.End},
		{"Target", view.Chart.Target.Value},
		{"Target color", view.Chart.Target.Color},
		{"Rows", len(view.Series.Points)},
	}
	for i, row := range filters {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(filterSheet, cell, &row); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return f, nil
}

// SaveWorkbook writes the view's workbook to path.
func SaveWorkbook(path string, view analytics.View) error {
	f, err := BuildWorkbook(view)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// WriteWorkbook streams the view's workbook to w.
func WriteWorkbook(w io.Writer, view analytics.View) error {
	f, err := BuildWorkbook(view)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func sheetName(id string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.Trim(id, "'"))
	if strings.TrimSpace(name) == "" {
		return "Series"
	}
	runes := []rune(name)
	if len(runes) > maxSheetName {
		name = string(runes[:maxSheetName])
	}
	if strings.EqualFold(name, filterSheet) {
		name = "Series " + name
	}
	return name
}
