// Package sheet fills the change-request workbook from a session's items.
package sheet

import (
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
)

// Defaults for the built-in change-request form.
const (
	DefaultSheetName    = "Change Request"
	DefaultHeaderAnchor = "WRIN"
	DefaultHeaderRow    = 5
	DefaultScanRows     = 30
	DefaultClearRows    = 200
)

// Columns holds 1-based column numbers for each written field. Zero means
// the template has no such column.
type Columns struct {
	ID       int
	Name     int
	Change   int
	Actual   int
	Reason   int
	Adjusted int
}

func (c Columns) list() []int {
	var out []int
	for _, n := range []int{c.ID, c.Name, c.Change, c.Actual, c.Reason, c.Adjusted} {
		if n > 0 {
			out = append(out, n)
		}
	}
	return out
}

// FallbackColumns is the column layout of the built-in form. It is used
// whenever a template's header row cannot be matched.
var FallbackColumns = Columns{ID: 1, Name: 2, Change: 3, Actual: 4, Reason: 5, Adjusted: 6}

var headerTitles = []string{"WRIN", "Description", "Change Type", "Actual Stock", "Reason", "Adjusted Qty"}

// Template describes where the item table lives in a workbook.
type Template struct {
	Path         string // empty means the built-in form
	SheetName    string
	HeaderAnchor string
	HeaderRow    int // used when the anchor is not found
	ScanRows     int
	ClearRows    int
}

// DefaultTemplateConfig describes the built-in form.
func DefaultTemplateConfig() Template {
	return Template{
		SheetName:    DefaultSheetName,
		HeaderAnchor: DefaultHeaderAnchor,
		HeaderRow:    DefaultHeaderRow,
		ScanRows:     DefaultScanRows,
		ClearRows:    DefaultClearRows,
	}
}

func (t Template) withDefaults() Template {
	d := DefaultTemplateConfig()
	if t.SheetName == "" {
		t.SheetName = d.SheetName
	}
	if t.HeaderAnchor == "" {
		t.HeaderAnchor = d.HeaderAnchor
	}
	if t.HeaderRow <= 0 {
		t.HeaderRow = d.HeaderRow
	}
	if t.ScanRows <= 0 {
		t.ScanRows = d.ScanRows
	}
	if t.ClearRows <= 0 {
		t.ClearRows = d.ClearRows
	}
	return t
}

// open returns a fresh workbook for one fill.
func (t Template) open() (*excelize.File, error) {
	if t.Path == "" {
		return DefaultTemplate()
	}
	if _, err := os.Stat(t.Path); err != nil {
		return nil, fmt.Errorf("template %s: %w", t.Path, err)
	}
	f, err := excelize.OpenFile(t.Path)
	if err != nil {
		return nil, fmt.Errorf("open template %s: %w", t.Path, err)
	}
	return f, nil
}

// DefaultTemplate builds the change-request form in memory.
func DefaultTemplate() (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), DefaultSheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("name sheet: %w", err)
	}
	sh := DefaultSheetName

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("header style: %w", err)
	}
	title, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("title style: %w", err)
	}

	cells := map[string]string{
		"A1": "MB Change Request Form",
		"A2": "Store:",
		"A3": "Date:",
	}
	for cell, v := range cells {
		if err := f.SetCellStr(sh, cell, v); err != nil {
			f.Close()
			return nil, err
		}
	}
	if err := f.SetCellStyle(sh, "A1", "A1", title); err != nil {
		f.Close()
		return nil, err
	}

	for i, h := range headerTitles {
		cell, _ := excelize.CoordinatesToCellName(i+1, DefaultHeaderRow)
		if err := f.SetCellStr(sh, cell, h); err != nil {
			f.Close()
			return nil, err
		}
	}
	first, _ := excelize.CoordinatesToCellName(1, DefaultHeaderRow)
	last, _ := excelize.CoordinatesToCellName(len(headerTitles), DefaultHeaderRow)
	if err := f.SetCellStyle(sh, first, last, bold); err != nil {
		f.Close()
		return nil, err
	}

	widths := map[string]float64{"A": 12, "B": 36, "C": 14, "D": 14, "E": 32, "F": 14}
	for col, w := range widths {
		if err := f.SetColWidth(sh, col, col, w); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}
