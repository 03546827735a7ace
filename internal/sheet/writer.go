package sheet

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/codeOCE/MBSync/internal/inventory"
)

// Mode selects which items are written.
type Mode string

const (
	ModeFull    Mode = "full"    // every item, neutral shown as accept
	ModeChanges Mode = "changes" // increase and decrease only
)

// ParseMode accepts "full", "changes" or empty (full).
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeFull:
		return ModeFull, nil
	case ModeChanges:
		return ModeChanges, nil
	}
	return "", fmt.Errorf("unknown export mode %q", s)
}

// Rows returns the items a mode exports, in item order.
func Rows(b *inventory.Batch, mode Mode) []inventory.Item {
	if mode == ModeChanges {
		return b.Changed()
	}
	return b.ExportView()
}

// Writer fills a template with item rows.
type Writer struct {
	tmpl Template
	log  *slog.Logger
}

func NewWriter(tmpl Template, log *slog.Logger) *Writer {
	return &Writer{tmpl: tmpl.withDefaults(), log: log}
}

// Fill writes rows into a fresh copy of the template and encodes the
// workbook to out.
func (w *Writer) Fill(rows []inventory.Item, out io.Writer) error {
	f, err := w.tmpl.open()
	if err != nil {
		return err
	}
	defer f.Close()

	sh := w.resolveSheet(f)
	headerRow, cols := w.locateTable(f, sh)

	firstRow := headerRow + 1
	if err := clearWindow(f, sh, cols, firstRow, w.tmpl.ClearRows); err != nil {
		return err
	}
	if len(rows) > w.tmpl.ClearRows {
		w.log.Warn("item count exceeds template row window", "items", len(rows), "window", w.tmpl.ClearRows)
	}

	for i, it := range rows {
		if err := writeRow(f, sh, cols, firstRow+i, it); err != nil {
			return fmt.Errorf("write row for %s: %w", it.ID, err)
		}
	}

	if err := f.Write(out); err != nil {
		return fmt.Errorf("encode workbook: %w", err)
	}
	return nil
}

func (w *Writer) resolveSheet(f *excelize.File) string {
	if idx, err := f.GetSheetIndex(w.tmpl.SheetName); err == nil && idx >= 0 {
		return w.tmpl.SheetName
	}
	first := f.GetSheetName(0)
	w.log.Warn("template sheet not found, using first sheet", "want", w.tmpl.SheetName, "using", first)
	return first
}

// locateTable finds the header anchor within the scan window and maps
// columns from that row's titles. Either step falls back to the built-in
// layout when it fails.
func (w *Writer) locateTable(f *excelize.File, sh string) (int, Columns) {
	rows, err := f.GetRows(sh)
	if err != nil {
		w.log.Warn("read template rows failed, using fallback layout", "sheet", sh, "error", err)
		return w.tmpl.HeaderRow, FallbackColumns
	}

	for r := 0; r < len(rows) && r < w.tmpl.ScanRows; r++ {
		for _, cell := range rows[r] {
			if !strings.EqualFold(strings.TrimSpace(cell), w.tmpl.HeaderAnchor) {
				continue
			}
			cols, ok := mapColumns(rows[r])
			if !ok {
				w.log.Warn("header columns not recognized, using fallback layout", "sheet", sh, "row", r+1)
				return r + 1, FallbackColumns
			}
			return r + 1, cols
		}
	}

	w.log.Warn("header anchor not found, using fallback layout",
		"sheet", sh, "anchor", w.tmpl.HeaderAnchor, "row", w.tmpl.HeaderRow)
	return w.tmpl.HeaderRow, FallbackColumns
}

// columnKeywords are matched against lowercased header titles. A title
// that starts with a keyword is claimed before one that merely contains it,
// so "Reason for change" maps to the reason column and not the change one.
var columnKeywords = []struct {
	keywords []string
	set      func(*Columns, int)
}{
	{[]string{"wrin", "item code", "code"}, func(c *Columns, n int) { c.ID = n }},
	{[]string{"description", "name"}, func(c *Columns, n int) { c.Name = n }},
	{[]string{"change"}, func(c *Columns, n int) { c.Change = n }},
	{[]string{"adjusted"}, func(c *Columns, n int) { c.Adjusted = n }},
	{[]string{"actual"}, func(c *Columns, n int) { c.Actual = n }},
	{[]string{"reason", "comment"}, func(c *Columns, n int) { c.Reason = n }},
}

func mapColumns(header []string) (Columns, bool) {
	titles := make([]string, len(header))
	for i, title := range header {
		titles[i] = strings.ToLower(strings.TrimSpace(title))
	}

	var cols Columns
	used := make(map[int]bool)
	mapped := make([]bool, len(columnKeywords))
	for _, match := range []func(title, kw string) bool{strings.HasPrefix, strings.Contains} {
		for f, field := range columnKeywords {
			if mapped[f] {
				continue
			}
			if i := findTitle(titles, used, field.keywords, match); i >= 0 {
				field.set(&cols, i+1)
				used[i] = true
				mapped[f] = true
			}
		}
	}
	return cols, cols.ID > 0 && cols.Name > 0 && cols.Change > 0
}

func findTitle(titles []string, used map[int]bool, keywords []string, match func(title, kw string) bool) int {
	for i, t := range titles {
		if t == "" || used[i] {
			continue
		}
		for _, kw := range keywords {
			if match(t, kw) {
				return i
			}
		}
	}
	return -1
}

func clearWindow(f *excelize.File, sh string, cols Columns, firstRow, n int) error {
	for r := firstRow; r < firstRow+n; r++ {
		for _, c := range cols.list() {
			cell, err := excelize.CoordinatesToCellName(c, r)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sh, cell, nil); err != nil {
				return fmt.Errorf("clear %s: %w", cell, err)
			}
		}
	}
	return nil
}

func writeRow(f *excelize.File, sh string, cols Columns, row int, it inventory.Item) error {
	set := func(col int, v any) error {
		if col <= 0 {
			return nil
		}
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		switch v := v.(type) {
		case string:
			return f.SetCellStr(sh, cell, v)
		case float64:
			return f.SetCellFloat(sh, cell, v, -1, 64)
		}
		return f.SetCellValue(sh, cell, v)
	}

	if err := set(cols.ID, string(it.ID)); err != nil {
		return err
	}
	if err := set(cols.Name, it.Name); err != nil {
		return err
	}
	if err := set(cols.Change, it.Status.Label()); err != nil {
		return err
	}
	if it.ActualStock != nil {
		if err := set(cols.Actual, it.ActualStock.InexactFloat64()); err != nil {
			return err
		}
	}
	if err := set(cols.Reason, it.Reason); err != nil {
		return err
	}
	return set(cols.Adjusted, it.AdjustedQty.InexactFloat64())
}
