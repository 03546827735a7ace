package sheet

import (
	"bytes"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/codeOCE/MBSync/internal/inventory"
)

func discardLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testBatch(t *testing.T) *inventory.Batch {
	t.Helper()
	b := inventory.NewBatch([]inventory.Item{
		inventory.NewItem("14836000", "Sour Cream Sauce", decimal.NewFromInt(5), decimal.RequireFromString("0.94"), decimal.NewFromInt(3), inventory.CategoryRefrigerated),
		inventory.NewItem("00123", "Hash Brown", decimal.NewFromInt(4), decimal.NewFromInt(12), decimal.NewFromInt(1), inventory.CategoryFrozen),
		inventory.NewItem("20001", "Widget X", decimal.NewFromInt(10), decimal.Zero, decimal.Zero, inventory.CategoryDry),
	})
	actual := decimal.NewFromInt(3)
	reason := "miscount"
	if _, err := b.Update(inventory.Update{ID: "14836000", Status: inventory.StatusIncrease, ActualStock: &actual, Reason: &reason}); err != nil {
		t.Fatalf("update: %v", err)
	}
	return b
}

func fill(t *testing.T, w *Writer, rows []inventory.Item) *excelize.File {
	t.Helper()
	var buf bytes.Buffer
	if err := w.Fill(rows, &buf); err != nil {
		t.Fatalf("fill: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func cell(t *testing.T, f *excelize.File, sheet, axis string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, axis)
	if err != nil {
		t.Fatalf("read %s: %v", axis, err)
	}
	return v
}

func TestFill_DefaultTemplateFullMode(t *testing.T) {
	w := NewWriter(Template{}, discardLog())
	f := fill(t, w, Rows(testBatch(t), ModeFull))

	sh := DefaultSheetName
	want := map[string]string{
		"A6": "14836000", "B6": "Sour Cream Sauce", "C6": "Increase", "D6": "3", "E6": "miscount", "F6": "2.94",
		"A7": "00123", "C7": "Accept", "D7": "", "F7": "4",
		"A8": "20001", "C8": "Accept",
		"A9": "",
	}
	for axis, v := range want {
		if got := cell(t, f, sh, axis); got != v {
			t.Errorf("%s: expected %q, got %q", axis, v, got)
		}
	}
	if got := cell(t, f, sh, "A5"); got != "WRIN" {
		t.Errorf("expected header kept, got %q", got)
	}
}

func TestFill_ChangesMode(t *testing.T) {
	w := NewWriter(Template{}, discardLog())
	f := fill(t, w, Rows(testBatch(t), ModeChanges))

	if got := cell(t, f, DefaultSheetName, "A6"); got != "14836000" {
		t.Errorf("expected changed item first, got %q", got)
	}
	if got := cell(t, f, DefaultSheetName, "A7"); got != "" {
		t.Errorf("expected only changed items, got %q in A7", got)
	}
}

func writeTemplate(t *testing.T, build func(f *excelize.File)) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	build(f)
	path := filepath.Join(t.TempDir(), "form.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save template: %v", err)
	}
	return path
}

func TestFill_CustomTemplateMapsColumnsByKeyword(t *testing.T) {
	path := writeTemplate(t, func(f *excelize.File) {
		_ = f.SetSheetName("Sheet1", "Form")
		headers := map[string]string{"B3": "Reason", "C3": "wrin", "D3": "Item Description", "E3": "Change", "F3": "Actual"}
		for axis, v := range headers {
			_ = f.SetCellStr("Form", axis, v)
		}
		_ = f.SetCellStr("Form", "C4", "stale")
		_ = f.SetCellStr("Form", "C9", "stale")
	})

	w := NewWriter(Template{Path: path, SheetName: "Form", ClearRows: 10}, discardLog())
	f := fill(t, w, Rows(testBatch(t), ModeChanges))

	want := map[string]string{"C4": "14836000", "D4": "Sour Cream Sauce", "E4": "Increase", "F4": "3", "B4": "miscount", "C9": ""}
	for axis, v := range want {
		if got := cell(t, f, "Form", axis); got != v {
			t.Errorf("%s: expected %q, got %q", axis, v, got)
		}
	}
}

func TestFill_MissingSheetFallsBackToFirst(t *testing.T) {
	path := writeTemplate(t, func(f *excelize.File) {
		_ = f.SetCellStr("Sheet1", "A1", "WRIN")
		_ = f.SetCellStr("Sheet1", "B1", "Description")
		_ = f.SetCellStr("Sheet1", "C1", "Change Type")
	})

	w := NewWriter(Template{Path: path, SheetName: "Nope"}, discardLog())
	f := fill(t, w, Rows(testBatch(t), ModeChanges))
	if got := cell(t, f, "Sheet1", "A2"); got != "14836000" {
		t.Errorf("expected row on first sheet, got %q", got)
	}
}

func TestFill_HeaderNotFoundUsesFallbackLayout(t *testing.T) {
	path := writeTemplate(t, func(f *excelize.File) {
		_ = f.SetCellStr("Sheet1", "A1", "Something else")
	})

	w := NewWriter(Template{Path: path, SheetName: "Sheet1", HeaderRow: 2}, discardLog())
	f := fill(t, w, Rows(testBatch(t), ModeChanges))
	if got := cell(t, f, "Sheet1", "A3"); got != "14836000" {
		t.Errorf("expected fallback row 3, got %q", got)
	}
	if got := cell(t, f, "Sheet1", "C3"); got != "Increase" {
		t.Errorf("expected fallback change column, got %q", got)
	}
}

func TestFill_MissingTemplateFile(t *testing.T) {
	w := NewWriter(Template{Path: filepath.Join(t.TempDir(), "missing.xlsx")}, discardLog())
	if err := w.Fill(nil, io.Discard); err == nil {
		t.Fatal("expected error for missing template")
	}
}

func TestMapColumns(t *testing.T) {
	cols, ok := mapColumns([]string{"WRIN", "Description", "Change Type", "Actual Stock", "Reason", "Adjusted Qty"})
	if !ok || cols != FallbackColumns {
		t.Errorf("expected default layout, got %+v ok=%v", cols, ok)
	}
	if _, ok := mapColumns([]string{"WRIN", "Qty"}); ok {
		t.Error("expected incomplete header to be rejected")
	}
}

func TestMapColumns_ReasonForChange(t *testing.T) {
	tests := []struct {
		header []string
		want   Columns
	}{
		{
			header: []string{"WRIN", "Description", "Reason for change", "Change Type", "Actual Stock", "Adjusted Qty"},
			want:   Columns{ID: 1, Name: 2, Reason: 3, Change: 4, Actual: 5, Adjusted: 6},
		},
		{
			header: []string{"Item Code", "Product Name", "Qty Change", "Reason for change"},
			want:   Columns{ID: 1, Name: 2, Change: 3, Reason: 4},
		},
	}
	for _, tt := range tests {
		cols, ok := mapColumns(tt.header)
		if !ok || cols != tt.want {
			t.Errorf("mapColumns(%q): expected %+v, got %+v ok=%v", tt.header, tt.want, cols, ok)
		}
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeFull, "FULL": ModeFull, " changes ": ModeChanges} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q): expected %q, got %q (%v)", in, want, got, err)
		}
	}
	if _, err := ParseMode("narrow"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
