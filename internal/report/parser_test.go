package report

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/codeOCE/MBSync/internal/inventory"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{[]string{"SOUR", "CREAM", "SAUCE"}, "Sour Cream Sauce"},
		{[]string{"  BIG  ", "MAC\tBUN"}, "Big Mac Bun"},
		{[]string{"o'BRIEN", "fries"}, "O'Brien Fries"},
		{[]string{"CUP", "12", "OZ"}, "Cup 12 Oz"},
		{[]string{"2.5KG", "bag"}, "2.5kg Bag"},
		{[]string{"ketchup-packets"}, "Ketchup-Packets"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.want {
			t.Errorf("NormalizeName(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestSchemaMap_PositionalMapping(t *testing.T) {
	f, stray := DefaultSchema().Map([]string{"5", "2", "0.94", "3"})
	if len(stray) != 0 {
		t.Errorf("expected no stray tokens, got %q", stray)
	}
	if !f.ProposedQty.Equal(d("5")) || !f.Stock.Equal(d("0.94")) || !f.Transit.Equal(d("3")) {
		t.Errorf("unexpected fields: proposed=%s stock=%s transit=%s", f.ProposedQty, f.Stock, f.Transit)
	}
}

func TestSchemaMap_MissingColumnsDefaultToZero(t *testing.T) {
	f, _ := DefaultSchema().Map([]string{"8"})
	if !f.ProposedQty.Equal(d("8")) || !f.Stock.IsZero() || !f.Transit.IsZero() {
		t.Errorf("unexpected fields: %+v", f)
	}
	f, _ = DefaultSchema().Map(nil)
	if !f.ProposedQty.IsZero() || f.Columns != 0 {
		t.Errorf("expected zero fields for empty block, got %+v", f)
	}
}

func TestSchemaMap_DecimalGuard(t *testing.T) {
	tests := []struct {
		data     []string
		proposed string
		stray    int
	}{
		{[]string{"1.5", "4", "0", "2", "1"}, "4", 1},
		{[]string{"0.25", "1.75", "6", "0", "9"}, "6", 2},
		{[]string{"2.5"}, "0", 1},
		{[]string{"3.00", "1", "2"}, "3", 0},
		{[]string{"7", "1.5", "2"}, "7", 0},
	}
	for _, tt := range tests {
		f, stray := DefaultSchema().Map(tt.data)
		if !f.ProposedQty.Equal(d(tt.proposed)) {
			t.Errorf("Map(%q): expected proposed %s, got %s", tt.data, tt.proposed, f.ProposedQty)
		}
		if !f.ProposedQty.IsInteger() {
			t.Errorf("Map(%q): proposed %s is not an integer", tt.data, f.ProposedQty)
		}
		if len(stray) != tt.stray {
			t.Errorf("Map(%q): expected %d stray tokens, got %q", tt.data, tt.stray, stray)
		}
	}
}

func TestSchemaMap_GuardDisabled(t *testing.T) {
	s := DefaultSchema()
	s.DecimalGuard = false
	f, stray := s.Map([]string{"1.5", "4", "0.3"})
	if len(stray) != 0 || !f.ProposedQty.Equal(d("1.5")) || !f.Stock.Equal(d("0.3")) {
		t.Errorf("expected raw positional mapping, got %+v stray=%q", f, stray)
	}
}

func TestSchemaMap_CustomColumns(t *testing.T) {
	s := Schema{MaxDataColumns: 6, Columns: []string{"order_qty", ColumnProposedQty, ColumnTransit, ColumnStock}}
	f, _ := s.Map([]string{"9", "4", "2", "1.25"})
	if !f.ProposedQty.Equal(d("4")) || !f.Transit.Equal(d("2")) || !f.Stock.Equal(d("1.25")) {
		t.Errorf("unexpected mapping with custom schema: %+v", f)
	}
}

func TestParseQuantity(t *testing.T) {
	tests := map[string]string{
		"5":     "5",
		"0.94":  "0.94",
		"1,234": "1234",
		"-":     "0",
		"-3":    "0",
		"abc":   "0",
		"":      "0",
	}
	for in, want := range tests {
		if got := ParseQuantity(in); !got.Equal(d(want)) {
			t.Errorf("ParseQuantity(%q): expected %s, got %s", in, want, got)
		}
	}
}

func TestSchema_Validate(t *testing.T) {
	if err := DefaultSchema().Validate(); err != nil {
		t.Errorf("expected default schema to be valid, got %v", err)
	}
	bad := []Schema{
		{MaxDataColumns: 0, Columns: []string{ColumnProposedQty}},
		{MaxDataColumns: 7, Columns: []string{"order_qty"}},
		{MaxDataColumns: 7, Columns: []string{ColumnProposedQty, ColumnProposedQty}},
		{MaxDataColumns: 7, Columns: []string{ColumnProposedQty, " "}},
	}
	for i, s := range bad {
		if err := s.Validate(); err == nil {
			t.Errorf("schema %d: expected validation error", i)
		}
	}
}

func TestLoadSchemaFile(t *testing.T) {
	dir := t.TempDir()

	s, err := LoadSchemaFile(filepath.Join(dir, "missing.toml"))
	if err != nil {
		t.Fatalf("expected defaults for missing file, got %v", err)
	}
	if !reflect.DeepEqual(s, DefaultSchema()) {
		t.Errorf("expected default schema, got %+v", s)
	}

	path := filepath.Join(dir, "schema.toml")
	content := "max_data_columns = 6\ncolumns = [\"proposed_qty\", \"rsp\", \"transit\"]\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	s, err = LoadSchemaFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.MaxDataColumns != 6 || len(s.Columns) != 3 || !s.DecimalGuard {
		t.Errorf("unexpected schema: %+v", s)
	}

	if err := os.WriteFile(path, []byte("columns = [\"rsp\"]\n"), 0o644); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	if _, err := LoadSchemaFile(path); err == nil {
		t.Error("expected error for schema without proposed_qty")
	}
}

func TestSchema_WriteTOMLRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := DefaultSchema().WriteTOML(&buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	path := filepath.Join(t.TempDir(), "schema.toml")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := LoadSchemaFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(s, DefaultSchema()) {
		t.Errorf("expected %+v, got %+v", DefaultSchema(), s)
	}
}

var sampleLines = []string{
	"Store: 01234 Inventory Report",
	"Report Date: 2026-03-12",
	"WRIN Description Proposed Order RSP Transit Usage Safety Left Storage",
	"14836000 SOUR CREAM SAUCE 5 2 0.94 3 Refrigerated",
	"20001 WIDGET X 10 - 0.50 -",
	"00123 HASH BROWN 1.5 4 0 12 1 Frozen",
	"12345 5 3 Dry",
	"Page 1 of 1",
}

func TestParser_Parse(t *testing.T) {
	res := NewParser(DefaultSchema(), nil).Parse(sampleLines)

	if res.Lines != len(sampleLines) {
		t.Errorf("expected %d lines, got %d", len(sampleLines), res.Lines)
	}
	if len(res.Items) != 3 {
		t.Fatalf("expected 3 items, got %d: %+v", len(res.Items), res.Items)
	}
	if res.Skipped != 5 {
		t.Errorf("expected 5 skipped lines, got %d", res.Skipped)
	}

	sour := res.Items[0]
	if sour.ID != "14836000" || sour.Name != "Sour Cream Sauce" {
		t.Errorf("unexpected item: %+v", sour)
	}
	if !sour.ProposedQty.Equal(d("5")) || !sour.Stock.Equal(d("0.94")) || !sour.Transit.Equal(d("3")) {
		t.Errorf("unexpected quantities: %+v", sour)
	}
	if sour.StorageCategory != inventory.CategoryRefrigerated || sour.Status != inventory.StatusNeutral {
		t.Errorf("unexpected category/status: %v/%q", sour.StorageCategory, sour.Status)
	}
	if !sour.AdjustedQty.Equal(d("5")) {
		t.Errorf("expected adjusted to start at proposed, got %s", sour.AdjustedQty)
	}

	widget := res.Items[1]
	if !widget.ProposedQty.Equal(d("10")) || !widget.Stock.Equal(d("0.50")) || !widget.Transit.IsZero() {
		t.Errorf("unexpected widget quantities: %+v", widget)
	}

	// 1.5 is dropped by the decimal guard and kept in the name.
	hash := res.Items[2]
	if hash.Name != "Hash Brown 1.5" {
		t.Errorf("expected stray decimal in name, got %q", hash.Name)
	}
	if !hash.ProposedQty.Equal(d("4")) || !hash.Stock.Equal(d("12")) || !hash.Transit.Equal(d("1")) {
		t.Errorf("unexpected hash brown quantities: %+v", hash)
	}
	if hash.StorageCategory != inventory.CategoryFrozen {
		t.Errorf("expected Frozen, got %v", hash.StorageCategory)
	}
}

func TestParser_Idempotent(t *testing.T) {
	p := NewParser(DefaultSchema(), nil)
	a := p.Parse(sampleLines)
	b := p.Parse(sampleLines)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("expected identical results across parses")
	}
}

func TestParser_DuplicateLastSeenWins(t *testing.T) {
	lines := []string{
		"11111 FIRST 1 0 0 0 Dry",
		"22222 OTHER 2 0 0 0 Dry",
		"11111 SECOND 9 0 0 0 Dry",
	}
	res := NewParser(DefaultSchema(), nil).Parse(lines)
	if len(res.Items) != 2 || res.Duplicates != 1 {
		t.Fatalf("expected 2 items and 1 duplicate, got %d/%d", len(res.Items), res.Duplicates)
	}
	if res.Items[0].Name != "Second" {
		t.Errorf("expected last row to win in first position, got %q", res.Items[0].Name)
	}
}

func TestParser_NameDataBoundary(t *testing.T) {
	lines := []string{
		"30001 COLA 16OZ 12 0 4 0 Dry",
		"30002 BUN 4IN 3 1 2 5 Dry",
	}
	res := NewParser(DefaultSchema(), nil).Parse(lines)
	if len(res.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(res.Items))
	}
	if !strings.Contains(res.Items[0].Name, "16oz") || !res.Items[0].ProposedQty.Equal(d("12")) {
		t.Errorf("unexpected cola item: %+v", res.Items[0])
	}
	if !strings.Contains(res.Items[1].Name, "4in") || !res.Items[1].ProposedQty.Equal(d("3")) {
		t.Errorf("unexpected bun item: %+v", res.Items[1])
	}
}
