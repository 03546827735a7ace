package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"
)

// Column names the field mapper understands. Any other name in a schema is
// kept for column counting only.
const (
	ColumnProposedQty = "proposed_qty"
	ColumnStock       = "rsp"
	ColumnTransit     = "transit"
)

// Schema is the index-to-field table applied to a row's data block. The
// report layout drifts between releases of the ordering system, so the
// table is data rather than code.
type Schema struct {
	MaxDataColumns int      `toml:"max_data_columns"`
	Columns        []string `toml:"columns"`
	DecimalGuard   bool     `toml:"decimal_guard"`
}

// DefaultSchema returns the column layout observed on current reports.
func DefaultSchema() Schema {
	return Schema{
		MaxDataColumns: DefaultMaxDataColumns,
		Columns: []string{
			ColumnProposedQty,
			"order_qty",
			ColumnStock,
			ColumnTransit,
			"cycle_usage",
			"safety_stock",
			"stock_left",
		},
		DecimalGuard: true,
	}
}

// Validate checks that the schema can drive the mapper.
func (s Schema) Validate() error {
	if s.MaxDataColumns < 1 {
		return fmt.Errorf("max_data_columns must be at least 1, got %d", s.MaxDataColumns)
	}
	seen := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		c = strings.TrimSpace(c)
		if c == "" {
			return fmt.Errorf("empty column name")
		}
		if seen[c] {
			return fmt.Errorf("duplicate column %q", c)
		}
		seen[c] = true
	}
	if !seen[ColumnProposedQty] {
		return fmt.Errorf("schema must map %q", ColumnProposedQty)
	}
	return nil
}

// LoadSchemaFile reads a TOML schema. Keys missing from the file keep their
// default values; a missing file yields the default schema.
func LoadSchemaFile(path string) (Schema, error) {
	s := DefaultSchema()
	if path == "" {
		return s, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return s, nil
	}
	if _, err := toml.DecodeFile(path, &s); err != nil {
		return Schema{}, fmt.Errorf("decode schema %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return Schema{}, fmt.Errorf("schema %s: %w", path, err)
	}
	return s, nil
}

// WriteTOML encodes the schema in the format LoadSchemaFile reads.
func (s Schema) WriteTOML(w io.Writer) error {
	return toml.NewEncoder(w).Encode(s)
}

// Fields are the business values recovered from a data block.
type Fields struct {
	ProposedQty decimal.Decimal
	Stock       decimal.Decimal
	Transit     decimal.Decimal
	Columns     int // data tokens left after the decimal guard
}

// Map assigns data tokens to fields by position. With DecimalGuard set,
// leading non-integer tokens are dropped first and returned as stray name
// fragments: the proposed quantity is always a whole number, so a leading
// decimal is a price or pack size that leaked out of the name.
func (s Schema) Map(data []string) (Fields, []string) {
	var stray []string
	if s.DecimalGuard {
		for len(data) > 0 && !isInteger(data[0]) {
			stray = append(stray, data[0])
			data = data[1:]
		}
	}

	f := Fields{Columns: len(data)}
	for i, col := range s.Columns {
		var v decimal.Decimal
		if i < len(data) {
			v = ParseQuantity(data[i])
		}
		switch col {
		case ColumnProposedQty:
			f.ProposedQty = v
		case ColumnStock:
			f.Stock = v
		case ColumnTransit:
			f.Transit = v
		}
	}
	return f, stray
}

// ParseQuantity parses a numeric token. Thousands separators are removed;
// unparseable, dash and negative values yield zero.
func ParseQuantity(s string) decimal.Decimal {
	v, err := parseDecimal(s)
	if err != nil || v.IsNegative() {
		return decimal.Zero
	}
	return v
}

func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if isDash(s) {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func isInteger(s string) bool {
	v, err := parseDecimal(s)
	if err != nil {
		return false
	}
	return v.IsInteger()
}
