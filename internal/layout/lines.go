package layout

import (
	"cmp"
	"slices"
	"strings"

	"github.com/codeOCE/MBSync/internal/doctree"
)

// Config controls how fragments are grouped into lines.
type Config struct {
	RowTolerance float64 // Max vertical distance from a row's anchor to stay on that row.
	GapThreshold float64 // Horizontal gap above which a space is inserted.
}

// DefaultConfig returns the tolerances that match the ordering system's reports.
func DefaultConfig() Config {
	return Config{
		RowTolerance: 5,
		GapThreshold: 4,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.RowTolerance <= 0 {
		c.RowTolerance = d.RowTolerance
	}
	if c.GapThreshold <= 0 {
		c.GapThreshold = d.GapThreshold
	}
	return c
}

// Reconstruct groups the fragments of one page into visual rows and returns
// them top to bottom as trimmed, non-empty strings.
func Reconstruct(frags []doctree.Fragment, cfg Config) []string {
	cfg = cfg.withDefaults()

	sorted := make([]doctree.Fragment, 0, len(frags))
	for _, f := range frags {
		if strings.TrimSpace(f.Text) == "" {
			continue
		}
		sorted = append(sorted, f)
	}
	slices.SortFunc(sorted, compareReadingOrder)

	var lines []string
	var row []doctree.Fragment
	var anchorY float64

	flush := func() {
		if len(row) == 0 {
			return
		}
		if line := joinRow(row, cfg.GapThreshold); line != "" {
			lines = append(lines, line)
		}
		row = row[:0]
	}

	for _, f := range sorted {
		if len(row) > 0 && abs(f.Y-anchorY) > cfg.RowTolerance {
			flush()
		}
		if len(row) == 0 {
			anchorY = f.Y
		}
		row = append(row, f)
	}
	flush()

	return lines
}

// compareReadingOrder is a total order: y descending, then x ascending.
// Text and width break the remaining ties so input order never leaks into
// the output.
func compareReadingOrder(a, b doctree.Fragment) int {
	if c := cmp.Compare(b.Y, a.Y); c != 0 {
		return c
	}
	if c := cmp.Compare(a.X, b.X); c != 0 {
		return c
	}
	if c := strings.Compare(a.Text, b.Text); c != 0 {
		return c
	}
	return cmp.Compare(a.Width, b.Width)
}

// joinRow concatenates one row's fragments in x order. Fragments closer
// than gap are glued together since the decoder often splits words.
func joinRow(row []doctree.Fragment, gap float64) string {
	ordered := slices.Clone(row)
	slices.SortStableFunc(ordered, func(a, b doctree.Fragment) int {
		return cmp.Compare(a.X, b.X)
	})

	var sb strings.Builder
	var prevEnd float64
	for i, f := range ordered {
		if i > 0 && f.X-prevEnd > gap {
			sb.WriteByte(' ')
		}
		sb.WriteString(f.Text)
		prevEnd = f.X + f.Width
	}
	return strings.TrimSpace(sb.String())
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
