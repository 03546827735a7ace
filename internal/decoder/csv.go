package decoder

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/codeOCE/MBSync/internal/doctree"
)

// CSVDecoder handles spreadsheet exports of the report. Every record becomes
// one line.
type CSVDecoder struct{}

func (d *CSVDecoder) Decode(r io.Reader, filename string) (*doctree.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, invalid("parse csv %s: %v", filename, err)
	}

	page := &doctree.Page{Number: 1}
	for _, rec := range records {
		if line := joinCells(rec); line != "" {
			page.Lines = append(page.Lines, line)
		}
	}
	if len(page.Lines) == 0 {
		return nil, invalid("%s is empty", filename)
	}
	return &doctree.Document{
		Title: strings.TrimSuffix(filename, ".csv"),
		Pages: []*doctree.Page{page},
	}, nil
}

// joinCells trims empty cells from both ends and turns inner empty cells
// into "-" so the segmenter still sees one token per column.
func joinCells(cells []string) string {
	start, end := 0, len(cells)
	for start < end && strings.TrimSpace(cells[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(cells[end-1]) == "" {
		end--
	}
	out := make([]string, 0, end-start)
	for _, c := range cells[start:end] {
		c = strings.Join(strings.Fields(c), " ")
		if c == "" {
			c = "-"
		}
		out = append(out, c)
	}
	return strings.Join(out, " ")
}
