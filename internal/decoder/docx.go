package decoder

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/codeOCE/MBSync/internal/doctree"
	"github.com/fumiama/go-docx"
)

// DOCXDecoder handles reports saved as Word documents. Table rows become
// lines with their cells joined; paragraphs outside tables become a line
// each.
type DOCXDecoder struct{}

func (d *DOCXDecoder) Decode(r io.Reader, filename string) (*doctree.Document, error) {
	// go-docx needs a ReaderAt and size, so spool to a temp file.
	tmp, err := os.CreateTemp("", "mbsync-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	defer tmp.Close()

	size, err := io.Copy(tmp, r)
	if err != nil {
		return nil, fmt.Errorf("write temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, size)
	if err != nil {
		return nil, invalid("parse docx %s: %v", filename, err)
	}

	page := &doctree.Page{Number: 1, Lines: docxLines(doc.Document.Body.Items)}
	if len(page.Lines) == 0 {
		return nil, invalid("%s has no text", filename)
	}
	return &doctree.Document{
		Title: strings.TrimSuffix(filename, ".docx"),
		Pages: []*doctree.Page{page},
	}, nil
}

// docxLines flattens body items in document order.
func docxLines(items []interface{}) []string {
	var lines []string
	for _, item := range items {
		switch it := item.(type) {
		case *docx.Paragraph:
			if t := docxParagraphText(it); t != "" {
				lines = append(lines, t)
			}
		case *docx.Table:
			lines = append(lines, docxTableLines(it)...)
		}
	}
	return lines
}

func docxTableLines(tbl *docx.Table) []string {
	var lines []string
	for _, row := range tbl.TableRows {
		cells := make([]string, 0, len(row.TableCells))
		for _, cell := range row.TableCells {
			parts := make([]string, 0, len(cell.Paragraphs))
			for _, p := range cell.Paragraphs {
				if t := docxParagraphText(p); t != "" {
					parts = append(parts, t)
				}
			}
			cells = append(cells, strings.Join(parts, " "))
		}
		if line := joinCells(cells); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.Join(strings.Fields(buf.String()), " ")
}
