package decoder

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/codeOCE/MBSync/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFDecoder reads glyph positions with the Go library. When that fails and
// FallbackPdftotext is set, it shells out to pdftotext and returns its
// layout-preserved lines instead of fragments.
type PDFDecoder struct {
	FallbackPdftotext bool
}

func (d *PDFDecoder) Decode(r io.Reader, filename string) (*doctree.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), []byte("%PDF")) {
		return nil, invalid("%s is not a PDF file", filename)
	}

	doc := &doctree.Document{Title: strings.TrimSuffix(filename, ".pdf")}

	pages, err := extractFragments(data)
	if err != nil && d.FallbackPdftotext {
		pages, err = extractPdftotext(data)
	}
	if err != nil {
		return nil, invalid("extract pdf text: %v", err)
	}
	doc.Pages = pages
	return doc, nil
}

// extractFragments decodes every page. The pdf reader panics on some
// malformed content streams, which is reported as an error.
func extractFragments(data []byte) (pages []*doctree.Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		p := &doctree.Page{Number: i}
		if !page.V.IsNull() {
			for _, t := range page.Content().Text {
				p.Fragments = append(p.Fragments, doctree.Fragment{
					Text:  t.S,
					X:     t.X,
					Y:     t.Y,
					Width: t.W,
				})
			}
		}
		pages = append(pages, p)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("document has no pages")
	}
	return pages, nil
}

func extractPdftotext(data []byte) ([]*doctree.Page, error) {
	// pdftotext needs a real file path.
	tmp, err := os.CreateTemp("", "mbsync-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	cmd := exec.Command("pdftotext", "-layout", tmpPath, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	return splitTextPages(string(out)), nil
}

// splitTextPages splits plain text on form feeds, one page per segment.
func splitTextPages(text string) []*doctree.Page {
	var pages []*doctree.Page
	for i, chunk := range strings.Split(text, "\f") {
		p := &doctree.Page{Number: i + 1}
		for _, line := range strings.Split(chunk, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				p.Lines = append(p.Lines, line)
			}
		}
		if len(p.Lines) > 0 {
			pages = append(pages, p)
		}
	}
	return pages
}
