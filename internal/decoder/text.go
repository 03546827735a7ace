package decoder

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/codeOCE/MBSync/internal/doctree"
)

// TextDecoder handles plain-text report exports, where each line is already
// a reconstructed row. Form feeds separate pages.
type TextDecoder struct{}

func (d *TextDecoder) Decode(r io.Reader, filename string) (*doctree.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var sb strings.Builder
	for scanner.Scan() {
		sb.WriteString(scanner.Text())
		sb.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read text report: %w", err)
	}

	pages := splitTextPages(sb.String())
	if len(pages) == 0 {
		return nil, invalid("%s is empty", filename)
	}
	return &doctree.Document{
		Title: strings.TrimSuffix(filename, ".txt"),
		Pages: pages,
	}, nil
}
