package decoder

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/codeOCE/MBSync/internal/doctree"
)

// ErrInvalidReport wraps every decode failure. Callers show a single
// "not a valid report" message for it.
var ErrInvalidReport = errors.New("not a valid report")

// Decoder converts raw report bytes into positioned page content.
type Decoder interface {
	Decode(r io.Reader, filename string) (*doctree.Document, error)
}

// Options configures the decoders returned by ForFile.
type Options struct {
	FallbackPdftotext bool
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".pdf":      true,
	".txt":      true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".docx":     true,
	".md":       true,
	".markdown": true,
}

// ForFile returns the appropriate decoder for a filename.
func ForFile(filename string, opts Options) (Decoder, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return &PDFDecoder{FallbackPdftotext: opts.FallbackPdftotext}, nil
	case ".txt":
		return &TextDecoder{}, nil
	case ".csv":
		return &CSVDecoder{}, nil
	case ".html", ".htm":
		return &HTMLDecoder{}, nil
	case ".docx":
		return &DOCXDecoder{}, nil
	case ".md", ".markdown":
		return &MarkdownDecoder{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidReport, fmt.Sprintf(format, args...))
}
