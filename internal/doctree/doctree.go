package doctree

// Document is a decoded report, one entry per page in document order.
type Document struct {
	Title string  // Report title (from filename)
	Pages []*Page // Pages numbered 1..N
}

// Page holds the raw content of a single page. Decoders that can recover
// glyph positions fill Fragments; decoders that only see plain text fill
// Lines directly.
type Page struct {
	Number    int
	Fragments []Fragment
	Lines     []string
}

// Fragment is one positioned text run as emitted by the document decoder.
// Coordinates are in page space with y increasing upward.
type Fragment struct {
	Text  string
	X     float64
	Y     float64
	Width float64
}

// FragmentCount returns the number of fragments across all pages.
func (d *Document) FragmentCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Fragments)
	}
	return n
}
