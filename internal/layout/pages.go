package layout

import (
	"context"
	"strings"

	"github.com/codeOCE/MBSync/internal/doctree"
)

// ReconstructDocument rebuilds the lines of every page and concatenates them
// in page order. Pages are independent, so they are processed concurrently
// with at most workers goroutines in flight.
func ReconstructDocument(ctx context.Context, doc *doctree.Document, cfg Config, workers int) ([]string, error) {
	if doc == nil || len(doc.Pages) == 0 {
		return nil, nil
	}
	if workers <= 0 {
		workers = 1
	}

	perPage := make([][]string, len(doc.Pages))
	sem := make(chan struct{}, workers)
	done := make(chan struct{}, len(doc.Pages))

	for i, page := range doc.Pages {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			// Drain what was started before giving up.
			for range i {
				<-done
			}
			return nil, ctx.Err()
		}
		go func(i int, page *doctree.Page) {
			defer func() {
				<-sem
				done <- struct{}{}
			}()
			perPage[i] = pageLines(page, cfg)
		}(i, page)
	}
	for range doc.Pages {
		<-done
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var lines []string
	for _, pl := range perPage {
		lines = append(lines, pl...)
	}
	return lines, nil
}

// pageLines uses pre-built lines when the decoder supplied them, otherwise
// reconstructs from fragments.
func pageLines(page *doctree.Page, cfg Config) []string {
	if page == nil {
		return nil
	}
	if len(page.Fragments) == 0 {
		out := make([]string, 0, len(page.Lines))
		for _, l := range page.Lines {
			if l = strings.TrimSpace(l); l != "" {
				out = append(out, l)
			}
		}
		return out
	}
	return Reconstruct(page.Fragments, cfg)
}
