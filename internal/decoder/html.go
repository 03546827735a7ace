package decoder

import (
	"fmt"
	"io"
	"strings"

	"github.com/codeOCE/MBSync/internal/doctree"
	"golang.org/x/net/html"
)

// HTMLDecoder handles the ordering system's HTML print view. Each table row
// becomes one line with its cells joined by spaces; block text outside
// tables becomes a line of its own.
type HTMLDecoder struct{}

func (d *HTMLDecoder) Decode(r io.Reader, filename string) (*doctree.Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc := &doctree.Document{
		Title: strings.TrimSuffix(strings.TrimSuffix(filename, ".html"), ".htm"),
	}
	if title := findTitle(root); title != "" {
		doc.Title = title
	}

	page := &doctree.Page{Number: 1}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "head":
				return
			case "tr":
				if line := rowText(n); line != "" {
					page.Lines = append(page.Lines, line)
				}
				return
			case "p", "li", "h1", "h2", "h3", "h4", "h5", "h6", "caption":
				if line := textContent(n); line != "" {
					page.Lines = append(page.Lines, line)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	if len(page.Lines) == 0 {
		return nil, invalid("%s has no text", filename)
	}
	doc.Pages = []*doctree.Page{page}
	return doc, nil
}

// rowText joins the non-empty cells of a table row. Empty cells between
// filled ones become dash placeholders so column positions survive.
func rowText(tr *html.Node) string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
			cells = append(cells, textContent(c))
		}
	}
	return joinCells(cells)
}

// textContent collapses all text below n onto one line.
func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}
