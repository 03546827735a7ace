package decoder

import (
	"bytes"
	"io"
	"strings"

	"github.com/codeOCE/MBSync/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownDecoder handles reports pasted into Markdown. Pipe-table rows
// become lines with their cells joined; every source line of a paragraph
// or code block is a line of its own.
type MarkdownDecoder struct{}

func (d *MarkdownDecoder) Decode(r io.Reader, filename string) (*doctree.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	root := md.Parser().Parse(text.NewReader(src))

	page := &doctree.Page{Number: 1}
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		page.Lines = append(page.Lines, markdownLines(n, src)...)
	}
	if len(page.Lines) == 0 {
		return nil, invalid("%s has no text", filename)
	}
	return &doctree.Document{
		Title: strings.TrimSuffix(strings.TrimSuffix(filename, ".md"), ".markdown"),
		Pages: []*doctree.Page{page},
	}, nil
}

func markdownLines(n ast.Node, src []byte) []string {
	switch node := n.(type) {
	case *east.Table:
		var lines []string
		for row := node.FirstChild(); row != nil; row = row.NextSibling() {
			var cells []string
			for c := row.FirstChild(); c != nil; c = c.NextSibling() {
				if _, ok := c.(*east.TableCell); ok {
					cells = append(cells, inlineText(c, src))
				}
			}
			if line := joinCells(cells); line != "" {
				lines = append(lines, line)
			}
		}
		return lines
	case *ast.Heading:
		if t := inlineText(node, src); t != "" {
			return []string{t}
		}
		return nil
	case *ast.Paragraph, *ast.TextBlock, *ast.FencedCodeBlock, *ast.CodeBlock:
		var lines []string
		segs := n.Lines()
		for i := 0; i < segs.Len(); i++ {
			seg := segs.At(i)
			if t := strings.Join(strings.Fields(string(seg.Value(src))), " "); t != "" {
				lines = append(lines, t)
			}
		}
		return lines
	}

	// Lists, quotes and other containers.
	var lines []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		lines = append(lines, markdownLines(c, src)...)
	}
	return lines
}

// inlineText collects the text segments below n onto one line.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		if t, ok := n.(*ast.Text); ok {
			buf.Write(t.Segment.Value(src))
			buf.WriteByte(' ')
		}
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}
