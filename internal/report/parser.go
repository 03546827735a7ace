package report

import (
	"io"
	"log/slog"

	"github.com/codeOCE/MBSync/internal/inventory"
)

// Parser turns reconstructed report lines into items. It holds no state
// between calls; Parse is a pure function of its input lines.
type Parser struct {
	Schema Schema
	Log    *slog.Logger
}

// NewParser returns a parser for schema. A nil logger discards diagnostics.
func NewParser(schema Schema, log *slog.Logger) *Parser {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Parser{Schema: schema, Log: log}
}

// Result is the outcome of one parse.
type Result struct {
	Items      []inventory.Item
	Lines      int // lines examined
	Skipped    int // lines rejected as non-data or malformed
	Duplicates int // rows whose identifier was already seen
}

// Parse runs classification, segmentation, field mapping and name
// normalization over every line. Lines that do not yield an item are
// skipped and logged; the batch is never aborted.
func (p *Parser) Parse(lines []string) Result {
	res := Result{Lines: len(lines)}
	index := make(map[inventory.ItemID]int)

	for n, line := range lines {
		item, ok := p.parseLine(n, line)
		if !ok {
			res.Skipped++
			continue
		}
		if i, dup := index[item.ID]; dup {
			p.Log.Debug("duplicate identifier, keeping last", "line", n+1, "id", item.ID)
			res.Items[i] = item
			res.Duplicates++
			continue
		}
		index[item.ID] = len(res.Items)
		res.Items = append(res.Items, item)
	}
	return res
}

func (p *Parser) parseLine(n int, line string) (inventory.Item, bool) {
	row, ok := Classify(line)
	if !ok {
		p.Log.Debug("line rejected", "line", n+1, "text", line)
		return inventory.Item{}, false
	}

	seg := Segment(row.Tokens, p.Schema.MaxDataColumns)
	fields, stray := p.Schema.Map(seg.Data)
	nameTokens := append(seg.Name, stray...)

	name := NormalizeName(nameTokens)
	if name == "" {
		p.Log.Debug("row has no description", "line", n+1, "id", row.ID, "text", line)
		return inventory.Item{}, false
	}
	if seg.Tag != "" && seg.Category == inventory.CategoryUnknown {
		p.Log.Debug("unrecognized storage tag", "line", n+1, "id", row.ID, "tag", seg.Tag)
	}

	return inventory.NewItem(
		inventory.ItemID(row.ID),
		name,
		fields.ProposedQty,
		fields.Stock,
		fields.Transit,
		seg.Category,
	), true
}
