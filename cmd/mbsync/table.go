package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/codeOCE/MBSync/internal/inventory"
)

const maxNameWidth = 36

var tableHeader = []string{"WRIN", "DESCRIPTION", "PROPOSED", "STOCK", "TRANSIT", "STORAGE"}

// writeItemTable prints items as aligned columns. Widths are measured in
// terminal cells so wide runes in descriptions do not skew the layout.
func writeItemTable(w io.Writer, items []inventory.Item) error {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{
			string(it.ID),
			runewidth.Truncate(it.Name, maxNameWidth, "…"),
			it.ProposedQty.String(),
			it.Stock.String(),
			it.Transit.String(),
			it.StorageCategory.String(),
		})
	}

	widths := make([]int, len(tableHeader))
	for i, h := range tableHeader {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, r := range rows {
		for i, cell := range r {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	if _, err := fmt.Fprintln(w, titleStyle.Sprint(formatRow(tableHeader, widths))); err != nil {
		return err
	}
	for _, r := range rows {
		if _, err := fmt.Fprintln(w, formatRow(r, widths)); err != nil {
			return err
		}
	}
	return nil
}

// formatRow left-aligns text columns and right-aligns the quantities.
func formatRow(cells []string, widths []int) string {
	var sb strings.Builder
	for i, cell := range cells {
		if i > 0 {
			sb.WriteString("  ")
		}
		switch {
		case i >= 2 && i <= 4:
			sb.WriteString(runewidth.FillLeft(cell, widths[i]))
		case i == len(cells)-1:
			sb.WriteString(cell)
		default:
			sb.WriteString(runewidth.FillRight(cell, widths[i]))
		}
	}
	return sb.String()
}
