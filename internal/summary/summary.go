// Package summary renders a printable digest of a session's decisions.
package summary

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"strings"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/jung-kurt/gofpdf"

	"github.com/codeOCE/MBSync/internal/inventory"
)

// Report is the input to Render.
type Report struct {
	SessionID string
	Title     string
	Items     []inventory.Item // export view
	Counts    inventory.Counts
	PrintedAt time.Time
}

var columns = []struct {
	title string
	width float64
	align string
}{
	{"WRIN", 28, "L"},
	{"Description", 88, "L"},
	{"Category", 30, "L"},
	{"Change", 24, "L"},
	{"Proposed", 22, "R"},
	{"Stock", 22, "R"},
	{"Actual", 22, "R"},
	{"Adjusted", 22, "R"},
}

// Render returns a landscape A4 PDF: a header with the session barcode, the
// status counts, and one table row per changed item.
func Render(r Report) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	title := strings.TrimSpace(r.Title)
	if title == "" {
		title = "Inventory Change Summary"
	}
	pdf.SetTitle(title, false)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Printed: "+r.PrintedAt.Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")

	if r.SessionID != "" {
		img, err := renderCode128PNG(r.SessionID, 1200, 160)
		if err != nil {
			return nil, fmt.Errorf("session barcode: %w", err)
		}
		opt := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("session-barcode", opt, bytes.NewReader(img))
		pageW, _ := pdf.GetPageSize()
		pdf.ImageOptions("session-barcode", pageW-110, 10, 100, 14, false, opt, 0, "")
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetXY(pageW-110, 25)
		pdf.CellFormat(100, 4, r.SessionID, "", 1, "C", false, 0, "")
	}

	pdf.SetY(34)
	pdf.SetFont("Helvetica", "B", 11)
	c := r.Counts
	pdf.CellFormat(0, 7, fmt.Sprintf("Items: %d   Accepted: %d   Increase: %d   Decrease: %d",
		c.Total, c.Accept+c.Neutral, c.Increase, c.Decrease), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	var changed []inventory.Item
	for _, it := range r.Items {
		if it.Status.IsChange() {
			changed = append(changed, it)
		}
	}
	if len(changed) == 0 {
		pdf.SetFont("Helvetica", "I", 11)
		pdf.CellFormat(0, 8, "No changes requested. All proposed quantities accepted.", "", 1, "L", false, 0, "")
		return output(pdf)
	}

	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for _, col := range columns {
			pdf.CellFormat(col.width, 7, col.title, "1", 0, col.align, true, 0, "")
		}
		pdf.Ln(-1)
	}
	header()

	_, pageH := pdf.GetPageSize()
	pdf.SetFont("Helvetica", "", 9)
	for _, it := range changed {
		if pdf.GetY()+7 > pageH-12 {
			pdf.AddPage()
			header()
			pdf.SetFont("Helvetica", "", 9)
		}
		actual := "-"
		if it.ActualStock != nil {
			actual = it.ActualStock.String()
		}
		values := []string{
			string(it.ID),
			fitText(pdf, it.Name, columns[1].width-2),
			it.StorageCategory.String(),
			it.Status.Label(),
			it.ProposedQty.String(),
			it.Stock.String(),
			actual,
			it.AdjustedQty.String(),
		}
		for i, col := range columns {
			pdf.CellFormat(col.width, 6, values[i], "1", 0, col.align, false, 0, "")
		}
		pdf.Ln(-1)
		if reason := strings.TrimSpace(it.Reason); reason != "" {
			pdf.SetFont("Helvetica", "I", 8)
			pdf.CellFormat(columns[0].width, 5, "", "", 0, "L", false, 0, "")
			pdf.CellFormat(0, 5, fitText(pdf, "Reason: "+reason, 220), "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 9)
		}
	}
	return output(pdf)
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// fitText truncates s with an ellipsis so it fits maxWidth at the current font.
func fitText(pdf *gofpdf.Fpdf, s string, maxWidth float64) string {
	if pdf.GetStringWidth(s) <= maxWidth {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > maxWidth {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}

func renderCode128PNG(value string, width, height int) ([]byte, error) {
	code, err := code128.Encode(value)
	if err != nil {
		return nil, err
	}
	scaled, err := barcode.Scale(code, width, height)
	if err != nil {
		return nil, err
	}
	bounds := scaled.Bounds()
	dst := image.NewNRGBA(bounds)
	draw.Draw(dst, bounds, scaled, bounds.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
