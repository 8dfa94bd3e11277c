package infra

// pdf.go: sale ticket rendering using go-pdf/fpdf.
// The ticket is a narrow receipt-sized page with the store name, sale number
// and date, one row per line, the global discount and the bold total.

import (
	"bytes"
	"fmt"

	"ventaspos/internal/model"

	"github.com/go-pdf/fpdf"
)

// TicketData is everything the ticket prints. Nombres maps producto_id to the
// product name; ids missing from it print as "Producto #id".
type TicketData struct {
	Tienda  string
	Venta   *model.Venta
	Nombres map[uint]string
}

// GenerateTicketPDF renders the ticket and returns the PDF bytes.
func GenerateTicketPDF(t TicketData) ([]byte, error) {
	venta := t.Venta

	// 74mm × 105mm, close to thermal receipt paper
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 74, Ht: 105},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.SetAutoPageBreak(true, 6)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 7, tr(t.Tienda), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Venta #%d", venta.ID), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, venta.Fecha.Format("02/01/2006  15:04"), "", 1, "C", false, 0, "")
	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	// ── Items ────────────────────────────────────────────────────────────────
	col1 := contentW * 0.50
	col2 := contentW * 0.18
	col3 := contentW * 0.32

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, "Producto", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Cant", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 5, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, item := range venta.Items {
		nombre, ok := t.Nombres[item.ProductoID]
		if !ok {
			nombre = fmt.Sprintf("Producto #%d", item.ProductoID)
		}
		if r := []rune(nombre); len(r) > 22 {
			nombre = string(r[:21]) + "."
		}
		pdf.CellFormat(col1, 5, tr(nombre), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, fmt.Sprintf("x%d", item.Cantidad), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, "$"+item.Subtotal.StringFixed(2), "", 1, "R", false, 0, "")
		if !item.DescuentoIndividual.IsZero() {
			pdf.SetFont("Helvetica", "I", 6)
			pdf.CellFormat(contentW, 3, fmt.Sprintf("  desc. %s%%", item.DescuentoIndividual.String()), "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 7)
		}
	}

	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	// ── Totals ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(col1+col2, 5, "Subtotal:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 5, "$"+venta.TotalSinDescuento.StringFixed(2), "", 1, "R", false, 0, "")
	if !venta.Descuento.IsZero() {
		pdf.CellFormat(col1+col2, 5, fmt.Sprintf("Descuento (%s%%):", venta.Descuento.String()), "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 5, "", "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1+col2, 6, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, "$"+venta.Total.StringFixed(2), "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, tr("Forma de pago: "+venta.FormaPago), "", 1, "L", false, 0, "")

	// ── Footer ───────────────────────────────────────────────────────────────
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, tr("¡Gracias por su compra!"), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render ticket: %w", err)
	}
	return buf.Bytes(), nil
}
