package qr

import (
	"bytes"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

// Caption is the text printed under a page QR code.
func Caption(pageURL string) string {
	return "Scan to open: " + pageURL
}

// WritePDF renders a single A4 page holding the QR image centred under
// title, with the caption below it.
func WritePDF(w io.Writer, png []byte, title, pageURL string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetMargins(20, 24, 20)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageWidth, _ := pdf.GetPageSize()
	const imageSide = 90.0

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader("page-qr", opts, bytes.NewReader(png))
	pdf.ImageOptions("page-qr", (pageWidth-imageSide)/2, pdf.GetY(), imageSide, imageSide, true, opts, 0, "")

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(51, 51, 68)
	pdf.MultiCell(0, 6, tr(Caption(pageURL)), "", "C", false)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render qr pdf: %w", err)
	}
	return nil
}
