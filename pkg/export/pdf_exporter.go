package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders sheets into PDF documents in-process.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render lays the sheet out as a title followed by one bold label and a
// wrapped value per field.
func (e *PDFExporter) Render(sheet Sheet) ([]byte, error) {
	if len(sheet.Fields) == 0 {
		return nil, fmt.Errorf("pdf requires at least one field")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	// core fonts are cp1252; the translator maps UTF-8 input such as the em dash
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	if sheet.Title != "" {
		pdf.SetFont("Arial", "B", 16)
		pdf.CellFormat(0, 12, tr(sheet.Title), "", 1, "L", false, 0, "")
		pdf.Ln(4)
	}

	for _, field := range sheet.Fields {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 7, tr(field.Label+":"), "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.MultiCell(0, 6, tr(Valued(field.Value)), "", "L", false)
		pdf.Ln(3)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
