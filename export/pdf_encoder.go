package export

import (
	"io"

	"github.com/go-pdf/fpdf"

	"querybench/bench"
)

// PDFEncoder lays rows out as a landscape A4 grid with equal column widths.
type PDFEncoder struct {
	pdf      *fpdf.Fpdf
	w        io.Writer
	tr       func(string) string
	colWidth float64
	written  bool
}

func NewPDFEncoder(w io.Writer) *PDFEncoder {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 9)
	pdf.AddPage()
	return &PDFEncoder{
		pdf: pdf,
		w:   w,
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

func (e *PDFEncoder) WriteHeader(columns []string) error {
	if len(columns) == 0 {
		return nil
	}
	pageWidth, _ := e.pdf.GetPageSize()
	left, _, right, _ := e.pdf.GetMargins()
	e.colWidth = (pageWidth - left - right) / float64(len(columns))

	e.pdf.SetFont("Arial", "B", 9)
	for _, c := range columns {
		e.pdf.CellFormat(e.colWidth, 7, e.tr(c), "1", 0, "C", false, 0, "")
	}
	e.pdf.Ln(-1)
	e.pdf.SetFont("Arial", "", 9)
	return e.pdf.Error()
}

func (e *PDFEncoder) WriteRow(values []bench.Value) error {
	if e.colWidth == 0 && len(values) > 0 {
		pageWidth, _ := e.pdf.GetPageSize()
		left, _, right, _ := e.pdf.GetMargins()
		e.colWidth = (pageWidth - left - right) / float64(len(values))
	}
	for _, v := range values {
		align := "L"
		if v.Kind == bench.KindInt || v.Kind == bench.KindFloat {
			align = "R"
		}
		e.pdf.CellFormat(e.colWidth, 6, e.tr(v.String()), "1", 0, align, false, 0, "")
	}
	e.pdf.Ln(-1)
	return e.pdf.Error()
}

// Flush renders the document. fpdf can only output once.
func (e *PDFEncoder) Flush() error {
	if e.written {
		return nil
	}
	e.written = true
	return e.pdf.Output(e.w)
}

func (e *PDFEncoder) Close() error {
	return e.Flush()
}
