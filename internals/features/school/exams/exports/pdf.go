package exports

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
)

const (
	pageLeft  = 15.0
	pageRight = 195.0
)

var (
	headColor = [3]int{40, 145, 108}
	lineColor = [3]int{200, 200, 200}
)

type column struct {
	title string
	width float64
	align string
}

var datesheetColumns = []column{
	{"CLASS", 34, "L"},
	{"SUBJECT", 52, "L"},
	{"DATE", 28, "C"},
	{"TIME", 30, "C"},
	{"ROOM", 36, "L"},
}

var slipColumns = []column{
	{"SUBJECT", 70, "L"},
	{"DATE", 34, "C"},
	{"TIME", 36, "C"},
	{"ROOM", 40, "L"},
}

func newPDF() (*gofpdf.Fpdf, func(string) string) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageLeft, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	// core font cp1252, teks UTF-8 diterjemahkan dulu
	return pdf, pdf.UnicodeTranslatorFromDescriptor("")
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func rule(pdf *gofpdf.Fpdf, rgb [3]int, width float64) {
	pdf.SetDrawColor(rgb[0], rgb[1], rgb[2])
	pdf.SetLineWidth(width)
	pdf.Line(pageLeft, pdf.GetY(), pageRight, pdf.GetY())
}

func tableHeader(pdf *gofpdf.Fpdf, cols []column) {
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(headColor[0], headColor[1], headColor[2])
	pdf.SetTextColor(255, 255, 255)
	for _, c := range cols {
		pdf.CellFormat(c.width, 8, c.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Arial", "", 9)
}

func tableRow(pdf *gofpdf.Fpdf, tr func(string) string, cols []column, values []string) {
	for i, c := range cols {
		pdf.CellFormat(c.width, 7, tr(values[i]), "1", 0, c.align, false, 0, "")
	}
	pdf.Ln(-1)
}

func timeRange(r Row) string { return r.StartTime + " - " + r.EndTime }

/* =========================
   Datesheet
   ========================= */

// DatesheetPDF: judul + tabel class, subject, tanggal, jam, ruang.
func DatesheetPDF(doc DatesheetDoc) ([]byte, error) {
	pdf, tr := newPDF()
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr(doc.Title), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	if doc.Session != "" {
		pdf.CellFormat(0, 5, tr("Session: "+doc.Session), "", 1, "C", false, 0, "")
	}
	if doc.ExamCenter != "" {
		pdf.CellFormat(0, 5, tr("Exam Center: "+doc.ExamCenter), "", 1, "C", false, 0, "")
	}
	pdf.Ln(3)
	rule(pdf, headColor, 0.5)
	pdf.Ln(5)

	rows := append([]Row(nil), doc.Rows...)
	SortRows(rows)

	tableHeader(pdf, datesheetColumns)
	if len(rows) == 0 {
		pdf.CellFormat(180, 7, "No schedule", "1", 1, "C", false, 0, "")
	}
	for _, r := range rows {
		if pdf.GetY() > 270 {
			pdf.AddPage()
			tableHeader(pdf, datesheetColumns)
		}
		tableRow(pdf, tr, datesheetColumns, []string{r.ClassName, r.SubjectName, r.Date, timeRange(r), r.Room})
	}
	return output(pdf)
}

/* =========================
   Slips (satu halaman per siswa)
   ========================= */

// SlipsPDF: satu halaman per slip, QR berisi nomor slip.
func SlipsPDF(slips []SlipDoc) ([]byte, error) {
	if len(slips) == 0 {
		return nil, fmt.Errorf("no slip to render")
	}
	pdf, tr := newPDF()
	for i, s := range slips {
		if err := slipPage(pdf, tr, i, s); err != nil {
			return nil, err
		}
	}
	return output(pdf)
}

func slipPage(pdf *gofpdf.Fpdf, tr func(string) string, idx int, s SlipDoc) error {
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr(s.SlipLabel), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 5, tr(s.DatesheetTitle), "", 1, "C", false, 0, "")
	pdf.Ln(3)
	rule(pdf, headColor, 0.5)
	pdf.Ln(5)

	qrTop := pdf.GetY()
	if s.SlipNumber != "" {
		png, err := qrcode.Encode(s.SlipNumber, qrcode.Medium, 256)
		if err != nil {
			return fmt.Errorf("qr %s: %w", s.SlipNumber, err)
		}
		name := fmt.Sprintf("qr-%d", idx)
		opt := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(name, opt, bytes.NewReader(png))
		pdf.ImageOptions(name, pageRight-32, qrTop, 32, 32, false, opt, 0, "")
	}

	field := func(label, value string) {
		if value == "" {
			return
		}
		pdf.SetFont("Arial", "", 10)
		pdf.Cell(40, 6, label)
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(0, 6, tr(value))
		pdf.Ln(6)
	}
	field("Slip Number:", s.SlipNumber)
	field("Student Name:", s.StudentName)
	field("Father Name:", s.FatherName)
	field("Admission No:", s.AdmissionNo)
	field("Class:", s.ClassName)
	field("Session:", s.Session)
	field("Exam Center:", s.ExamCenter)

	if y := qrTop + 36; pdf.GetY() < y {
		pdf.SetY(y)
	}
	pdf.Ln(2)
	rule(pdf, lineColor, 0.3)
	pdf.Ln(4)

	rows := append([]Row(nil), s.Rows...)
	SortRows(rows)
	tableHeader(pdf, slipColumns)
	if len(rows) == 0 {
		pdf.CellFormat(180, 7, "No schedule", "1", 1, "C", false, 0, "")
	}
	for _, r := range rows {
		tableRow(pdf, tr, slipColumns, []string{r.SubjectName, r.Date, timeRange(r), r.Room})
	}

	pdf.Ln(16)
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(90, 5, "Controller of Examinations", "T", 0, "C", false, 0, "")
	pdf.CellFormat(0, 5, "", "", 1, "", false, 0, "")
	return pdf.Error()
}
