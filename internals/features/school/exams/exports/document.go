// Package exports merender datesheet & slip ke PDF/XLSX.
package exports

import (
	"sort"
	"strings"

	helper "schoolku_backend/internals/helpers"
)

// Row satu baris jadwal ujian siap cetak.
type Row struct {
	ClassName   string
	SubjectName string
	Date        string // YYYY-MM-DD
	StartTime   string // HH:MM
	EndTime     string
	Room        string
}

type DatesheetDoc struct {
	Title      string
	Session    string
	ExamCenter string
	Rows       []Row
}

type SlipDoc struct {
	SlipNumber     string
	SlipLabel      string // "Admit Card" / "Roll Number Slip"
	StudentName    string
	FatherName     string
	AdmissionNo    string
	ClassName      string
	DatesheetTitle string
	Session        string
	ExamCenter     string
	Rows           []Row
}

// SortRows: class, tanggal, jam mulai.
func SortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.ClassName != b.ClassName {
			return a.ClassName < b.ClassName
		}
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.StartTime < b.StartTime
	})
}

// Filename: "mid-term-2024-2025.pdf"
func (d DatesheetDoc) Filename(ext string) string {
	return helper.SafeFilename(strings.TrimSpace(d.Title+" "+d.Session), ext)
}
