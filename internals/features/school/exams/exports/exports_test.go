package exports

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDoc() DatesheetDoc {
	return DatesheetDoc{
		Title:      "Mid Term",
		Session:    "2024-2025",
		ExamCenter: "Main Hall",
		Rows: []Row{
			{ClassName: "Class 5", SubjectName: "English", Date: "2024-03-03", StartTime: "09:00", EndTime: "11:00", Room: "Main Hall"},
			{ClassName: "Class 5", SubjectName: "Math", Date: "2024-03-01", StartTime: "09:00", EndTime: "11:00", Room: "Main Hall"},
		},
	}
}

func TestSortRows(t *testing.T) {
	rows := []Row{
		{ClassName: "B", Date: "2024-03-01", StartTime: "09:00"},
		{ClassName: "A", Date: "2024-03-02", StartTime: "09:00"},
		{ClassName: "A", Date: "2024-03-01", StartTime: "13:00"},
		{ClassName: "A", Date: "2024-03-01", StartTime: "08:00"},
	}
	SortRows(rows)
	assert.Equal(t, "08:00", rows[0].StartTime)
	assert.Equal(t, "13:00", rows[1].StartTime)
	assert.Equal(t, "2024-03-02", rows[2].Date)
	assert.Equal(t, "B", rows[3].ClassName)
}

func TestDatesheetPDF(t *testing.T) {
	out, err := DatesheetPDF(sampleDoc())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	empty, err := DatesheetPDF(DatesheetDoc{Title: "Kosong"})
	require.NoError(t, err)
	assert.NotEmpty(t, empty)
}

func TestDatesheetXLSX(t *testing.T) {
	out, err := DatesheetXLSX(sampleDoc())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue(datesheetSheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "Mid Term", title)

	rows, err := f.GetRows(datesheetSheet)
	require.NoError(t, err)
	// 3 baris meta + 1 kosong + header + 2 data
	require.Len(t, rows, 7)
	assert.Equal(t, []string{"Class", "Subject", "Date", "Start", "End", "Room"}, rows[4])
	assert.Equal(t, "Math", rows[5][1], "urut tanggal")
	assert.Equal(t, "English", rows[6][1])
}

func TestSlipsPDF(t *testing.T) {
	_, err := SlipsPDF(nil)
	assert.Error(t, err)

	doc := sampleDoc()
	out, err := SlipsPDF([]SlipDoc{
		{SlipNumber: "MID-TERM-A001", SlipLabel: "Admit Card", StudentName: "Ali", AdmissionNo: "A001", ClassName: "Class 5", DatesheetTitle: doc.Title, Rows: doc.Rows},
		{SlipNumber: "MID-TERM-A002", SlipLabel: "Admit Card", StudentName: "Zoë", AdmissionNo: "A002", ClassName: "Class 5", DatesheetTitle: doc.Title},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "mid-term-2024-2025.pdf", sampleDoc().Filename("pdf"))
}
