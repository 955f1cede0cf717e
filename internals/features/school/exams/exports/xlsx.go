package exports

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const datesheetSheet = "Datesheet"

// DatesheetXLSX: satu sheet, baris judul lalu tabel jadwal.
func DatesheetXLSX(doc DatesheetDoc) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", datesheetSheet); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return nil, err
	}
	head, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"28916C"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}

	set := func(col, row int, v any) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(datesheetSheet, cell, v)
	}

	meta := [][2]string{{"Title", doc.Title}, {"Session", doc.Session}, {"Exam Center", doc.ExamCenter}}
	for i, kv := range meta {
		if err := set(1, i+1, kv[0]); err != nil {
			return nil, err
		}
		if err := set(2, i+1, kv[1]); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(datesheetSheet, "B1", "B1", bold); err != nil {
		return nil, err
	}

	headerRow := len(meta) + 2
	headers := []string{"Class", "Subject", "Date", "Start", "End", "Room"}
	for i, h := range headers {
		if err := set(i+1, headerRow, h); err != nil {
			return nil, err
		}
	}
	first, _ := excelize.CoordinatesToCellName(1, headerRow)
	last, _ := excelize.CoordinatesToCellName(len(headers), headerRow)
	if err := f.SetCellStyle(datesheetSheet, first, last, head); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(datesheetSheet, "A", "F", 18); err != nil {
		return nil, err
	}

	rows := append([]Row(nil), doc.Rows...)
	SortRows(rows)
	for i, r := range rows {
		vals := []string{r.ClassName, r.SubjectName, r.Date, r.StartTime, r.EndTime, r.Room}
		for j, v := range vals {
			if err := set(j+1, headerRow+1+i, v); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
