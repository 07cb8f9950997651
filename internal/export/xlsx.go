package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"coursegrid/internal/grid"
	"coursegrid/internal/model"
)

const sheetName = "课程表"

// DayNames are the column headers for days 1..7.
var DayNames = []string{"周一", "周二", "周三", "周四", "周五", "周六", "周日"}

// XLSX renders a placed layout as a workbook: one header row of days, one
// row per section, and merged cells for multi-section courses.
func XLSX(layout grid.Layout) ([]byte, error) {
	wb := excelize.NewFile()
	defer wb.Close()

	if err := wb.SetSheetName(wb.GetSheetName(0), sheetName); err != nil {
		return nil, err
	}

	headerStyle, err := wb.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#F3F4F6"}},
	})
	if err != nil {
		return nil, err
	}

	if err := setCell(wb, 1, 1, "节次"); err != nil {
		return nil, err
	}
	for d := 1; d <= layout.Days; d++ {
		if err := setCell(wb, d+1, 1, DayNames[d-1]); err != nil {
			return nil, err
		}
	}
	lastCol, _ := excelize.CoordinatesToCellName(layout.Days+1, 1)
	if err := wb.SetCellStyle(sheetName, "A1", lastCol, headerStyle); err != nil {
		return nil, err
	}

	styles := map[string]int{}
	for i, row := range layout.Rows {
		r := i + 2
		slot := layout.Sections[i]
		label := fmt.Sprintf("第%d节\n%s-%s", slot.Section, slot.StartTime, slot.EndTime)
		if err := setCell(wb, 1, r, label); err != nil {
			return nil, err
		}
		if err := wb.SetRowHeight(sheetName, r, 36); err != nil {
			return nil, err
		}

		for _, cell := range row {
			if cell.Kind != grid.Start {
				continue
			}
			c := cell.Course
			col := cell.Day + 1
			if err := setCell(wb, col, r, courseLabel(*c, cell.InCurrentWeek)); err != nil {
				return nil, err
			}

			style, ok := styles[c.Color]
			if !ok {
				sw := model.SwatchFor(c.Color)
				style, err = wb.NewStyle(&excelize.Style{
					Font:      &excelize.Font{Color: sw.Text},
					Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
					Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{sw.Fill}},
				})
				if err != nil {
					return nil, err
				}
				styles[c.Color] = style
			}

			top, _ := excelize.CoordinatesToCellName(col, r)
			// Span may run past the table; merge only the rows that exist.
			lastRow := r + cell.Span - 1
			if limit := len(layout.Rows) + 1; lastRow > limit {
				lastRow = limit
			}
			bottom, _ := excelize.CoordinatesToCellName(col, lastRow)
			if lastRow > r {
				if err := wb.MergeCell(sheetName, top, bottom); err != nil {
					return nil, err
				}
			}
			if err := wb.SetCellStyle(sheetName, top, bottom, style); err != nil {
				return nil, err
			}
		}
	}

	if err := wb.SetColWidth(sheetName, "A", "A", 14); err != nil {
		return nil, err
	}
	lastColName, _ := excelize.ColumnNumberToName(layout.Days + 1)
	if err := wb.SetColWidth(sheetName, "B", lastColName, 20); err != nil {
		return nil, err
	}

	buf, err := wb.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return bytes.Clone(buf.Bytes()), nil
}

func setCell(wb *excelize.File, col, row int, v any) error {
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return wb.SetCellValue(sheetName, axis, v)
}

func courseLabel(c model.Course, inWeek bool) string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteString("\n@")
	b.WriteString(c.Room)
	b.WriteString("\n")
	b.WriteString(c.Teacher)
	fmt.Fprintf(&b, " (%s周)", c.Weeks)
	if !inWeek {
		b.WriteString(" [非本周]")
	}
	return b.String()
}
