package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"coursegrid/internal/grid"
	"coursegrid/internal/ics"
	"coursegrid/internal/model"
	"coursegrid/internal/period"
	"coursegrid/internal/structured"
)

func sampleCourses() []model.Course {
	return []model.Course{
		{ID: "a", Name: "高等数学", Room: "110", Teacher: "汤", Day: 1, StartSection: 1, Duration: 2, Color: model.Palette[0], Weeks: "1-16"},
		{ID: "b", Name: "大学英语", Room: "210", Teacher: "李", Day: 3, StartSection: 5, Duration: 3, Color: model.Palette[1], Weeks: "9-16"},
	}
}

func sampleInput() Input {
	return Input{
		Courses:  sampleCourses(),
		Settings: model.DefaultSettings(),
		Periods:  period.Default(),
		Now:      time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestXLSXLayout(t *testing.T) {
	layout := grid.Place(sampleCourses(), 5, period.Default(), 1)
	data, err := XLSX(layout)
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	v, err := wb.GetCellValue(sheetName, "B1")
	require.NoError(t, err)
	assert.Equal(t, "周一", v)

	v, err = wb.GetCellValue(sheetName, "A2")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(v, "第1节"), v)

	v, err = wb.GetCellValue(sheetName, "B2")
	require.NoError(t, err)
	assert.Contains(t, v, "高等数学")

	// 大学英语 is not active in week 1
	v, err = wb.GetCellValue(sheetName, "D6")
	require.NoError(t, err)
	assert.Contains(t, v, "大学英语")
	assert.Contains(t, v, "非本周")

	merged, err := wb.GetMergeCells(sheetName)
	require.NoError(t, err)
	ranges := map[string]string{}
	for _, m := range merged {
		ranges[m.GetStartAxis()] = m.GetEndAxis()
	}
	assert.Equal(t, "B3", ranges["B2"])
	assert.Equal(t, "D8", ranges["D6"])
}

func TestXLSXClampsSpanAtTableEnd(t *testing.T) {
	courses := []model.Course{{ID: "x", Name: "晚课", Day: 2, StartSection: 13, Duration: 4, Color: model.Palette[0], Weeks: "1-16"}}
	data, err := XLSX(grid.Place(courses, 5, period.Default(), 1))
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	merged, err := wb.GetMergeCells(sheetName)
	require.NoError(t, err)
	require.Len(t, merged, 1)
	assert.Equal(t, "C14", merged[0].GetStartAxis())
	assert.Equal(t, "C15", merged[0].GetEndAxis())
}

func TestRenderFormats(t *testing.T) {
	in := sampleInput()

	data, err := Render(FormatJSON, in)
	require.NoError(t, err)
	back, err := structured.ParseJSON(data)
	require.NoError(t, err)
	assert.Equal(t, in.Courses, back)

	data, err = Render(FormatCSV, in)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "id,name,room,teacher"), string(data))

	data, err = Render(FormatICS, in)
	require.NoError(t, err)
	parsed, err := ics.Parse(data, in.Periods)
	require.NoError(t, err)
	require.Len(t, parsed, 2)
	assert.Equal(t, 3, parsed[1].Day)
	assert.Equal(t, 5, parsed[1].StartSection)
	assert.Equal(t, "9-16", parsed[1].Weeks)

	data, err = Render(FormatXLSX, in)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("PK")))

	_, err = Render(Format("pdf"), in)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)
	assert.Equal(t, "timetable.xlsx", f.Filename())
	assert.Contains(t, FormatICS.ContentType(), "text/calendar")

	_, err = ParseFormat("pdf")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
