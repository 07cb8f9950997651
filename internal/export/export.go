// Package export renders the current course list in the downloadable
// formats.
package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"coursegrid/internal/grid"
	"coursegrid/internal/ics"
	"coursegrid/internal/model"
	"coursegrid/internal/period"
	"coursegrid/internal/structured"
)

// Format is one export target.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatICS  Format = "ics"
	FormatXLSX Format = "xlsx"
)

var ErrUnknownFormat = errors.New("unknown export format")

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV, FormatICS, FormatXLSX:
		return f, nil
	case "":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType is the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatICS:
		return "text/calendar; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/json; charset=utf-8"
}

// Filename is the suggested download name.
func (f Format) Filename() string {
	return "timetable." + string(f)
}

// Input is everything a renderer may need.
type Input struct {
	Courses  []model.Course
	Settings model.DisplaySettings
	Periods  period.Table
	Now      time.Time
}

// Render produces the bytes for format f.
func Render(f Format, in Input) ([]byte, error) {
	switch f {
	case FormatJSON:
		return structured.SerializeJSON(in.Courses)
	case FormatCSV:
		return structured.SerializeCSV(in.Courses)
	case FormatICS:
		start, err := in.Settings.SemesterStart(time.UTC)
		if err != nil {
			return nil, fmt.Errorf("export ics: %w", err)
		}
		body, err := ics.Export(in.Courses, ics.ExportOptions{
			SemesterStart: start,
			Periods:       in.Periods,
			Now:           in.Now,
		})
		if err != nil {
			return nil, err
		}
		return []byte(body), nil
	case FormatXLSX:
		layout := grid.Place(in.Courses, in.Settings.DayCount(), in.Periods, in.Settings.CurrentWeek)
		return XLSX(layout)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}
