package structured

import (
	"bytes"
	"fmt"

	"github.com/gocarina/gocsv"

	"coursegrid/internal/model"
)

// csvRow reads every column as text so numeric columns get the same
// coercion rules as JSON input.
type csvRow struct {
	ID           string `csv:"id"`
	Name         string `csv:"name"`
	Room         string `csv:"room"`
	Teacher      string `csv:"teacher"`
	Day          string `csv:"day"`
	StartSection string `csv:"startSection"`
	Duration     string `csv:"duration"`
	Color        string `csv:"color"`
	Weeks        string `csv:"weeks"`
}

// ParseCSV reads a header-first CSV table whose columns match the JSON
// field names. Validation and defaults are the same as ParseJSON.
func ParseCSV(data []byte) ([]model.Course, error) {
	var rows []csvRow
	if err := gocsv.UnmarshalBytes(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")), &rows); err != nil {
		return nil, fmt.Errorf("parse CSV: %w", err)
	}

	records := make([]record, 0, len(rows))
	for _, r := range rows {
		records = append(records, record{
			ID:           r.ID,
			Name:         r.Name,
			Room:         r.Room,
			Teacher:      r.Teacher,
			Day:          r.Day,
			StartSection: r.StartSection,
			Duration:     r.Duration,
			Color:        r.Color,
			Weeks:        r.Weeks,
		})
	}
	return normalize(records)
}

// SerializeCSV writes courses with a header row in JSON field order.
func SerializeCSV(courses []model.Course) ([]byte, error) {
	if courses == nil {
		courses = []model.Course{}
	}
	out, err := gocsv.MarshalBytes(&courses)
	if err != nil {
		return nil, fmt.Errorf("serialize CSV: %w", err)
	}
	return out, nil
}
