// Package importer routes raw timetable text to the right parser and
// applies the shared result policy: an import either yields at least one
// course or fails as a whole.
package importer

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"coursegrid/internal/freetext"
	"coursegrid/internal/ics"
	"coursegrid/internal/model"
	"coursegrid/internal/period"
	"coursegrid/internal/structured"
)

// Format names one input layout.
type Format string

const (
	FormatICS  Format = "ics"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatText Format = "text"
)

var (
	ErrNoCourses     = errors.New("no valid course data found")
	ErrUnknownFormat = errors.New("unknown import format")
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatICS, FormatJSON, FormatCSV, FormatText}
}

// ParseFormat accepts a format name or common alias.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ics", "ical", "icalendar":
		return FormatICS, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "text", "txt", "plain":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// DetectFormat guesses the format from a file name's extension.
func DetectFormat(filename string) (Format, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", ErrUnknownFormat, filename)
	}
	return ParseFormat(ext)
}

// Options carries the collaborators parsers need.
type Options struct {
	Periods period.Table
	// Now seeds generated IDs; nil means time.Now.
	Now func() time.Time
}

// Import parses data as format. A result with zero courses is reported as
// ErrNoCourses, never as an empty schedule.
func Import(format Format, data []byte, opts Options) ([]model.Course, error) {
	if len(opts.Periods) == 0 {
		opts.Periods = period.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	var (
		courses []model.Course
		err     error
	)
	switch format {
	case FormatICS:
		courses, err = ics.Parse(data, opts.Periods)
	case FormatJSON:
		courses, err = structured.ParseJSON(data)
	case FormatCSV:
		courses, err = structured.ParseCSV(data)
	case FormatText:
		courses = freetext.Parse(string(data), opts.Now())
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", format, err)
	}
	if len(courses) == 0 {
		return nil, ErrNoCourses
	}
	return courses, nil
}
