package ics

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	appLog "coursegrid/internal/log"
	"coursegrid/internal/model"
	"coursegrid/internal/period"
)

// minutesPerSection is the nominal period length used to turn an event's
// length into a section count. Real slots in the table may differ.
const minutesPerSection = 45

// RawEvent is one VEVENT block as scanned from the payload, before any
// conversion. Only the properties the importer cares about are kept.
type RawEvent struct {
	UID         string
	DTStart     string
	DTEnd       string
	Summary     string
	Location    string
	Description string
	RRule       string
}

func (e RawEvent) complete() bool {
	return e.UID != "" && e.DTStart != "" && e.Summary != ""
}

var ErrEmptyBody = errors.New("empty ICS body")

// Parse converts an ICS payload into courses, one per usable VEVENT, in
// source order. Events that cannot be converted are logged and skipped;
// the only hard failure is an empty payload.
func Parse(body []byte, table period.Table) ([]model.Course, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, ErrEmptyBody
	}

	events := ExtractEvents(string(body))
	courses := make([]model.Course, 0, len(events))

	for i, ev := range events {
		c, err := convertEvent(ev, i, table)
		if err != nil {
			// Log and skip this event, but keep parsing others.
			appLog.Error("ics vevent conversion failed", err, "uid", ev.UID, "summary", ev.Summary)
			continue
		}
		courses = append(courses, c)
	}

	appLog.Info("ics parse completed", "event_count", len(events), "course_count", len(courses))
	return courses, nil
}

// ExtractEvents scans the payload line by line and returns every VEVENT
// that carries UID, DTSTART and SUMMARY. Unknown properties are ignored and
// incomplete events are dropped without error.
func ExtractEvents(body string) []RawEvent {
	var (
		events  []RawEvent
		current RawEvent
		inEvent bool
		nested  int // depth of sub-components (VALARM etc.) inside the event
	)

	for _, line := range unfold(body) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		name, value, ok := splitProperty(line)
		if !ok {
			continue
		}

		switch {
		case name == "BEGIN" && strings.EqualFold(value, "VEVENT"):
			inEvent = true
			nested = 0
			current = RawEvent{}
			continue
		case name == "END" && strings.EqualFold(value, "VEVENT"):
			if inEvent && current.complete() {
				events = append(events, current)
			}
			inEvent = false
			continue
		}

		if !inEvent {
			continue
		}

		switch name {
		case "BEGIN":
			nested++
			continue
		case "END":
			if nested > 0 {
				nested--
			}
			continue
		}
		if nested > 0 {
			// VALARM and friends have their own DESCRIPTION etc.
			continue
		}

		switch name {
		case "UID":
			current.UID = value
		case "DTSTART":
			current.DTStart = value
		case "DTEND":
			current.DTEnd = value
		case "SUMMARY":
			current.Summary = unescapeText(value)
		case "LOCATION":
			current.Location = unescapeText(value)
		case "DESCRIPTION":
			current.Description = unescapeText(value)
		case "RRULE":
			current.RRule = value
		}
	}

	return events
}

func convertEvent(ev RawEvent, ordinal int, table period.Table) (model.Course, error) {
	start, err := parseStamp(ev.DTStart)
	if err != nil {
		return model.Course{}, fmt.Errorf("DTSTART: %w", err)
	}
	end, err := parseStamp(ev.DTEnd)
	if err != nil {
		return model.Course{}, fmt.Errorf("DTEND: %w", err)
	}

	day := int(start.Weekday())
	if day == 0 {
		day = 7
	}

	room := ev.Location
	if strings.TrimSpace(room) == "" {
		room = model.UnspecifiedRoom
	}

	return model.Course{
		ID:           ev.UID,
		Name:         ev.Summary,
		Room:         room,
		Teacher:      extractTeacher(ev.Description),
		Day:          day,
		StartSection: table.SectionForTime(start.Hour(), start.Minute()),
		Duration:     sectionsFor(end.Sub(start)),
		Color:        model.ColorAt(ordinal),
		Weeks:        extractWeeks(ev.Description),
	}, nil
}

// sectionsFor rounds an event length up to whole nominal sections.
func sectionsFor(d time.Duration) int {
	n := int(math.Ceil(d.Minutes() / minutesPerSection))
	if n < 1 {
		return 1
	}
	return n
}

const stampLayout = "20060102T150405"

// parseStamp reads a compact DATE-TIME as a wall-clock value. A trailing
// "Z" is accepted but not converted; there is no timezone handling.
// All-day DATE values are rejected since they map to no section.
func parseStamp(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	v = strings.TrimSuffix(v, "Z")
	if len(v) != len(stampLayout) || v[8] != 'T' {
		return time.Time{}, fmt.Errorf("malformed timestamp %q", v)
	}
	t, err := time.ParseInLocation(stampLayout, v, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed timestamp %q: %w", v, err)
	}
	return t, nil
}

// extractor mines one field out of a free-text description.
type extractor func(desc string) (string, bool)

func firstMatch(desc string, fallback string, extractors ...extractor) string {
	for _, ex := range extractors {
		if v, ok := ex(desc); ok {
			return v
		}
	}
	return fallback
}

var (
	labeledWeeksRe = regexp.MustCompile(`周数[:：]\s*(\d+-\d+)周`)
	bareRangeRe    = regexp.MustCompile(`(\d+-\d+)`)
	teacherRe      = regexp.MustCompile(`教师[:：]\s*([^;\n]+)`)
)

func regexpExtractor(re *regexp.Regexp) extractor {
	return func(desc string) (string, bool) {
		m := re.FindStringSubmatch(desc)
		if m == nil {
			return "", false
		}
		return m[1], true
	}
}

// extractWeeks: labelled "周数: N-M周", then any bare N-M, then the default.
func extractWeeks(desc string) string {
	return firstMatch(desc, model.DefaultWeeks,
		regexpExtractor(labeledWeeksRe),
		regexpExtractor(bareRangeRe),
	)
}

func extractTeacher(desc string) string {
	return firstMatch(desc, model.UnknownTeacher, func(d string) (string, bool) {
		m := teacherRe.FindStringSubmatch(d)
		if m == nil {
			return "", false
		}
		// Exports from the academic system append "其他" to the name.
		name := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(m[1]), "其他"))
		return name, name != ""
	})
}
