package ics

import (
	"errors"
	"sort"
	"time"

	appLog "coursegrid/internal/log"
	"coursegrid/internal/model"
	"coursegrid/internal/period"
)

const defaultMaxOccurrencesPerCourse = 64

// Occurrence is one dated session of a course.
type Occurrence struct {
	CourseID string
	Name     string
	Room     string
	Teacher  string
	Week     int
	Start    time.Time
	End      time.Time
}

// ExpandConfig controls Occurrences.
type ExpandConfig struct {
	SemesterStart time.Time
	Periods       period.Table

	// RangeStart / RangeEnd bound the returned sessions (inclusive).
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerCourse caps each course's expansion. Zero means
	// defaultMaxOccurrencesPerCourse.
	MaxOccurrencesPerCourse int
}

// Occurrences expands each course's week range into dated sessions within
// [RangeStart, RangeEnd], sorted by start time. Courses whose sections are
// missing from the table are skipped with a log line.
func Occurrences(courses []model.Course, cfg ExpandConfig) ([]Occurrence, error) {
	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return nil, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.MaxOccurrencesPerCourse <= 0 {
		cfg.MaxOccurrencesPerCourse = defaultMaxOccurrencesPerCourse
	}

	// Session times are UTC wall clock; compare the range on the same basis.
	rangeStart := wallClockUTC(cfg.RangeStart)
	rangeEnd := wallClockUTC(cfg.RangeEnd)

	out := make([]Occurrence, 0)
	for _, c := range courses {
		start, end, weeks, err := sessionBounds(c, cfg.SemesterStart, cfg.Periods)
		if err != nil {
			appLog.Debug("expand: skipping course", "id", c.ID, "reason", err.Error())
			continue
		}

		count := weeks.Count()
		if count > cfg.MaxOccurrencesPerCourse {
			appLog.Error("expand: truncated occurrences for course due to cap",
				errors.New("max occurrences reached"),
				"id", c.ID,
				"cap", cfg.MaxOccurrencesPerCourse,
			)
			count = cfg.MaxOccurrencesPerCourse
		}

		r, err := weeklyRule(count, start)
		if err != nil {
			appLog.Error("expand: failed to build rrule", err, "id", c.ID)
			continue
		}
		length := end.Sub(start)

		for _, occStart := range r.Between(rangeStart, rangeEnd, true) {
			out = append(out, Occurrence{
				CourseID: c.ID,
				Name:     c.Name,
				Room:     c.Room,
				Teacher:  c.Teacher,
				Week:     weeks.Start + int(occStart.Sub(start).Hours()/(24*7)),
				Start:    occStart,
				End:      occStart.Add(length),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out, nil
}

func wallClockUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
