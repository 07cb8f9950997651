package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	appLog "coursegrid/internal/log"
	"coursegrid/internal/model"
	"coursegrid/internal/period"
)

const productID = "-//coursegrid//timetable export//ZH"

// ExportOptions controls how a course set is turned into a calendar.
type ExportOptions struct {
	// SemesterStart is any date inside week 1. Sessions are anchored on the
	// Monday of that week.
	SemesterStart time.Time
	// Periods maps sections to wall-clock times.
	Periods period.Table
	// Now stamps DTSTAMP. Zero means time.Now().
	Now time.Time
}

// Export renders courses as a VCALENDAR with one weekly-recurring VEVENT
// per course. Times are written as floating local times, which is what
// Parse reads back.
func Export(courses []model.Course, opts ExportOptions) (string, error) {
	if opts.SemesterStart.IsZero() {
		return "", fmt.Errorf("export: semester start is required")
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for _, c := range courses {
		start, end, weeks, err := sessionBounds(c, opts.SemesterStart, opts.Periods)
		if err != nil {
			appLog.Error("ics export: skipping course", err, "id", c.ID, "name", c.Name)
			continue
		}

		rule, err := weeklyRule(weeks.Count(), time.Time{})
		if err != nil {
			appLog.Error("ics export: building rrule failed", err, "id", c.ID)
			continue
		}

		ev := cal.AddEvent(c.ID)
		ev.SetDtStampTime(opts.Now)
		ev.SetProperty(ical.ComponentPropertyDtStart, start.Format(stampLayout))
		ev.SetProperty(ical.ComponentPropertyDtEnd, end.Format(stampLayout))
		ev.SetSummary(c.Name)
		ev.SetLocation(c.Room)
		ev.SetDescription(fmt.Sprintf("教师: %s; 周数: %s周", c.Teacher, weeks))
		ev.AddRrule(rule.OrigOptions.RRuleString())
	}

	return cal.Serialize(), nil
}

// sessionBounds finds the first dated session of c: the course's day in
// the first week of its range, with wall-clock times from the table.
func sessionBounds(c model.Course, semesterStart time.Time, table period.Table) (time.Time, time.Time, model.WeekRange, error) {
	if c.Day < 1 || c.Day > 7 {
		return time.Time{}, time.Time{}, model.WeekRange{}, fmt.Errorf("day %d out of range", c.Day)
	}
	weeks, err := model.ParseWeekRange(c.Weeks)
	if err != nil {
		weeks, _ = model.ParseWeekRange(model.DefaultWeeks)
	}

	date := dayInWeek(semesterStart, weeks.Start, c.Day)

	first, ok := table.SlotForSection(c.StartSection)
	if !ok {
		return time.Time{}, time.Time{}, weeks, fmt.Errorf("start section %d not in period table", c.StartSection)
	}
	startMin, err := period.Minutes(first.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, weeks, err
	}
	start := date.Add(time.Duration(startMin) * time.Minute)

	// Sessions running past the table keep the nominal 45 minute length.
	end := start.Add(time.Duration(c.Duration*minutesPerSection) * time.Minute)
	if last, ok := table.SlotForSection(c.EndSection()); ok {
		if endMin, err := period.Minutes(last.EndTime); err == nil {
			end = date.Add(time.Duration(endMin) * time.Minute)
		}
	}
	return start, end, weeks, nil
}

// dayInWeek returns midnight of weekday (1 = Monday) in the given 1-based
// semester week, in UTC wall-clock terms.
func dayInWeek(semesterStart time.Time, week, weekday int) time.Time {
	d := time.Date(semesterStart.Year(), semesterStart.Month(), semesterStart.Day(), 0, 0, 0, 0, time.UTC)
	offset := int(d.Weekday()) - 1
	if offset < 0 {
		offset = 6 // Sunday
	}
	monday := d.AddDate(0, 0, -offset)
	return monday.AddDate(0, 0, (week-1)*7+weekday-1)
}

func weeklyRule(count int, dtstart time.Time) (*rrule.RRule, error) {
	if count < 1 {
		count = 1
	}
	return rrule.NewRRule(rrule.ROption{
		Freq:    rrule.WEEKLY,
		Count:   count,
		Dtstart: dtstart,
	})
}
