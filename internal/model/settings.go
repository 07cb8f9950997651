package model

import (
	"time"
)

// SemesterDateLayout is the format of DisplaySettings.SemesterStartDate.
const SemesterDateLayout = "2006-01-02"

// DisplaySettings are the user-facing view options. Placement only reads
// the day count and current week; the rest are passed through.
type DisplaySettings struct {
	ShowWeekends       bool   `yaml:"show_weekends" json:"showWeekends"`
	ShowNonCurrentWeek bool   `yaml:"show_non_current_week" json:"showNonCurrentWeek"`
	DarkMode           bool   `yaml:"dark_mode" json:"darkMode"`
	SemesterStartDate  string `yaml:"semester_start_date" json:"semesterStartDate"`
	TotalWeeks         int    `yaml:"total_weeks" json:"totalWeeks"`
	CurrentWeek        int    `yaml:"current_week" json:"currentWeek"`
	WeekStartOnSunday  bool   `yaml:"week_start_on_sunday" json:"weekStartOnSunday"`
}

// DefaultSettings mirrors the app's first-run state.
func DefaultSettings() DisplaySettings {
	return DisplaySettings{
		ShowWeekends:       false,
		ShowNonCurrentWeek: true,
		SemesterStartDate:  "2025-03-02",
		TotalWeeks:         24,
		CurrentWeek:        1,
	}
}

// Normalize clamps numeric fields into usable ranges.
func (s *DisplaySettings) Normalize() {
	if s.TotalWeeks <= 0 {
		s.TotalWeeks = 24
	}
	if s.CurrentWeek < 1 {
		s.CurrentWeek = 1
	}
	if s.CurrentWeek > s.TotalWeeks {
		s.CurrentWeek = s.TotalWeeks
	}
	if _, err := time.Parse(SemesterDateLayout, s.SemesterStartDate); err != nil {
		s.SemesterStartDate = "2025-03-02"
	}
}

// DayCount is 7 with weekends shown, otherwise 5.
func (s DisplaySettings) DayCount() int {
	if s.ShowWeekends {
		return 7
	}
	return 5
}

// SemesterStart parses SemesterStartDate in loc (time.Local if nil).
func (s DisplaySettings) SemesterStart(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(SemesterDateLayout, s.SemesterStartDate, loc)
}

// WeekAt returns the 1-based semester week containing t, clamped to
// [1, TotalWeeks].
func (s DisplaySettings) WeekAt(t time.Time) int {
	start, err := s.SemesterStart(t.Location())
	if err != nil {
		return 1
	}
	days := int(t.Sub(start).Hours() / 24)
	week := 1
	if days > 0 {
		week = days/7 + 1
	}
	if s.TotalWeeks > 0 && week > s.TotalWeeks {
		week = s.TotalWeeks
	}
	return week
}
