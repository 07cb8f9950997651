// Package period holds the school's fixed period table: numbered teaching
// slots with wall-clock start and end times.
package period

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Slot is one numbered teaching period.
type Slot struct {
	Section   int    `yaml:"section" json:"section"`
	StartTime string `yaml:"start" json:"startTime"`
	EndTime   string `yaml:"end" json:"endTime"`
}

// Table is ordered by Section, numbered exactly 1..N.
type Table []Slot

// defaultSlots is the 14-period day with lunch and dinner breaks.
var defaultSlots = Table{
	{Section: 1, StartTime: "08:00", EndTime: "08:45"},
	{Section: 2, StartTime: "08:55", EndTime: "09:40"},
	{Section: 3, StartTime: "10:00", EndTime: "10:45"},
	{Section: 4, StartTime: "10:55", EndTime: "11:40"},
	{Section: 5, StartTime: "13:30", EndTime: "14:15"},
	{Section: 6, StartTime: "14:25", EndTime: "15:10"},
	{Section: 7, StartTime: "15:20", EndTime: "16:05"},
	{Section: 8, StartTime: "16:15", EndTime: "17:00"},
	{Section: 9, StartTime: "18:00", EndTime: "18:45"},
	{Section: 10, StartTime: "18:55", EndTime: "19:40"},
	{Section: 11, StartTime: "19:50", EndTime: "20:35"},
	{Section: 12, StartTime: "20:45", EndTime: "21:30"},
	{Section: 13, StartTime: "21:40", EndTime: "22:25"},
	{Section: 14, StartTime: "22:35", EndTime: "23:20"},
}

// Default returns a copy of the built-in period table.
func Default() Table {
	out := make(Table, len(defaultSlots))
	copy(out, defaultSlots)
	return out
}

// MaxSection returns the highest section number, 0 for an empty table.
func (t Table) MaxSection() int {
	if len(t) == 0 {
		return 0
	}
	return t[len(t)-1].Section
}

// SlotForSection looks up section n.
func (t Table) SlotForSection(n int) (Slot, bool) {
	// Sections are 1..N, so the index is direct once validated.
	if n >= 1 && n <= len(t) && t[n-1].Section == n {
		return t[n-1], true
	}
	for _, s := range t {
		if s.Section == n {
			return s, true
		}
	}
	return Slot{}, false
}

// SectionAtOrAfter returns the first section starting at or after hh:mm,
// or the last section when every slot starts earlier.
func (t Table) SectionAtOrAfter(hour, minute int) int {
	if len(t) == 0 {
		return 1
	}
	target := hour*60 + minute
	for _, s := range t {
		start, err := Minutes(s.StartTime)
		if err != nil {
			continue
		}
		if start >= target {
			return s.Section
		}
	}
	return t[len(t)-1].Section
}

// SectionForTime prefers a slot starting exactly at hh:mm and otherwise
// falls back to SectionAtOrAfter.
func (t Table) SectionForTime(hour, minute int) int {
	want := fmt.Sprintf("%02d:%02d", hour, minute)
	for _, s := range t {
		if s.StartTime == want {
			return s.Section
		}
	}
	return t.SectionAtOrAfter(hour, minute)
}

// Validate checks 1..N numbering and HH:MM times.
func (t Table) Validate() error {
	if len(t) == 0 {
		return errors.New("period table is empty")
	}
	for i, s := range t {
		if s.Section != i+1 {
			return fmt.Errorf("period table: slot %d has section %d, want %d", i, s.Section, i+1)
		}
		start, err := Minutes(s.StartTime)
		if err != nil {
			return fmt.Errorf("period table: section %d start: %w", s.Section, err)
		}
		end, err := Minutes(s.EndTime)
		if err != nil {
			return fmt.Errorf("period table: section %d end: %w", s.Section, err)
		}
		if end <= start {
			return fmt.Errorf("period table: section %d ends before it starts", s.Section)
		}
	}
	return nil
}

// Minutes converts "HH:MM" into minutes after midnight.
func Minutes(hhmm string) (int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(hhmm), ":")
	if !ok {
		return 0, fmt.Errorf("invalid time %q", hhmm)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", hhmm)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", hhmm)
	}
	return hour*60 + minute, nil
}
