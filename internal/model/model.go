package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sentinel labels used by the importers when a field is absent.
const (
	UnknownTeacher  = "未知"
	UnspecifiedRoom = "未指定"
	DefaultWeeks    = "1-16"
)

// Course is the canonical weekly session record every importer converges
// on. Values are treated as immutable once built.
type Course struct {
	ID           string `json:"id" csv:"id"`
	Name         string `json:"name" csv:"name"`
	Room         string `json:"room" csv:"room"`
	Teacher      string `json:"teacher" csv:"teacher"`
	Day          int    `json:"day" csv:"day"`                   // 1 = Monday, 7 = Sunday
	StartSection int    `json:"startSection" csv:"startSection"` // index into the period table
	Duration     int    `json:"duration" csv:"duration"`         // number of consecutive sections
	Color        string `json:"color" csv:"color"`
	Weeks        string `json:"weeks" csv:"weeks"` // e.g. "1-16"
}

// EndSection is the last section the course occupies.
func (c Course) EndSection() int {
	return c.StartSection + c.Duration - 1
}

// Occupies reports whether the course covers section on its day.
func (c Course) Occupies(section int) bool {
	return section >= c.StartSection && section < c.StartSection+c.Duration
}

// ActiveInWeek reports whether week falls in the course's week range.
// Unparseable ranges count as every week.
func (c Course) ActiveInWeek(week int) bool {
	wr, err := ParseWeekRange(c.Weeks)
	if err != nil {
		return true
	}
	return wr.Contains(week)
}

// Palette is the fixed set of colour tokens assigned to imported courses.
var Palette = []string{
	"bg-blue-100 text-blue-800 border-l-4 border-blue-400",
	"bg-green-100 text-green-800 border-l-4 border-green-400",
	"bg-orange-100 text-orange-800 border-l-4 border-orange-400",
	"bg-red-100 text-red-800 border-l-4 border-red-400",
	"bg-purple-100 text-purple-800 border-l-4 border-purple-400",
	"bg-pink-100 text-pink-800 border-l-4 border-pink-400",
	"bg-yellow-100 text-yellow-800 border-l-4 border-yellow-400",
	"bg-teal-100 text-teal-800 border-l-4 border-teal-400",
	"bg-indigo-100 text-indigo-800 border-l-4 border-indigo-400",
}

// ColorAt picks a palette entry by ordinal, wrapping around.
// Colours follow input position, not course identity.
func ColorAt(ordinal int) string {
	if ordinal < 0 {
		ordinal = -ordinal
	}
	return Palette[ordinal%len(Palette)]
}

// WeekRange is an inclusive 1-based range of semester weeks.
type WeekRange struct {
	Start int
	End   int
}

var ErrInvalidWeekRange = errors.New("invalid week range")

// ParseWeekRange parses "N-M". A single "N" is accepted as N-N.
func ParseWeekRange(s string) (WeekRange, error) {
	s = strings.TrimSpace(s)
	a, b, found := strings.Cut(s, "-")
	if !found {
		b = a
	}
	start, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return WeekRange{}, fmt.Errorf("%w: %q", ErrInvalidWeekRange, s)
	}
	end, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil {
		return WeekRange{}, fmt.Errorf("%w: %q", ErrInvalidWeekRange, s)
	}
	if start < 1 || end < start {
		return WeekRange{}, fmt.Errorf("%w: %q", ErrInvalidWeekRange, s)
	}
	return WeekRange{Start: start, End: end}, nil
}

func (w WeekRange) Contains(week int) bool {
	return week >= w.Start && week <= w.End
}

// Count is the number of weeks in the range.
func (w WeekRange) Count() int {
	return w.End - w.Start + 1
}

func (w WeekRange) String() string {
	return fmt.Sprintf("%d-%d", w.Start, w.End)
}
