package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeekRange(t *testing.T) {
	wr, err := ParseWeekRange(" 4-9 ")
	require.NoError(t, err)
	assert.Equal(t, WeekRange{Start: 4, End: 9}, wr)
	assert.Equal(t, 6, wr.Count())
	assert.Equal(t, "4-9", wr.String())

	wr, err = ParseWeekRange("7")
	require.NoError(t, err)
	assert.Equal(t, WeekRange{Start: 7, End: 7}, wr)

	for _, bad := range []string{"", "a-b", "9-4", "0-3", "1,3,5"} {
		_, err := ParseWeekRange(bad)
		assert.ErrorIs(t, err, ErrInvalidWeekRange, bad)
	}
}

func TestCourseSpanHelpers(t *testing.T) {
	c := Course{Day: 2, StartSection: 3, Duration: 2, Weeks: "9-16"}
	assert.Equal(t, 4, c.EndSection())
	assert.False(t, c.Occupies(2))
	assert.True(t, c.Occupies(3))
	assert.True(t, c.Occupies(4))
	assert.False(t, c.Occupies(5))

	assert.False(t, c.ActiveInWeek(8))
	assert.True(t, c.ActiveInWeek(9))

	c.Weeks = "odd weeks"
	assert.True(t, c.ActiveInWeek(3))
}

func TestColorAtWraps(t *testing.T) {
	assert.Equal(t, Palette[0], ColorAt(0))
	assert.Equal(t, Palette[0], ColorAt(len(Palette)))
	assert.Equal(t, Palette[2], ColorAt(len(Palette)+2))
}

func TestDisplaySettings(t *testing.T) {
	s := DisplaySettings{TotalWeeks: 0, CurrentWeek: 40, SemesterStartDate: "bogus"}
	s.Normalize()
	assert.Equal(t, 24, s.TotalWeeks)
	assert.Equal(t, 24, s.CurrentWeek)
	assert.Equal(t, "2025-03-02", s.SemesterStartDate)
	assert.Equal(t, 5, s.DayCount())

	s.ShowWeekends = true
	assert.Equal(t, 7, s.DayCount())

	start, err := s.SemesterStart(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 1, s.WeekAt(start))
	assert.Equal(t, 1, s.WeekAt(start.AddDate(0, 0, 6)))
	assert.Equal(t, 2, s.WeekAt(start.AddDate(0, 0, 7)))
	assert.Equal(t, 1, s.WeekAt(start.AddDate(0, 0, -3)))
	assert.Equal(t, 24, s.WeekAt(start.AddDate(1, 0, 0)))
}

func TestSwatchFor(t *testing.T) {
	for _, token := range Palette {
		s := SwatchFor(token)
		assert.NotEmpty(t, s.Fill, token)
	}
	assert.Equal(t, "#DCFCE7", SwatchFor(Palette[1]).Fill)
	assert.Equal(t, SwatchFor(Palette[0]), SwatchFor("no classes here"))
}
