package freetext

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursegrid/internal/model"
)

var now = time.UnixMilli(1767225600000)

func TestParseCommaLine(t *testing.T) {
	courses := Parse("高数,汤老师,110,周三,5-6节,1-16周", now)
	require.Len(t, courses, 1)

	c := courses[0]
	assert.Equal(t, "高数", c.Name)
	assert.Equal(t, "汤老师", c.Teacher)
	assert.Equal(t, "110", c.Room)
	assert.Equal(t, 3, c.Day)
	assert.Equal(t, 5, c.StartSection)
	assert.Equal(t, 2, c.Duration)
	assert.Equal(t, "1-16", c.Weeks)
	assert.Equal(t, "course-1767225600000-0", c.ID)
	assert.Equal(t, model.Palette[0], c.Color)
}

func TestParseMixedLayouts(t *testing.T) {
	text := "\n" +
		"计算机科学导论，陈教授，301教室，周一，1-2节，1-16周\r\n" +
		"   \n" +
		"this line is not a course\n" +
		"数据结构与算法 戴教授 204机房 周二 第3-4节 第1-16周\n" +
		"艺术史 金教授 B栋报告厅 周日 6-7节 9-16\n"

	courses := Parse(text, now)
	require.Len(t, courses, 3)

	assert.Equal(t, "计算机科学导论", courses[0].Name)
	assert.Equal(t, 1, courses[0].Day)

	assert.Equal(t, "数据结构与算法", courses[1].Name)
	assert.Equal(t, "戴教授", courses[1].Teacher)
	assert.Equal(t, "204机房", courses[1].Room)
	assert.Equal(t, 2, courses[1].Day)
	assert.Equal(t, 3, courses[1].StartSection)
	assert.Equal(t, 2, courses[1].Duration)
	// Ordinal counts non-blank lines, including the unrecognised one.
	assert.Equal(t, model.Palette[2], courses[1].Color)
	assert.Equal(t, "course-1767225600000-2", courses[1].ID)

	assert.Equal(t, 7, courses[2].Day)
	assert.Equal(t, "9-16", courses[2].Weeks)
}

func TestUnmatchedLineDoesNotDisturbOthers(t *testing.T) {
	good := "高数,汤老师,110,周三,5-6节,1-16周"
	alone := Parse(good, now)
	withNoise := Parse("garbage,,,\n"+good, now)

	require.Len(t, alone, 1)
	require.Len(t, withNoise, 1)
	assert.Equal(t, alone[0].Day, withNoise[0].Day)
	assert.Equal(t, alone[0].StartSection, withNoise[0].StartSection)
	assert.Equal(t, alone[0].Duration, withNoise[0].Duration)
}

func TestParseRejectsReversedSections(t *testing.T) {
	assert.Empty(t, Parse("高数,汤老师,110,周三,6-5节,1-16周", now))
}

func TestWeekdayNumber(t *testing.T) {
	assert.Equal(t, 4, weekdayNumber("周四"))
	assert.Equal(t, 1, weekdayNumber("周八"))
}

func TestParseEmpty(t *testing.T) {
	assert.Empty(t, Parse("", now))
	assert.Empty(t, Parse("\n\n", now))
}

func TestParseWideSpaceSeparators(t *testing.T) {
	for name, sep := range map[string]string{"ideographic": "\u3000", "nbsp": "\u00a0"} {
		t.Run(name, func(t *testing.T) {
			line := "高数" + sep + "汤老师" + sep + "110" + sep + "周三" + sep + "第5-6节" + sep + "第1-16周"
			courses := Parse(line, now)
			require.Len(t, courses, 1)

			c := courses[0]
			assert.Equal(t, "高数", c.Name)
			assert.Equal(t, "汤老师", c.Teacher)
			assert.Equal(t, 3, c.Day)
			assert.Equal(t, 5, c.StartSection)
			assert.Equal(t, 2, c.Duration)
			assert.Equal(t, "1-16", c.Weeks)
		})
	}
}
