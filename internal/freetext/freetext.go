// Package freetext recognises hand-typed timetable lines such as
//
//	高数,汤老师,110,周三,5-6节,1-16周
//	计算机科学导论 陈教授 301教室 周一 第1-2节 第1-16周
//
// Lines that match no known layout are skipped without error; callers see
// only how many courses came out.
package freetext

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	appLog "coursegrid/internal/log"
	"coursegrid/internal/model"
)

// lineFields are the raw captures shared by every line layout.
type lineFields struct {
	name, teacher, room, weekday, sections, weeks string
}

type matcher struct {
	name string
	re   *regexp.Regexp
}

// matchers are tried in order; the first hit wins. Separators include
// U+3000 and U+00A0, which Chinese input methods often type.
var matchers = []matcher{
	{
		name: "comma",
		re:   regexp.MustCompile(`^(.+?)[,，](.+?)[,，](.+?)[,，](周[一二三四五六日])[,，](\d+-\d+)节[,，](\d+-\d+)周?$`),
	},
	{
		name: "whitespace",
		re:   regexp.MustCompile(`^(.+?)[\s\p{Zs}]+(.+?)[\s\p{Zs}]+(.+?)[\s\p{Zs}]+(周[一二三四五六日])[\s\p{Zs}]+(?:第)?(\d+-\d+)节[\s\p{Zs}]+(?:第)?(\d+-\d+)周?$`),
	},
}

var weekdays = map[string]int{
	"周一": 1,
	"周二": 2,
	"周三": 3,
	"周四": 4,
	"周五": 5,
	"周六": 6,
	"周日": 7,
}

// Parse reads one course per non-blank line. now seeds the generated IDs.
func Parse(text string, now time.Time) []model.Course {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}

	courses := make([]model.Course, 0, len(lines))
	for i, line := range lines {
		c, ok := parseLine(line, i, now)
		if !ok {
			appLog.Debug("freetext: line not recognised", "line_no", i+1)
			continue
		}
		courses = append(courses, c)
	}

	appLog.Info("freetext parse completed", "line_count", len(lines), "course_count", len(courses))
	return courses
}

func parseLine(line string, ordinal int, now time.Time) (model.Course, bool) {
	f, ok := match(line)
	if !ok {
		return model.Course{}, false
	}

	start, end, ok := parseRange(f.sections)
	if !ok || end < start {
		return model.Course{}, false
	}

	return model.Course{
		ID:           fmt.Sprintf("course-%d-%d", now.UnixMilli(), ordinal),
		Name:         strings.TrimSpace(f.name),
		Teacher:      strings.TrimSpace(f.teacher),
		Room:         strings.TrimSpace(f.room),
		Day:          weekdayNumber(f.weekday),
		StartSection: start,
		Duration:     end - start + 1,
		Color:        model.ColorAt(ordinal),
		Weeks:        strings.TrimSpace(f.weeks),
	}, true
}

func match(line string) (lineFields, bool) {
	for _, m := range matchers {
		sub := m.re.FindStringSubmatch(line)
		if sub == nil {
			continue
		}
		return lineFields{
			name:     sub[1],
			teacher:  sub[2],
			room:     sub[3],
			weekday:  sub[4],
			sections: sub[5],
			weeks:    sub[6],
		}, true
	}
	return lineFields{}, false
}

// weekdayNumber maps 周一..周日 to 1..7; anything else is Monday.
func weekdayNumber(token string) int {
	if d, ok := weekdays[token]; ok {
		return d
	}
	return 1
}

func parseRange(s string) (int, int, bool) {
	a, b, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, false
	}
	start, err1 := strconv.Atoi(a)
	end, err2 := strconv.Atoi(b)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return start, end, true
}
