package grid

import (
	"coursegrid/internal/model"
	"coursegrid/internal/period"
)

// Group is a named block of sections in the daily view.
type Group struct {
	Name  string `yaml:"name" json:"name"`
	First int    `yaml:"first" json:"first"`
	Last  int    `yaml:"last" json:"last"`
}

// DefaultGroups splits the day into morning, afternoon and evening.
func DefaultGroups() []Group {
	return []Group{
		{Name: "上午课程", First: 1, Last: 4},
		{Name: "下午课程", First: 5, Last: 8},
		{Name: "晚上课程", First: 9, Last: 12},
	}
}

// AgendaItem is either a course block or a single free section.
type AgendaItem struct {
	Free         bool          `json:"free"`
	Course       *model.Course `json:"course,omitempty"`
	StartSection int           `json:"startSection"`
	EndSection   int           `json:"endSection"`
	StartTime    string        `json:"startTime"`
	EndTime      string        `json:"endTime"`
}

// AgendaGroup is one group with its items in section order.
type AgendaGroup struct {
	Name  string       `json:"name"`
	Items []AgendaItem `json:"items"`
}

// Agenda builds the single-day timeline. Within each group it walks the
// sections: a course starting at the cursor becomes one block and moves the
// cursor past its duration, otherwise the section is listed as free.
// Sections missing from the table are skipped.
func Agenda(courses []model.Course, day int, table period.Table, groups []Group) []AgendaGroup {
	var today []model.Course
	for _, c := range courses {
		if c.Day == day {
			today = append(today, c)
		}
	}

	out := make([]AgendaGroup, 0, len(groups))
	for _, g := range groups {
		ag := AgendaGroup{Name: g.Name, Items: []AgendaItem{}}

		for sec := g.First; sec <= g.Last; {
			slot, ok := table.SlotForSection(sec)
			if !ok {
				sec++
				continue
			}

			c := startingAt(today, sec)
			if c == nil {
				ag.Items = append(ag.Items, AgendaItem{
					Free:         true,
					StartSection: sec,
					EndSection:   sec,
					StartTime:    slot.StartTime,
					EndTime:      slot.EndTime,
				})
				sec++
				continue
			}

			item := AgendaItem{
				Course:       c,
				StartSection: c.StartSection,
				EndSection:   c.EndSection(),
				StartTime:    slot.StartTime,
			}
			if last, ok := table.SlotForSection(c.EndSection()); ok {
				item.EndTime = last.EndTime
			}
			ag.Items = append(ag.Items, item)

			step := c.Duration
			if step < 1 {
				step = 1
			}
			sec += step
		}
		out = append(out, ag)
	}
	return out
}

func startingAt(courses []model.Course, section int) *model.Course {
	for i := range courses {
		if courses[i].StartSection == section {
			return &courses[i]
		}
	}
	return nil
}
