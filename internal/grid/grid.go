// Package grid lays courses onto the weekly day × section grid.
//
// Each cell is classified on its own, with no scan state carried between
// cells:
//
//   - Covered: some course on that day started earlier and is still running.
//   - Start:   some course on that day starts here (first one in input order).
//   - Empty:   otherwise.
//
// Two courses on the same day with intersecting sections are not resolved;
// the first one wins the cell and Overlaps reports the pair.
package grid

import (
	"coursegrid/internal/model"
	"coursegrid/internal/period"
)

// Kind classifies one cell.
type Kind int

const (
	Empty Kind = iota
	Start
	Covered
)

func (k Kind) String() string {
	switch k {
	case Start:
		return "start"
	case Covered:
		return "covered"
	default:
		return "empty"
	}
}

// Cell is one (day, section) position.
type Cell struct {
	Day     int
	Section int
	Kind    Kind

	// Set only for Start cells.
	Course *model.Course
	// Span is the number of rows a Start cell occupies (the course duration).
	Span int
	// InCurrentWeek reports whether the course runs in the layout's week.
	InCurrentWeek bool
}

// Layout is the placement result. Rows[i] holds section i+1; each row has
// one cell per displayed day.
type Layout struct {
	Days        int
	Sections    []period.Slot
	CurrentWeek int
	Rows        [][]Cell
}

// Place classifies every cell for days 1..dayCount and every section in the
// table. Courses starting outside the table never produce a Start cell.
func Place(courses []model.Course, dayCount int, table period.Table, currentWeek int) Layout {
	if dayCount < 1 {
		dayCount = 1
	}
	if dayCount > 7 {
		dayCount = 7
	}

	layout := Layout{
		Days:        dayCount,
		Sections:    table,
		CurrentWeek: currentWeek,
		Rows:        make([][]Cell, len(table)),
	}

	for i, slot := range table {
		row := make([]Cell, dayCount)
		for d := 1; d <= dayCount; d++ {
			row[d-1] = CellAt(courses, d, slot.Section, currentWeek)
		}
		layout.Rows[i] = row
	}
	return layout
}

// CellAt classifies a single position.
func CellAt(courses []model.Course, day, section, currentWeek int) Cell {
	cell := Cell{Day: day, Section: section, Kind: Empty}

	for i := range courses {
		c := &courses[i]
		if c.Day == day && c.StartSection < section && section < c.StartSection+c.Duration {
			cell.Kind = Covered
			return cell
		}
	}

	for i := range courses {
		c := &courses[i]
		if c.Day == day && c.StartSection == section {
			cell.Kind = Start
			cell.Course = c
			cell.Span = c.Duration
			cell.InCurrentWeek = c.ActiveInWeek(currentWeek)
			return cell
		}
	}
	return cell
}

// Cell returns the cell at (day, section), ok=false when outside the layout.
func (l Layout) Cell(day, section int) (Cell, bool) {
	if day < 1 || day > l.Days || section < 1 || section > len(l.Rows) {
		return Cell{}, false
	}
	return l.Rows[section-1][day-1], true
}

// Starts lists Start cells in row-major order.
func (l Layout) Starts() []Cell {
	var out []Cell
	for _, row := range l.Rows {
		for _, c := range row {
			if c.Kind == Start {
				out = append(out, c)
			}
		}
	}
	return out
}

// Overlap is a pair of same-day courses whose section ranges intersect.
type Overlap struct {
	Day    int
	First  model.Course
	Second model.Course
}

// Overlaps reports every intersecting same-day pair, in input order.
func Overlaps(courses []model.Course) []Overlap {
	var out []Overlap
	for i := 0; i < len(courses); i++ {
		a := courses[i]
		for j := i + 1; j < len(courses); j++ {
			b := courses[j]
			if a.Day != b.Day {
				continue
			}
			if a.StartSection <= b.EndSection() && b.StartSection <= a.EndSection() {
				out = append(out, Overlap{Day: a.Day, First: a, Second: b})
			}
		}
	}
	return out
}
