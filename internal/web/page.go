package web

import (
	"embed"
	"html/template"
	"net/http"

	"coursegrid/internal/export"
	"coursegrid/internal/grid"
	appLog "coursegrid/internal/log"
	"coursegrid/internal/model"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var gridTemplate = template.Must(template.ParseFS(templateFS, "templates/grid.html.tmpl"))

type pageCell struct {
	// Skip marks rows swallowed by a rowspan above.
	Skip    bool
	RowSpan int
	Course  *model.Course
	Swatch  model.Swatch
	Dim     bool
}

type pageRow struct {
	Section   int
	StartTime string
	EndTime   string
	Cells     []pageCell
}

type gridPage struct {
	Title       string
	CurrentWeek int
	TotalWeeks  int
	DarkMode    bool
	DayNames    []string
	Rows        []pageRow
}

// buildGridPage turns a layout into table rows. Start cells span their
// course's rows (cut at the table end); covered cells are skipped. Courses
// outside the week are dimmed, or blanked when hideOffWeek is set.
func buildGridPage(l grid.Layout, ds model.DisplaySettings) gridPage {
	page := gridPage{
		Title:       "课程表",
		CurrentWeek: l.CurrentWeek,
		TotalWeeks:  ds.TotalWeeks,
		DarkMode:    ds.DarkMode,
		DayNames:    export.DayNames[:l.Days],
		Rows:        make([]pageRow, 0, len(l.Rows)),
	}

	for i, row := range l.Rows {
		pr := pageRow{
			Section:   l.Sections[i].Section,
			StartTime: l.Sections[i].StartTime,
			EndTime:   l.Sections[i].EndTime,
			Cells:     make([]pageCell, 0, len(row)),
		}
		for _, c := range row {
			switch c.Kind {
			case grid.Covered:
				pr.Cells = append(pr.Cells, pageCell{Skip: true})
			case grid.Start:
				span := c.Span
				if rest := len(l.Rows) - i; span > rest {
					span = rest
				}
				pc := pageCell{RowSpan: span}
				if c.InCurrentWeek || ds.ShowNonCurrentWeek {
					pc.Course = c.Course
					pc.Swatch = model.SwatchFor(c.Course.Color)
					pc.Dim = !c.InCurrentWeek
				}
				pr.Cells = append(pr.Cells, pc)
			default:
				pr.Cells = append(pr.Cells, pageCell{RowSpan: 1})
			}
		}
		page.Rows = append(page.Rows, pr)
	}
	return page
}

// handleGridPage renders the printable weekly grid. The root element
// carries data-ready="true" once the table is in the DOM, which the
// screenshot capture waits for.
//
// GET /grid?week=N|now
func (s *Server) handleGridPage(w http.ResponseWriter, r *http.Request) {
	page := buildGridPage(s.svc.Layout(s.weekParam(r)), s.svc.Settings())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := gridTemplate.Execute(w, page); err != nil {
		appLog.Error("rendering grid page failed", err)
	}
}
