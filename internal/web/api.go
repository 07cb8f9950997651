package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"coursegrid/internal/export"
	"coursegrid/internal/grid"
	"coursegrid/internal/importer"
	appLog "coursegrid/internal/log"
	"coursegrid/internal/model"
	"coursegrid/internal/period"
	"coursegrid/internal/schedule"
)

type coursesResponse struct {
	Courses []model.Course `json:"courses"`
}

type importResponse struct {
	Format  importer.Format `json:"format"`
	Count   int             `json:"count"`
	Courses []model.Course  `json:"courses"`
}

type cellDTO struct {
	Day           int           `json:"day"`
	Section       int           `json:"section"`
	Kind          string        `json:"kind"`
	Span          int           `json:"span,omitempty"`
	InCurrentWeek bool          `json:"inCurrentWeek,omitempty"`
	Course        *model.Course `json:"course,omitempty"`
}

type gridResponse struct {
	Days        int           `json:"days"`
	CurrentWeek int           `json:"currentWeek"`
	Sections    []period.Slot `json:"sections"`
	Cells       [][]cellDTO   `json:"cells"`
}

type agendaResponse struct {
	Day    int                `json:"day"`
	Groups []grid.AgendaGroup `json:"groups"`
}

type occurrenceDTO struct {
	CourseID string `json:"courseId"`
	Name     string `json:"name"`
	Room     string `json:"room"`
	Teacher  string `json:"teacher"`
	Week     int    `json:"week"`
	Start    string `json:"start"`
	End      string `json:"end"`
}

type overlapDTO struct {
	Day        int    `json:"day"`
	First      string `json:"first"`
	FirstName  string `json:"firstName"`
	Second     string `json:"second"`
	SecondName string `json:"secondName"`
}

func (s *Server) handleCourses(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, coursesResponse{Courses: s.svc.Courses()})
}

// handleImport replaces the course list from an uploaded document.
//
// POST /api/import?format=ics|json|csv|text
//   - body: the raw document, or multipart/form-data with a "file" part
//   - format may be omitted for multipart uploads; it is then taken from
//     the file extension.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	data, filename, err := readUpload(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	format, err := resolveFormat(r.URL.Query().Get("format"), filename)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	courses, err := s.svc.Import(r.Context(), format, data)
	if err != nil {
		switch {
		case errors.Is(err, schedule.ErrPersist):
			writeError(w, http.StatusInternalServerError, "failed to save courses")
		default:
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, importResponse{Format: format, Count: len(courses), Courses: courses})
}

func readUpload(r *http.Request) ([]byte, string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", fmt.Errorf("missing file part: %w", err)
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		return data, header.Filename, err
	}
	data, err := io.ReadAll(r.Body)
	return data, "", err
}

func resolveFormat(param, filename string) (importer.Format, error) {
	if param != "" {
		return importer.ParseFormat(param)
	}
	if filename != "" {
		return importer.DetectFormat(filename)
	}
	return "", errors.New("format is required")
}

// handleExport downloads the course list.
//
// GET /api/export?format=json|csv|ics|xlsx (default json)
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := export.Render(format, export.Input{
		Courses:  s.svc.Courses(),
		Settings: s.svc.Settings(),
		Periods:  s.svc.Periods(),
		Now:      s.now(),
	})
	if err != nil {
		appLog.Error("export failed", err, "format", format)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, format.Filename()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleGrid returns the placed grid.
//
// GET /api/grid?week=N|now (default: the settings' current week)
func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toGridResponse(s.svc.Layout(s.weekParam(r))))
}

// weekParam reads ?week=. "now" is the week containing today's date;
// anything else unparsable means the settings' current week.
func (s *Server) weekParam(r *http.Request) int {
	v := r.URL.Query().Get("week")
	if v == "now" {
		return s.svc.WeekNow()
	}
	return parseIntDefault(v, 0)
}

func toGridResponse(l grid.Layout) gridResponse {
	resp := gridResponse{
		Days:        l.Days,
		CurrentWeek: l.CurrentWeek,
		Sections:    l.Sections,
		Cells:       make([][]cellDTO, 0, len(l.Rows)),
	}
	for _, row := range l.Rows {
		cells := make([]cellDTO, 0, len(row))
		for _, c := range row {
			cells = append(cells, cellDTO{
				Day:           c.Day,
				Section:       c.Section,
				Kind:          c.Kind.String(),
				Span:          c.Span,
				InCurrentWeek: c.InCurrentWeek,
				Course:        c.Course,
			})
		}
		resp.Cells = append(resp.Cells, cells)
	}
	return resp
}

// handleAgenda returns the daily view.
//
// GET /api/agenda?day=1..7 (default: today)
func (s *Server) handleAgenda(w http.ResponseWriter, r *http.Request) {
	day := parseIntDefault(r.URL.Query().Get("day"), s.svc.Today())
	if day < 1 || day > 7 {
		writeError(w, http.StatusBadRequest, "day must be between 1 and 7")
		return
	}
	writeJSON(w, http.StatusOK, agendaResponse{Day: day, Groups: s.svc.Agenda(day)})
}

func (s *Server) handleOverlaps(w http.ResponseWriter, _ *http.Request) {
	overlaps := s.svc.Overlaps()
	out := make([]overlapDTO, 0, len(overlaps))
	for _, o := range overlaps {
		out = append(out, overlapDTO{
			Day:        o.Day,
			First:      o.First.ID,
			FirstName:  o.First.Name,
			Second:     o.Second.ID,
			SecondName: o.Second.Name,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// occurrenceLayout is the wall-clock format of occurrence times; sessions
// carry no zone.
const occurrenceLayout = "2006-01-02T15:04"

// handleOccurrences lists dated sessions.
//
// GET /api/occurrences?from=2025-03-03&to=2025-03-09 (default: the 7 days
// starting today)
func (s *Server) handleOccurrences(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	today := s.now()
	from := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7).Add(-time.Minute)

	var err error
	if v := q.Get("from"); v != "" {
		if from, err = time.Parse(model.SemesterDateLayout, v); err != nil {
			writeError(w, http.StatusBadRequest, "invalid from date")
			return
		}
	}
	if v := q.Get("to"); v != "" {
		var day time.Time
		if day, err = time.Parse(model.SemesterDateLayout, v); err != nil {
			writeError(w, http.StatusBadRequest, "invalid to date")
			return
		}
		to = day.AddDate(0, 0, 1).Add(-time.Minute)
	}

	occ, err := s.svc.Occurrences(from, to)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out := make([]occurrenceDTO, 0, len(occ))
	for _, o := range occ {
		out = append(out, occurrenceDTO{
			CourseID: o.CourseID,
			Name:     o.Name,
			Room:     o.Room,
			Teacher:  o.Teacher,
			Week:     o.Week,
			Start:    o.Start.Format(occurrenceLayout),
			End:      o.End.Format(occurrenceLayout),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Settings())
}

// handlePutSettings applies a full or partial settings document; fields
// left out keep their current values.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)

	next := s.svc.Settings()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&next); err != nil {
		writeError(w, http.StatusBadRequest, "invalid settings: "+err.Error())
		return
	}

	saved, err := s.svc.UpdateSettings(r.Context(), next)
	if err != nil {
		appLog.Error("saving settings failed", err)
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
