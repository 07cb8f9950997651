// Package schedule owns the live course set and display settings shared by
// the HTTP handlers and the subscription refresher.
package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"coursegrid/internal/grid"
	"coursegrid/internal/ics"
	"coursegrid/internal/importer"
	appLog "coursegrid/internal/log"
	"coursegrid/internal/metrics"
	"coursegrid/internal/model"
	"coursegrid/internal/period"
	"coursegrid/internal/store"
	"coursegrid/internal/structured"
)

// ErrPersist marks failures to write the store, as opposed to bad input.
var ErrPersist = errors.New("schedule: persist failed")

// Service holds the current course list behind an atomic pointer. Imports
// build the whole new list, persist it, then swap; readers never see a
// partially applied import.
type Service struct {
	store   store.Store
	periods period.Table
	groups  []grid.Group
	metrics *metrics.Metrics
	now     func() time.Time

	writeMu  sync.Mutex
	courses  atomic.Pointer[[]model.Course]
	settings atomic.Pointer[model.DisplaySettings]
}

// Options configures a Service.
type Options struct {
	Store    store.Store
	Periods  period.Table
	Groups   []grid.Group
	Settings model.DisplaySettings
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

func NewService(opts Options) *Service {
	if opts.Store == nil {
		opts.Store = store.NewMemoryStore()
	}
	if len(opts.Periods) == 0 {
		opts.Periods = period.Default()
	}
	if len(opts.Groups) == 0 {
		opts.Groups = grid.DefaultGroups()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.Settings.Normalize()

	s := &Service{
		store:   opts.Store,
		periods: opts.Periods,
		groups:  opts.Groups,
		metrics: opts.Metrics,
		now:     opts.Now,
	}
	empty := []model.Course{}
	s.courses.Store(&empty)
	settings := opts.Settings
	s.settings.Store(&settings)
	return s
}

// Load restores courses and settings from the store. Missing keys keep the
// current values; a corrupt value is an error.
func (s *Service) Load(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	raw, ok, err := s.store.Get(ctx, store.KeyCourses)
	if err != nil {
		return fmt.Errorf("load courses: %w", err)
	}
	if ok {
		courses, err := structured.ParseJSON(raw)
		if err != nil {
			return fmt.Errorf("load courses: %w", err)
		}
		s.courses.Store(&courses)
	}

	raw, ok, err = s.store.Get(ctx, store.KeySettings)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if ok {
		var ds model.DisplaySettings
		if err := json.Unmarshal(raw, &ds); err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		ds.Normalize()
		s.settings.Store(&ds)
	}

	appLog.Info("schedule loaded", "course_count", len(s.Courses()))
	return nil
}

// Courses returns the current list. Callers must not modify it.
func (s *Service) Courses() []model.Course {
	return *s.courses.Load()
}

func (s *Service) Settings() model.DisplaySettings {
	return *s.settings.Load()
}

func (s *Service) Periods() period.Table {
	return s.periods
}

// Import parses data and, on success, replaces the whole course list.
// On any failure the stored and in-memory lists are left untouched.
func (s *Service) Import(ctx context.Context, format importer.Format, data []byte) ([]model.Course, error) {
	courses, err := importer.Import(format, data, importer.Options{Periods: s.periods, Now: s.now})
	if err != nil {
		s.metrics.ObserveImport(string(format), 0, err)
		appLog.Error("import failed", err, "format", format)
		return nil, err
	}

	if err := s.Replace(ctx, courses); err != nil {
		s.metrics.ObserveImport(string(format), 0, err)
		return nil, err
	}

	s.metrics.ObserveImport(string(format), len(courses), nil)
	appLog.Info("import applied", "format", format, "course_count", len(courses))
	return courses, nil
}

// Replace persists courses and then makes them current.
func (s *Service) Replace(ctx context.Context, courses []model.Course) error {
	data, err := structured.SerializeJSON(courses)
	if err != nil {
		return fmt.Errorf("encode courses: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.store.Set(ctx, store.KeyCourses, data); err != nil {
		return fmt.Errorf("%w: save courses: %w", ErrPersist, err)
	}
	next := append([]model.Course(nil), courses...)
	s.courses.Store(&next)
	return nil
}

// UpdateSettings normalizes, persists and applies new display settings.
func (s *Service) UpdateSettings(ctx context.Context, ds model.DisplaySettings) (model.DisplaySettings, error) {
	ds.Normalize()
	data, err := json.Marshal(ds)
	if err != nil {
		return model.DisplaySettings{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.store.Set(ctx, store.KeySettings, data); err != nil {
		return model.DisplaySettings{}, fmt.Errorf("%w: save settings: %w", ErrPersist, err)
	}
	s.settings.Store(&ds)
	return ds, nil
}

// Layout places the current courses. week <= 0 means the settings' current
// week.
func (s *Service) Layout(week int) grid.Layout {
	ds := s.Settings()
	if week <= 0 {
		week = ds.CurrentWeek
	}
	return grid.Place(s.Courses(), ds.DayCount(), s.periods, week)
}

// WeekNow is the semester week containing the current time.
func (s *Service) WeekNow() int {
	return s.Settings().WeekAt(s.now())
}

// Agenda builds the single-day view for day (1 = Monday).
func (s *Service) Agenda(day int) []grid.AgendaGroup {
	return grid.Agenda(s.Courses(), day, s.periods, s.groups)
}

// Today returns the weekday number for now, with weekends shown as Monday
// when the weekly view hides them.
func (s *Service) Today() int {
	day := int(s.now().Weekday())
	if day == 0 {
		day = 7
	}
	if day > 5 && !s.Settings().ShowWeekends {
		return 1
	}
	return day
}

// Overlaps reports double-booked course pairs in the current list.
func (s *Service) Overlaps() []grid.Overlap {
	return grid.Overlaps(s.Courses())
}

// Occurrences lists the dated sessions between from and to (inclusive),
// counting weeks from the configured semester start.
func (s *Service) Occurrences(from, to time.Time) ([]ics.Occurrence, error) {
	start, err := s.Settings().SemesterStart(time.UTC)
	if err != nil {
		return nil, err
	}
	return ics.Occurrences(s.Courses(), ics.ExpandConfig{
		SemesterStart: start,
		Periods:       s.periods,
		RangeStart:    from,
		RangeEnd:      to,
	})
}
