// Package structured imports and exports course lists that are already
// structured: a JSON array (or {"courses": [...]}) and a CSV table with the
// same columns. Unlike the calendar and free-text importers this one is
// all-or-nothing: one invalid record rejects the batch.
package structured

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"coursegrid/internal/model"
)

var (
	ErrFormat        = errors.New("invalid JSON format: expected an array of courses or an object with a courses property")
	ErrMissingFields = errors.New("missing required fields")
)

// record is the loose shape of one incoming course before defaults.
type record struct {
	ID           string `validate:"-"`
	Name         string `validate:"required"`
	Room         string `validate:"required"`
	Teacher      string `validate:"required"`
	Day          any
	StartSection any
	Duration     any
	Color        string
	Weeks        string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseJSON decodes a course list. Accepted shapes are a top-level array
// or an object with a "courses" array.
func ParseJSON(data []byte) ([]model.Course, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("parse JSON: unexpected data after top-level value")
	}

	var items []any
	switch v := root.(type) {
	case []any:
		items = v
	case map[string]any:
		list, ok := v["courses"].([]any)
		if !ok {
			return nil, ErrFormat
		}
		items = list
	default:
		return nil, ErrFormat
	}

	records := make([]record, 0, len(items))
	for _, item := range items {
		obj, _ := item.(map[string]any)
		records = append(records, record{
			ID:           stringField(obj, "id"),
			Name:         stringField(obj, "name"),
			Room:         stringField(obj, "room"),
			Teacher:      stringField(obj, "teacher"),
			Day:          obj["day"],
			StartSection: obj["startSection"],
			Duration:     obj["duration"],
			Color:        stringField(obj, "color"),
			Weeks:        stringField(obj, "weeks"),
		})
	}
	return normalize(records)
}

// SerializeJSON writes courses as a two-space-indented JSON array with a
// stable field order. ParseJSON reads it back unchanged.
func SerializeJSON(courses []model.Course) ([]byte, error) {
	if courses == nil {
		courses = []model.Course{}
	}
	return json.MarshalIndent(courses, "", "  ")
}

func normalize(records []record) ([]model.Course, error) {
	out := make([]model.Course, 0, len(records))
	for i, r := range records {
		if err := validate.Struct(r); err != nil {
			return nil, fmt.Errorf("invalid course at index %d: %w", i, ErrMissingFields)
		}

		id := r.ID
		if id == "" {
			id = "json-" + uuid.NewString()
		}
		color := r.Color
		if color == "" {
			color = model.Palette[0]
		}
		weeks := r.Weeks
		if weeks == "" {
			weeks = model.DefaultWeeks
		}

		out = append(out, model.Course{
			ID:           id,
			Name:         r.Name,
			Room:         r.Room,
			Teacher:      r.Teacher,
			Day:          coerceOrDefault(r.Day, 1),
			StartSection: coerceOrDefault(r.StartSection, 1),
			Duration:     coerceOrDefault(r.Duration, 1),
			Color:        color,
			Weeks:        weeks,
		})
	}
	return out, nil
}

// coerceOrDefault turns whatever numeric-ish value a record carries into an
// int. Missing, zero, NaN, out-of-range and non-numeric values all become
// def, silently.
// TODO: decide whether a non-numeric day/section should fail the record
// instead; every call site goes through here so the rule can change in one
// place.
func coerceOrDefault(v any, def int) int {
	var f float64
	switch x := v.(type) {
	case nil:
		return def
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return def
		}
		f = n
	case float64:
		f = x
	case int:
		f = float64(x)
	case bool:
		if x {
			return 1
		}
		return def
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return def
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return def
		}
		f = n
	default:
		return def
	}
	// Values no int32 can hold are noise, not positions.
	if math.IsNaN(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return def
	}
	if n := int(f); n != 0 {
		return n
	}
	return def
}

// stringField reads a string-like field. Non-string scalars are rendered
// as text so {"room": 301} still counts as present.
func stringField(obj map[string]any, key string) string {
	if obj == nil {
		return ""
	}
	switch v := obj[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "true"
		}
		return ""
	default:
		return ""
	}
}
