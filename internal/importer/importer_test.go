package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursegrid/internal/structured"
)

func fixedNow() time.Time { return time.UnixMilli(1700000000000) }

func TestImportRoutesByFormat(t *testing.T) {
	tests := []struct {
		format Format
		input  string
		day    int
	}{
		{FormatICS, "BEGIN:VEVENT\nUID:1\nDTSTART:20260302T080000\nDTEND:20260302T094000\nSUMMARY:Intro to CS\nEND:VEVENT\n", 1},
		{FormatJSON, `[{"name":"X","room":"R","teacher":"T","day":4}]`, 4},
		{FormatCSV, "name,room,teacher,day\nX,R,T,5\n", 5},
		{FormatText, "高数,汤老师,110,周三,5-6节,1-16周", 3},
	}
	for _, tc := range tests {
		t.Run(string(tc.format), func(t *testing.T) {
			courses, err := Import(tc.format, []byte(tc.input), Options{Now: fixedNow})
			require.NoError(t, err)
			require.Len(t, courses, 1)
			assert.Equal(t, tc.day, courses[0].Day)
		})
	}
}

func TestImportEmptyResultIsFailure(t *testing.T) {
	_, err := Import(FormatText, []byte("nothing useful\n"), Options{})
	assert.ErrorIs(t, err, ErrNoCourses)

	_, err = Import(FormatICS, []byte("BEGIN:VCALENDAR\nEND:VCALENDAR\n"), Options{})
	assert.ErrorIs(t, err, ErrNoCourses)

	_, err = Import(FormatJSON, []byte(`[]`), Options{})
	assert.ErrorIs(t, err, ErrNoCourses)
}

func TestImportWholeInputFailure(t *testing.T) {
	courses, err := Import(FormatJSON, []byte(`[{"room":"R","teacher":"T"}]`), Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, structured.ErrMissingFields)
	assert.Nil(t, courses)

	_, err = Import(Format("xml"), []byte("<x/>"), Options{})
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]Format{
		"schedule.ics":     FormatICS,
		"Backup.JSON":      FormatJSON,
		"export/table.csv": FormatCSV,
		"notes.txt":        FormatText,
	}
	for name, want := range tests {
		got, err := DetectFormat(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := DetectFormat("README")
	assert.ErrorIs(t, err, ErrUnknownFormat)
	_, err = DetectFormat("photo.png")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestParseFormatAliases(t *testing.T) {
	f, err := ParseFormat(" iCal ")
	require.NoError(t, err)
	assert.Equal(t, FormatICS, f)
	assert.Len(t, Formats(), 4)
}
