package period

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTableIsValid(t *testing.T) {
	tbl := Default()
	require.NoError(t, tbl.Validate())
	assert.Equal(t, 14, tbl.MaxSection())

	// Mutating the copy must not leak into the next Default call.
	tbl[0].StartTime = "07:00"
	assert.Equal(t, "08:00", Default()[0].StartTime)
}

func TestSlotForSection(t *testing.T) {
	tbl := Default()

	s, ok := tbl.SlotForSection(5)
	require.True(t, ok)
	assert.Equal(t, "13:30", s.StartTime)
	assert.Equal(t, "14:15", s.EndTime)

	_, ok = tbl.SlotForSection(0)
	assert.False(t, ok)
	_, ok = tbl.SlotForSection(15)
	assert.False(t, ok)
}

func TestSectionLookups(t *testing.T) {
	tbl := Default()

	tests := []struct {
		name   string
		hour   int
		minute int
		want   int
	}{
		{"exact first", 8, 0, 1},
		{"exact after lunch", 13, 30, 5},
		{"before day starts", 6, 30, 1},
		{"between slots", 9, 0, 3},
		{"lunch gap", 12, 0, 5},
		{"after last slot", 23, 50, 14},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tbl.SectionForTime(tc.hour, tc.minute))
		})
	}
}

func TestValidateRejectsBadTables(t *testing.T) {
	assert.Error(t, Table{}.Validate())
	assert.Error(t, Table{{Section: 2, StartTime: "08:00", EndTime: "08:45"}}.Validate())
	assert.Error(t, Table{{Section: 1, StartTime: "8am", EndTime: "08:45"}}.Validate())
	assert.Error(t, Table{{Section: 1, StartTime: "09:00", EndTime: "08:45"}}.Validate())
}

func TestMinutes(t *testing.T) {
	m, err := Minutes("13:05")
	require.NoError(t, err)
	assert.Equal(t, 13*60+5, m)

	_, err = Minutes("24:00")
	assert.Error(t, err)
}
