package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDueTimeTimed(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	due, err := DueTime("2026-08-30", "14:30", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 30, 14, 30, 0, 0, loc), due)
	assert.Equal(t, loc, due.Location())
}

func TestDueTimeAllDayIsMidnight(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	due, err := DueTime("2026-08-30", "", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 30, 0, 0, 0, 0, loc), due)
}

func TestDueTimeNotUTCShifted(t *testing.T) {
	// The same calendar date in two zones must yield different instants.
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	a, err := DueTime("2026-08-30", "09:00", ny)
	require.NoError(t, err)
	b, err := DueTime("2026-08-30", "09:00", tokyo)
	require.NoError(t, err)
	assert.False(t, a.Equal(b))
}

func TestDueTimeInvalid(t *testing.T) {
	_, err := DueTime("30/08/2026", "", time.UTC)
	assert.Error(t, err)

	_, err = DueTime("2026-08-30", "2pm", time.UTC)
	assert.Error(t, err)
}

func TestTimeKey(t *testing.T) {
	r := Reminder{ID: "r1", Date: "2026-08-30", Time: "14:30"}
	assert.Equal(t, "2026-08-30T14:30", r.TimeKey())

	// Editing either field changes the key; nothing else does.
	edited := r
	edited.Time = "15:00"
	assert.NotEqual(t, r.TimeKey(), edited.TimeKey())

	edited = r
	edited.Date = "2026-08-31"
	assert.NotEqual(t, r.TimeKey(), edited.TimeKey())

	edited = r
	edited.Title = "renamed"
	edited.Completed = true
	assert.Equal(t, r.TimeKey(), edited.TimeKey())
}

func TestAllDay(t *testing.T) {
	assert.True(t, Reminder{Date: "2026-08-30"}.AllDay())
	assert.False(t, Reminder{Date: "2026-08-30", Time: "00:00"}.AllDay())
}

func TestStartOfDay(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	in := time.Date(2026, 8, 30, 23, 59, 59, 123, loc)
	got := StartOfDay(in)
	assert.Equal(t, time.Date(2026, 8, 30, 0, 0, 0, 0, loc), got)
	assert.Equal(t, loc, got.Location())
}
