package notify

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSounder struct {
	plays int
	err   error
}

func (s *fakeSounder) Play() error {
	s.plays++
	return s.err
}

func TestAlertIDStablePerReminder(t *testing.T) {
	assert.Equal(t, AlertID("r1"), AlertID("r1"))
	assert.NotEqual(t, AlertID("r1"), AlertID("r2"))
}

func TestDispatchReplacesSameID(t *testing.T) {
	d := NewConsoleDispatcher(nil)
	now := time.Now()

	d.Dispatch(Alert{ID: AlertID("r1"), ReminderID: "r1", Body: "due in 10 minutes", ExpiresAt: now.Add(8 * time.Second)})
	d.Dispatch(Alert{ID: AlertID("r1"), ReminderID: "r1", Body: "due in 3 minutes", ExpiresAt: now.Add(8 * time.Second)})

	active := d.Active(now)
	require.Len(t, active, 1)
	assert.Equal(t, "due in 3 minutes", active[0].Body)
}

func TestAlertsForDifferentRemindersStack(t *testing.T) {
	d := NewConsoleDispatcher(nil)
	now := time.Now()

	d.Dispatch(Alert{ID: AlertID("r1"), ExpiresAt: now.Add(8 * time.Second)})
	d.Dispatch(Alert{ID: AlertID("r2"), ExpiresAt: now.Add(8 * time.Second)})

	assert.Len(t, d.Active(now), 2)
}

func TestActiveExpiresAlerts(t *testing.T) {
	d := NewConsoleDispatcher(nil)
	now := time.Now()

	d.Dispatch(Alert{ID: AlertID("r1"), ExpiresAt: now.Add(8 * time.Second)})

	assert.Len(t, d.Active(now.Add(7*time.Second)), 1)
	assert.Empty(t, d.Active(now.Add(8*time.Second)))
	// Pruned for good, not just filtered.
	assert.Empty(t, d.Active(now))
}

func TestDismiss(t *testing.T) {
	d := NewConsoleDispatcher(nil)
	now := time.Now()

	d.Dispatch(Alert{ID: AlertID("r1"), ExpiresAt: now.Add(time.Minute)})
	d.Dismiss(AlertID("r1"))
	assert.Empty(t, d.Active(now))
}

func TestUrgentPlaysSound(t *testing.T) {
	s := &fakeSounder{}
	d := NewConsoleDispatcher(s)
	now := time.Now()

	d.Dispatch(Alert{ID: AlertID("r1"), ExpiresAt: now.Add(time.Minute)})
	assert.Equal(t, 0, s.plays)

	d.Dispatch(Alert{ID: AlertID("r1"), Urgent: true, ExpiresAt: now.Add(time.Minute)})
	assert.Equal(t, 1, s.plays)
}

func TestSoundFailureDoesNotBlockAlert(t *testing.T) {
	s := &fakeSounder{err: errors.New("audio device blocked")}
	d := NewConsoleDispatcher(s)
	now := time.Now()

	d.Dispatch(Alert{ID: AlertID("r1"), Urgent: true, ExpiresAt: now.Add(time.Minute)})

	require.Len(t, d.Active(now), 1)
	assert.Equal(t, 1, s.plays)
}
