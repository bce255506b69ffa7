package notify

import "time"

// Alert is one staged reminder notification.
type Alert struct {
	ID         string    `json:"id"`
	ReminderID string    `json:"reminder_id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Urgent     bool      `json:"urgent"`     // urgent alerts also get an audible cue
	ExpiresAt  time.Time `json:"expires_at"` // past this the alert auto-dismisses
}

// AlertID returns the stable alert identifier for a reminder. It is a pure
// function of the reminder ID only, never of the stage or tick, so a later
// stage for the same reminder replaces the earlier alert instead of stacking
// a second one. Any dispatcher backend keying on this ID gets the same
// replace-not-stack behaviour.
func AlertID(reminderID string) string { return "reminder-" + reminderID }

// Dispatcher renders alerts. Dispatch replaces any active alert carrying the
// same ID. Dispatching is a fire-and-forget side effect: implementations must
// never fail the caller.
type Dispatcher interface {
	Dispatch(a Alert)
	Dismiss(id string)
	Active(now time.Time) []Alert
}

// Sounder plays the audible cue for urgent alerts. Errors are advisory only;
// a blocked or missing audio device must never suppress the visual alert.
type Sounder interface {
	Play() error
}
