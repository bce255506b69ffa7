package journal

import (
	"context"
	"time"
)

type Kind string

const (
	KindAlertTenMinute  Kind = "alert_ten_minute"
	KindAlertCountdown  Kind = "alert_countdown"
	KindAlertDueNow     Kind = "alert_due_now"
	KindAutoComplete    Kind = "auto_complete"
	KindAutoCompleteErr Kind = "auto_complete_error"
	KindDaemonStart     Kind = "daemon_start"
	KindDaemonStop      Kind = "daemon_stop"
)

// Entry is one journaled engine event. The journal is an audit trail for the
// status CLI; nothing in the engine ever reads it back to make a scheduling
// decision, so notification state stays ephemeral across restarts.
type Entry struct {
	ID         int64     `db:"id" json:"id"`
	Timestamp  time.Time `db:"timestamp" json:"timestamp"`
	Kind       Kind      `db:"kind" json:"kind"`
	ReminderID string    `db:"reminder_id" json:"reminder_id,omitempty"`
	Title      string    `db:"title" json:"title,omitempty"`
	Notes      string    `db:"notes" json:"notes,omitempty"`
}

type Journal interface {
	Init(ctx context.Context) error
	Record(ctx context.Context, e Entry) (int64, error)
	// Recent returns up to limit entries, newest first, optionally filtered
	// by kind.
	Recent(ctx context.Context, limit int, kinds ...Kind) ([]Entry, error)
	Close() error
}
