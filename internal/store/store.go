package store

import (
	"context"

	"remindme/internal/reminder"
)

// Store is the remote reminder backend. The daemon only ever lists reminders
// and flips their completed flag; creating, editing and deleting reminders
// belongs to the back-office application.
type Store interface {
	List(ctx context.Context) ([]reminder.Reminder, error)
	SetCompleted(ctx context.Context, id string, completed bool) error
}
