package ipc

import (
	"time"

	"remindme/internal/notify"
)

const SocketPath = "/tmp/remindme.sock"

// Command represents a command sent over the socket.
type Command struct {
	Name string      `json:"name"`
	Args interface{} `json:"args,omitempty"`
}

// Response represents a response sent back over the socket.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

const (
	CmdPing     = "ping"
	CmdStatus   = "status"
	CmdHistory  = "history"
	CmdComplete = "complete"
)

// --- Command Argument Structs ---

type HistoryArgs struct {
	Limit int      `json:"limit"`
	Kinds []string `json:"kinds,omitempty"`
}

type CompleteArgs struct {
	ReminderID string `json:"reminder_id"`
}

// --- Status Response Data ---

type StatusData struct {
	UptimeSecs   float64        `json:"uptime_secs"`
	LastTick     time.Time      `json:"last_tick"`
	TickCount    uint64         `json:"tick_count"`
	FetchErrors  uint64         `json:"fetch_errors"`
	Reminders    int            `json:"reminders"`
	Pending      int            `json:"pending"`
	NextDue      *time.Time     `json:"next_due,omitempty"`
	ActiveAlerts []notify.Alert `json:"active_alerts,omitempty"`
}
