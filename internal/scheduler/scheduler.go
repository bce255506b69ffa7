package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"remindme/internal/journal"
	"remindme/internal/metrics"
	"remindme/internal/notify"
	"remindme/internal/reminder"
	"remindme/internal/store"
)

const (
	DefaultInterval     = 5 * time.Second
	DefaultAlertDisplay = 8 * time.Second
)

// Options configure a Scheduler. Zero values fall back to the defaults
// above; Now and Location default to the real clock and the local zone.
type Options struct {
	Interval     time.Duration
	AlertDisplay time.Duration
	Location     *time.Location
	Now          func() time.Time
	Journal      journal.Journal  // optional audit trail
	Metrics      *metrics.Metrics // optional instrumentation
}

// Scheduler is the reminder evaluation engine. It owns its ticker, its
// per-reminder notification state and a local snapshot of the reminder list.
// All of that mutable state is touched only from the tick goroutine; the
// published Status snapshot is the one thing other goroutines may read.
type Scheduler struct {
	store    store.Store
	notifier notify.Dispatcher
	jrnl     journal.Journal
	mtr      *metrics.Metrics

	interval     time.Duration
	alertDisplay time.Duration
	loc          *time.Location
	now          func() time.Time

	states    map[string]*stageState
	reminders []reminder.Reminder

	mu     sync.Mutex
	status Status

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// Status is a read-only snapshot published at the end of each pass.
type Status struct {
	LastTick    time.Time  `json:"last_tick"`
	TickCount   uint64     `json:"tick_count"`
	FetchErrors uint64     `json:"fetch_errors"`
	Reminders   int        `json:"reminders"`
	Pending     int        `json:"pending"`
	NextDue     *time.Time `json:"next_due,omitempty"`
}

func New(st store.Store, d notify.Dispatcher, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.AlertDisplay <= 0 {
		opts.AlertDisplay = DefaultAlertDisplay
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Scheduler{
		store:        st,
		notifier:     d,
		jrnl:         opts.Journal,
		mtr:          opts.Metrics,
		interval:     opts.Interval,
		alertDisplay: opts.AlertDisplay,
		loc:          opts.Location,
		now:          opts.Now,
		states:       make(map[string]*stageState),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Start launches the polling loop: one immediate pass, then one pass per
// interval until Stop is called or ctx is cancelled. Calling Start twice is
// a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			// Tick runs synchronously here, so passes never overlap: a
			// slow fetch simply delays the next pass.
			s.Tick(ctx)
		}
	}
}

// Stop halts the poller and releases the ticker handle. Safe to call more
// than once, and before Start.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	if s.started.Load() {
		<-s.done
	}
}

// Tick runs one full evaluation pass: fetch the reminder list, classify and
// dispatch staged alerts, then auto-complete overdue reminders. Every
// comparison within a pass uses the same captured "now". Exported so tests
// can drive the engine without the timer.
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.now()

	list, err := s.store.List(ctx)
	if err != nil {
		// Skip the whole pass, alerting and auto-completion both; the next
		// tick re-evaluates everything from scratch.
		log.Printf("Error: reminder fetch failed, skipping pass: %v", err)
		s.mtr.IncFetchError()
		s.mu.Lock()
		s.status.FetchErrors++
		s.mu.Unlock()
		return
	}
	s.reminders = list

	s.evaluateAlerts(now)
	s.autoComplete(ctx, now)
	s.publishStatus(now)
	s.mtr.IncTick()
}

func (s *Scheduler) evaluateAlerts(now time.Time) {
	for _, r := range s.reminders {
		if r.Completed {
			continue
		}
		due, err := r.DueTime(s.loc)
		if err != nil {
			log.Printf("Warning: skipping reminder %s: %v", r.ID, err)
			continue
		}

		st := s.states[r.ID]
		if st == nil {
			st = &stageState{timeKey: r.TimeKey()}
			s.states[r.ID] = st
		} else {
			st.reconcile(r.TimeKey())
		}

		c := classify(st, due, now)
		if c.stage == StageNone {
			continue
		}
		s.dispatch(r, c, now)
	}
}

func (s *Scheduler) dispatch(r reminder.Reminder, c classification, now time.Time) {
	a := notify.Alert{
		ID:         notify.AlertID(r.ID),
		ReminderID: r.ID,
		Title:      r.Title,
		Urgent:     c.stage == StageDueNow,
		ExpiresAt:  now.Add(s.alertDisplay),
	}

	var kind journal.Kind
	switch c.stage {
	case StageTenMinute:
		a.Body = "due in 10 minutes"
		kind = journal.KindAlertTenMinute
	case StageCountdown:
		if c.minutes == 1 {
			a.Body = "due in 1 minute"
		} else {
			a.Body = fmt.Sprintf("due in %d minutes", c.minutes)
		}
		kind = journal.KindAlertCountdown
	case StageDueNow:
		a.Body = "due now"
		kind = journal.KindAlertDueNow
	}

	s.notifier.Dispatch(a)
	s.mtr.IncAlert(c.stage.String())
	s.record(kind, r, a.Body, now)
}

// autoComplete flips strictly overdue reminders to completed: locally first,
// then best-effort against the store. A failed write is logged and the local
// flag stays set; the next pass re-fetches the list and tries again.
func (s *Scheduler) autoComplete(ctx context.Context, now time.Time) {
	for i := range s.reminders {
		r := &s.reminders[i]
		if r.Completed {
			continue
		}
		due, err := r.DueTime(s.loc)
		if err != nil {
			continue
		}
		if !overdue(due, r.AllDay(), now) {
			continue
		}

		r.Completed = true // optimistic; no alerts for it from here on
		log.Printf("Auto-completing overdue reminder %s (%s)", r.ID, r.Title)
		s.mtr.IncAutoComplete()
		s.record(journal.KindAutoComplete, *r, "", now)

		if err := s.store.SetCompleted(ctx, r.ID, true); err != nil {
			// Logged only. The optimistic flag is kept: prioritising a
			// responsive reminder list over strict consistency of a
			// completion flag.
			log.Printf("Error: failed to persist auto-completion of %s: %v", r.ID, err)
			s.mtr.IncAutoCompleteError()
			s.record(journal.KindAutoCompleteErr, *r, err.Error(), now)
		}
	}
}

// overdue reports whether a reminder's due instant has passed. Timed
// reminders are overdue once due < now, strictly. All-day reminders compare
// calendar dates only, so the flag flips the moment the day after the
// reminder's date starts, not at the reminder's own midnight. The original
// back-office client computed it exactly this way; keep the comparison
// date-only even though the midnight-of-own-day reading is arguable.
func overdue(due time.Time, allDay bool, now time.Time) bool {
	if allDay {
		return reminder.StartOfDay(due).Before(reminder.StartOfDay(now))
	}
	return due.Before(now)
}

func (s *Scheduler) record(kind journal.Kind, r reminder.Reminder, notes string, now time.Time) {
	if s.jrnl == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	e := journal.Entry{
		Timestamp:  now,
		Kind:       kind,
		ReminderID: r.ID,
		Title:      r.Title,
		Notes:      notes,
	}
	if _, err := s.jrnl.Record(ctx, e); err != nil {
		log.Printf("Warning: failed to journal %s for %s: %v", kind, r.ID, err)
	}
}

func (s *Scheduler) publishStatus(now time.Time) {
	total := len(s.reminders)
	pending := 0
	var nextDue *time.Time
	for _, r := range s.reminders {
		if r.Completed {
			continue
		}
		pending++
		due, err := r.DueTime(s.loc)
		if err != nil {
			continue
		}
		if due.After(now) && (nextDue == nil || due.Before(*nextDue)) {
			d := due
			nextDue = &d
		}
	}
	s.mtr.SetPendingReminders(pending)

	s.mu.Lock()
	s.status.LastTick = now
	s.status.TickCount++
	s.status.Reminders = total
	s.status.Pending = pending
	s.status.NextDue = nextDue
	s.mu.Unlock()
}

// Status returns the snapshot from the most recent completed pass. Safe to
// call from any goroutine.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}
