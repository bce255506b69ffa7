package scheduler

import (
	"math"
	"time"
)

// Stage is one of the mutually exclusive alerting windows for a reminder.
type Stage int

const (
	StageNone Stage = iota
	StageTenMinute
	StageCountdown
	StageDueNow
)

func (s Stage) String() string {
	switch s {
	case StageTenMinute:
		return "ten_minute"
	case StageCountdown:
		return "countdown"
	case StageDueNow:
		return "due_now"
	default:
		return "none"
	}
}

// Window bounds in minutes relative to the due instant. The windows are wider
// than their names suggest so a 5 second polling cadence cannot step over one
// entirely, and the due-now window tolerates up to a minute of overdue time
// for a poller that fell behind (backgrounded process, slow fetch). At
// exactly 0.2 minutes the due-now window wins over the countdown window;
// both bounds are load-bearing, see the boundary tests before touching them.
const (
	tenMinuteLower = 9.0
	tenMinuteUpper = 10.5
	countdownLower = 0.2
	countdownUpper = 3.5
	dueNowLower    = -1.0
	dueNowUpper    = 0.2
)

// countdownSpacing is the minimum wall-clock gap between two countdown
// alerts for the same reminder.
const countdownSpacing = time.Minute

// stageState tracks which stages already fired for one reminder schedule.
// Entries are created lazily, live only in memory and are discarded whenever
// the schedule is edited or the process exits.
type stageState struct {
	timeKey         string
	tenMinuteFired  bool
	dueNowFired     bool
	lastCountdownAt time.Time
}

// reconcile resets the state when the reminder's schedule no longer matches
// the one the flags were recorded under. Stage flags must never survive a
// schedule edit: an edited reminder may immediately re-fire a stage it
// already fired under its old schedule, and must not skip one.
func (st *stageState) reconcile(timeKey string) {
	if st.timeKey == timeKey {
		return
	}
	st.timeKey = timeKey
	st.tenMinuteFired = false
	st.dueNowFired = false
	st.lastCountdownAt = time.Time{}
}

// classification is the outcome of one classifier pass for one reminder.
type classification struct {
	stage   Stage
	minutes int // ceil of minutes remaining; only set for StageCountdown
}

// classify decides which stage, if any, fires for a reminder due at due as
// seen at now, and records the firing in st. At most one stage applies per
// pass. The caller must have reconciled st against the reminder's current
// TimeKey first.
func classify(st *stageState, due, now time.Time) classification {
	delta := due.Sub(now).Minutes()

	switch {
	case delta > tenMinuteLower && delta <= tenMinuteUpper:
		if st.tenMinuteFired {
			return classification{stage: StageNone}
		}
		st.tenMinuteFired = true
		return classification{stage: StageTenMinute}

	case delta > countdownLower && delta <= countdownUpper:
		if !st.lastCountdownAt.IsZero() && now.Sub(st.lastCountdownAt) < countdownSpacing {
			return classification{stage: StageNone}
		}
		st.lastCountdownAt = now
		return classification{stage: StageCountdown, minutes: int(math.Ceil(delta))}

	case delta > dueNowLower && delta <= dueNowUpper:
		if st.dueNowFired {
			return classification{stage: StageNone}
		}
		st.dueNowFired = true
		return classification{stage: StageDueNow}
	}

	return classification{stage: StageNone}
}
