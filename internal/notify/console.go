package notify

import (
	"log"
	"os"
	"sort"
	"sync"
	"time"
)

// ConsoleDispatcher logs alerts and keeps an in-memory view of the ones still
// on display so the control socket can report them. Expired alerts are pruned
// lazily on the next Active call.
type ConsoleDispatcher struct {
	sounder Sounder

	mu     sync.Mutex
	active map[string]Alert
}

func NewConsoleDispatcher(sounder Sounder) *ConsoleDispatcher {
	return &ConsoleDispatcher{sounder: sounder, active: make(map[string]Alert)}
}

func (d *ConsoleDispatcher) Dispatch(a Alert) {
	d.mu.Lock()
	d.active[a.ID] = a
	d.mu.Unlock()

	if a.Urgent {
		log.Printf("ALERT [%s] %s: %s", a.ID, a.Title, a.Body)
		if d.sounder != nil {
			if err := d.sounder.Play(); err != nil {
				// Audio is best-effort; the visual alert already went out.
				log.Printf("Warning: failed to play alert sound: %v", err)
			}
		}
		return
	}
	log.Printf("Alert [%s] %s: %s", a.ID, a.Title, a.Body)
}

func (d *ConsoleDispatcher) Dismiss(id string) {
	d.mu.Lock()
	delete(d.active, id)
	d.mu.Unlock()
}

func (d *ConsoleDispatcher) Active(now time.Time) []Alert {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]Alert, 0, len(d.active))
	for id, a := range d.active {
		if !a.ExpiresAt.IsZero() && !now.Before(a.ExpiresAt) {
			delete(d.active, id)
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// BellSounder writes the terminal bell character. Plenty of environments
// ignore or block it; urgent alerts still show up in the log either way.
type BellSounder struct{}

func (BellSounder) Play() error {
	_, err := os.Stderr.WriteString("\a")
	return err
}
