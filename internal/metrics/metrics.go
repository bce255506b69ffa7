package metrics

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine's Prometheus instruments. A nil *Metrics is a
// valid no-op receiver so the scheduler can run uninstrumented in tests.
type Metrics struct {
	registry *prometheus.Registry

	ticks              prometheus.Counter
	fetchErrors        prometheus.Counter
	alerts             *prometheus.CounterVec
	autoCompletes      prometheus.Counter
	autoCompleteErrors prometheus.Counter
	pendingReminders   prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ticks: factory.NewCounter(prometheus.CounterOpts{
			Name: "remindme_ticks_total",
			Help: "Total number of evaluation passes",
		}),
		fetchErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "remindme_fetch_errors_total",
			Help: "Ticks skipped because the reminder store was unreachable",
		}),
		alerts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "remindme_alerts_total",
			Help: "Alerts dispatched, by stage",
		}, []string{"stage"}),
		autoCompletes: factory.NewCounter(prometheus.CounterOpts{
			Name: "remindme_auto_completions_total",
			Help: "Reminders flipped to completed by the engine",
		}),
		autoCompleteErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "remindme_auto_completion_errors_total",
			Help: "Auto-completion writes rejected by the reminder store",
		}),
		pendingReminders: factory.NewGauge(prometheus.GaugeOpts{
			Name: "remindme_pending_reminders",
			Help: "Non-completed reminders seen on the last pass",
		}),
	}
}

func (m *Metrics) IncTick() {
	if m == nil {
		return
	}
	m.ticks.Inc()
}

func (m *Metrics) IncFetchError() {
	if m == nil {
		return
	}
	m.fetchErrors.Inc()
}

func (m *Metrics) IncAlert(stage string) {
	if m == nil {
		return
	}
	m.alerts.WithLabelValues(stage).Inc()
}

func (m *Metrics) IncAutoComplete() {
	if m == nil {
		return
	}
	m.autoCompletes.Inc()
}

func (m *Metrics) IncAutoCompleteError() {
	if m == nil {
		return
	}
	m.autoCompleteErrors.Inc()
}

func (m *Metrics) SetPendingReminders(n int) {
	if m == nil {
		return
	}
	m.pendingReminders.Set(float64(n))
}

// Serve exposes /metrics on addr in a background goroutine and returns the
// server so the caller can shut it down.
func (m *Metrics) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("Serving metrics on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Error: metrics server: %v", err)
		}
	}()
	return srv
}
