package common

import (
	"fmt"
	"io"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// Metrics collects the counters of one invocation. A nil *Metrics is valid
// and records nothing, so engines can be used without it.
type Metrics struct {
	set *metrics.Set
}

// NewMetrics creates an empty metrics set
func NewMetrics() *Metrics {
	return &Metrics{set: metrics.NewSet()}
}

// ObserveCommand records the duration of a command
func (m *Metrics) ObserveCommand(command string, start time.Time) {
	if m == nil {
		return
	}
	m.set.GetOrCreateHistogram(fmt.Sprintf(`bolthelper_command_duration_seconds{command=%q}`, command)).UpdateDuration(start)
}

// AddScanned counts store entries visited by an operation
func (m *Metrics) AddScanned(op string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.set.GetOrCreateCounter(fmt.Sprintf(`bolthelper_entries_scanned_total{op=%q}`, op)).Add(n)
}

// AddReturned counts items handed back to the caller
func (m *Metrics) AddReturned(op string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.set.GetOrCreateCounter(fmt.Sprintf(`bolthelper_items_returned_total{op=%q}`, op)).Add(n)
}

// IncError counts a failed command by error code
func (m *Metrics) IncError(command, code string) {
	if m == nil {
		return
	}
	m.set.GetOrCreateCounter(fmt.Sprintf(`bolthelper_errors_total{command=%q,code=%q}`, command, code)).Inc()
}

// WritePrometheus writes all metrics in Prometheus text format
func (m *Metrics) WritePrometheus(w io.Writer) {
	if m == nil {
		return
	}
	m.set.WritePrometheus(w)
}
