package observability

import (
	"sort"
	"strconv"
	"sync"
	"time"
)

// Metric names.
const (
	MetricEventsHandled        = "events_handled"
	MetricDeparturesRecorded   = "departures_recorded"
	MetricDeparturesRejected   = "departures_rejected"
	MetricNotificationsSent    = "notifications_sent"
	MetricNotificationFailures = "notification_failures"
	MetricReportsGenerated     = "reports_generated"
	MetricPermissionDenied     = "permission_denied"
	MetricHTTPRequests         = "http_requests"
	MetricHTTPErrors           = "http_errors"
)

// Metrics provides basic in-memory counters. A nil *Metrics is a no-op.
type Metrics struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{counters: make(map[string]int64)}
}

// Inc increments the counter name, qualified by labels.
func (m *Metrics) Inc(name string, labels ...string) {
	if m == nil {
		return
	}
	key := metricKey(name, labels...)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[key]++
}

// RecordEvent counts an inbound chat event by kind.
func (m *Metrics) RecordEvent(kind string) {
	m.Inc(MetricEventsHandled, kind)
}

// RecordRequest counts an admin API request.
func (m *Metrics) RecordRequest(path, method string, status int, _ time.Duration) {
	m.Inc(MetricHTTPRequests, path, method, strconv.Itoa(status))
}

// RecordError counts an admin API error by code.
func (m *Metrics) RecordError(path, method, code string) {
	m.Inc(MetricHTTPErrors, path, method, code)
}

// Get returns the current value of a counter.
func (m *Metrics) Get(name string, labels ...string) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[metricKey(name, labels...)]
}

// Snapshot copies all counters.
func (m *Metrics) Snapshot() map[string]int64 {
	out := make(map[string]int64)
	if m == nil {
		return out
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.counters {
		out[k] = v
	}
	return out
}

// Keys returns the counter keys in sorted order.
func (m *Metrics) Keys() []string {
	snap := m.Snapshot()
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func metricKey(name string, labels ...string) string {
	key := name
	for _, l := range labels {
		key += "|" + l
	}
	return key
}
