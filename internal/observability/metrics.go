package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu            sync.Mutex
	requestCount  map[string]int64
	errorCount    map[string]int64
	requestMillis map[string]int64
	runs          RunTotals
}

// RunCounters are the figures one analysis run contributes.
type RunCounters struct {
	InputRows     int
	ParseFailures int
	Reportable    int
	Fallbacks     int
}

// RunTotals accumulates RunCounters across runs.
type RunTotals struct {
	Runs          int64 `json:"runs"`
	InputRows     int64 `json:"input_rows"`
	ParseFailures int64 `json:"parse_failures"`
	Reportable    int64 `json:"reportable_keys"`
	Fallbacks     int64 `json:"consensus_fallbacks"`
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Requests      map[string]int64 `json:"requests"`
	Errors        map[string]int64 `json:"errors"`
	RequestMillis map[string]int64 `json:"request_millis"`
	Analysis      RunTotals        `json:"analysis"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:  make(map[string]int64),
		errorCount:    make(map[string]int64),
		requestMillis: make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.requestMillis[key] += duration.Milliseconds()
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordRun adds one analysis run.
func (m *Metrics) RecordRun(c RunCounters) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs.Runs++
	m.runs.InputRows += int64(c.InputRows)
	m.runs.ParseFailures += int64(c.ParseFailures)
	m.runs.Reportable += int64(c.Reportable)
	m.runs.Fallbacks += int64(c.Fallbacks)
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Requests:      copyCounts(m.requestCount),
		Errors:        copyCounts(m.errorCount),
		RequestMillis: copyCounts(m.requestMillis),
		Analysis:      m.runs,
	}
}

func copyCounts(src map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
