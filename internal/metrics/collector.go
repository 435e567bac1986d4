// Package metrics provides in-memory runtime statistics collection.
package metrics

import (
	"math"
	"sync"
	"time"
)

// OperationMetrics holds aggregated metrics for a single operation type.
type OperationMetrics struct {
	Count     int64
	Errors    int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// OperationSnapshot provides computed stats from raw metrics.
type OperationSnapshot struct {
	Count       int64   `json:"count"`
	Errors      int64   `json:"errors"`
	TotalTimeMs int64   `json:"total_time_ms"`
	AvgTimeMs   float64 `json:"avg_time_ms"`
	MinTimeMs   int64   `json:"min_time_ms"`
	MaxTimeMs   int64   `json:"max_time_ms"`
}

// Snapshot represents the full server statistics at a point in time.
type Snapshot struct {
	UptimeSeconds   float64            `json:"uptime_seconds"`
	HTTPRequest     *OperationSnapshot `json:"http_request,omitempty"`
	StoreQuery      *OperationSnapshot `json:"store_query,omitempty"`
	TurnProcess     *OperationSnapshot `json:"turn_process,omitempty"`
	SessionsCreated int64              `json:"sessions_created"`
	TurnsCreated    int64              `json:"turns_created"`
	TurnsCompleted  int64              `json:"turns_completed"`
	TurnsFailed     int64              `json:"turns_failed"`
	ActiveStreams   int64              `json:"active_streams"`
}

// Operation names for the collector.
const (
	OpHTTPRequest = "http_request"
	OpStoreQuery  = "store_query"
	OpTurnProcess = "turn_process"
)

// Counter names for the collector.
const (
	CounterSessionsCreated = "sessions_created"
	CounterTurnsCreated    = "turns_created"
	CounterTurnsCompleted  = "turns_completed"
	CounterTurnsFailed     = "turns_failed"
	CounterActiveStreams   = "active_streams"
)

// Collector aggregates in-memory runtime statistics.
// All methods are thread-safe.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	ops       map[string]*OperationMetrics
	counters  map[string]int64
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*OperationMetrics),
		counters:  make(map[string]int64),
	}
}

// getOrCreate returns existing metrics or creates new ones for an operation.
// Caller must hold write lock.
func (c *Collector) getOrCreate(op string) *OperationMetrics {
	m, ok := c.ops[op]
	if !ok {
		m = &OperationMetrics{MinTime: time.Duration(math.MaxInt64)}
		c.ops[op] = m
	}
	return m
}

// RecordTiming records timing for an operation.
func (c *Collector) RecordTiming(op string, duration time.Duration) {
	c.record(op, duration, false)
}

// RecordError records timing for an operation that failed.
func (c *Collector) RecordError(op string, duration time.Duration) {
	c.record(op, duration, true)
}

func (c *Collector) record(op string, duration time.Duration, failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(op)
	m.Count++
	m.TotalTime += duration
	if failed {
		m.Errors++
	}

	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// Add adjusts a counter by delta.
func (c *Collector) Add(counter string, delta int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[counter] += delta
}

// Timer returns a func that records the elapsed time for op when called.
func (c *Collector) Timer(op string) func(err error) {
	start := time.Now()
	return func(err error) {
		c.record(op, time.Since(start), err != nil)
	}
}

// snapshotOp creates a snapshot for an operation, returning nil if no data.
func snapshotOp(m *OperationMetrics) *OperationSnapshot {
	if m == nil || m.Count == 0 {
		return nil
	}

	return &OperationSnapshot{
		Count:       m.Count,
		Errors:      m.Errors,
		TotalTimeMs: m.TotalTime.Milliseconds(),
		AvgTimeMs:   float64(m.TotalTime.Milliseconds()) / float64(m.Count),
		MinTimeMs:   m.MinTime.Milliseconds(),
		MaxTimeMs:   m.MaxTime.Milliseconds(),
	}
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		UptimeSeconds:   time.Since(c.startTime).Seconds(),
		HTTPRequest:     snapshotOp(c.ops[OpHTTPRequest]),
		StoreQuery:      snapshotOp(c.ops[OpStoreQuery]),
		TurnProcess:     snapshotOp(c.ops[OpTurnProcess]),
		SessionsCreated: c.counters[CounterSessionsCreated],
		TurnsCreated:    c.counters[CounterTurnsCreated],
		TurnsCompleted:  c.counters[CounterTurnsCompleted],
		TurnsFailed:     c.counters[CounterTurnsFailed],
		ActiveStreams:   c.counters[CounterActiveStreams],
	}
}
