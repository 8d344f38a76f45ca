package telemetry

import (
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"curbdb/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
)

type Step struct {
	Name     string  `json:"name"`
	Duration float64 `json:"duration_ms"`
}

// Trace times one operation and its marked steps.
type Trace struct {
	Name     string
	Start    time.Time
	Steps    []Step
	TotalMS  float64
	lastMark time.Time
	finished bool
}

var (
	opDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "curbdb",
			Name:      "operation_duration_seconds",
			Help:      "Duration of curbdb operations.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
		[]string{"op"},
	)

	opErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "curbdb",
			Name:      "operation_errors_total",
			Help:      "Rejected or failed curbdb operations by kind.",
		},
		[]string{"op", "kind"},
	)

	heapAlloc = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "go_heap_alloc_bytes",
			Help: "Current heap allocation in bytes.",
		},
		func() float64 {
			var stats runtime.MemStats
			runtime.ReadMemStats(&stats)
			return float64(stats.HeapAlloc)
		},
	)
)

// slow operations are logged at warn level; stored as nanoseconds
var slowThreshold atomic.Int64

func init() {
	prometheus.MustRegister(opDuration, opErrors, heapAlloc)
	slowThreshold.Store(int64(200 * time.Millisecond))
}

// SetSlowThreshold changes the duration above which finished traces are logged.
func SetSlowThreshold(d time.Duration) {
	if d > 0 {
		slowThreshold.Store(int64(d))
	}
}

// Track starts a new trace.
func Track(name string) *Trace {
	now := time.Now()
	return &Trace{Name: name, Start: now, lastMark: now}
}

// Mark records the elapsed duration since last mark.
func (tr *Trace) Mark(label string) {
	now := time.Now()
	delta := now.Sub(tr.lastMark).Seconds() * 1000
	tr.Steps = append(tr.Steps, Step{Name: label, Duration: delta})
	tr.lastMark = now
}

// Finish observes the trace duration. Safe to call multiple times or via defer.
func (tr *Trace) Finish() {
	if tr == nil || tr.finished {
		return
	}
	tr.finished = true
	elapsed := time.Since(tr.Start)
	tr.TotalMS = elapsed.Seconds() * 1000
	opDuration.WithLabelValues(tr.Name).Observe(elapsed.Seconds())

	if elapsed >= time.Duration(slowThreshold.Load()) {
		steps := make([]string, 0, len(tr.Steps))
		for _, s := range tr.Steps {
			steps = append(steps, s.Name)
		}
		logger.Warn("slow_operation", "op", tr.Name, "total_ms", tr.TotalMS, "steps", strings.Join(steps, ","))
	}
}

// Fail counts a failed operation under the given error kind.
func Fail(op, kind string) {
	opErrors.WithLabelValues(op, kind).Inc()
}
