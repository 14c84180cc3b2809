// Package metrics exposes Prometheus counters and gauges for the
// authoritative core plus a periodic sample of host resource usage,
// following the same promauto + gopsutil pattern the rest of this
// codebase's ancestry uses for observability.
package metrics

import (
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Metrics is the process-wide metrics singleton.
type Metrics struct{}

var (
	instance *Metrics
	once     sync.Once

	promZonesLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "authoritative_zones_loaded",
		Help: "Number of zones currently loaded",
	})
	promRecordsLoaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "authoritative_records_loaded_total",
		Help: "Total number of records loaded across all zones",
	})
	promScanErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "authoritative_scan_errors_total",
		Help: "Total number of master-file scan/syntax errors encountered while loading zones",
	})
	promQueriesByOutcome = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authoritative_queries_total",
		Help: "Total number of queries answered, labeled by outcome",
	}, []string{"outcome"})
	promCPUUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "authoritative_cpu_usage_percent",
		Help: "Current CPU usage percentage",
	})
	promMemoryUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "authoritative_memory_usage_percent",
		Help: "Current memory usage percentage",
	})
	promGoroutineCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "authoritative_goroutine_count",
		Help: "Current number of goroutines",
	})
)

// Outcome labels for RecordQuery, matching internal/query's rcode
// classification.
const (
	OutcomeAnswer    = "answer"
	OutcomeNXDomain  = "nxdomain"
	OutcomeNoData    = "nodata"
	OutcomeReferral  = "referral"
	OutcomeRefused   = "refused"
	OutcomeFormError = "formerr"
)

// New returns the singleton Metrics instance, starting its background
// host-stats sampler on first call.
func New() *Metrics {
	once.Do(func() {
		instance = &Metrics{}
		go instance.systemMetricsCollector()
	})
	return instance
}

// SetZonesLoaded reports the current number of installed zones.
func (m *Metrics) SetZonesLoaded(n int) {
	promZonesLoaded.Set(float64(n))
}

// AddRecordsLoaded accounts for n more records having been loaded.
func (m *Metrics) AddRecordsLoaded(n int) {
	promRecordsLoaded.Add(float64(n))
}

// IncrementScanErrors records one master-file scan or syntax error.
func (m *Metrics) IncrementScanErrors() {
	promScanErrors.Inc()
}

// RecordQuery classifies one answered query by its outcome.
func (m *Metrics) RecordQuery(outcome string) {
	promQueriesByOutcome.WithLabelValues(outcome).Inc()
}

func (m *Metrics) systemMetricsCollector() {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		if cpuPercentages, err := cpu.Percent(0, false); err == nil && len(cpuPercentages) > 0 {
			promCPUUsage.Set(cpuPercentages[0])
		} else if err != nil {
			log.Printf("[metrics] collecting cpu stats: %v", err)
		}

		if memInfo, err := mem.VirtualMemory(); err == nil {
			promMemoryUsage.Set(memInfo.UsedPercent)
		} else {
			log.Printf("[metrics] collecting memory stats: %v", err)
		}

		promGoroutineCount.Set(float64(runtime.NumGoroutine()))
	}
}
