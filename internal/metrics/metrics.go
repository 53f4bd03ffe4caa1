// metrics.go - In-process metrics for setup, proving, verification and puzzle solving.
package metrics

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// MetricType represents the type of metric
type MetricType string

const (
	Counter   MetricType = "counter"
	Gauge     MetricType = "gauge"
	Histogram MetricType = "histogram"
)

// Metric represents a single metric
type Metric struct {
	Name      string            `json:"name"`
	Type      MetricType        `json:"type"`
	Value     float64           `json:"value"`
	Labels    map[string]string `json:"labels,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// histogramWindow bounds the samples kept per histogram.
const histogramWindow = 1000

// Collector gathers counters, gauges and duration histograms.
type Collector struct {
	mu         sync.RWMutex
	metrics    map[string]*Metric
	counters   map[string]int64
	gauges     map[string]float64
	histograms map[string][]float64
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	c := &Collector{}
	c.Reset()
	return c
}

// IncrementCounter increments a counter metric
func (c *Collector) IncrementCounter(name string, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := makeKey(name, labels)
	c.counters[key]++
	c.updateMetric(key, name, Counter, float64(c.counters[key]), labels)
}

// SetGauge sets a gauge metric value
func (c *Collector) SetGauge(name string, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := makeKey(name, labels)
	c.gauges[key] = value
	c.updateMetric(key, name, Gauge, value, labels)
}

// RecordHistogram records a value in a histogram
func (c *Collector) RecordHistogram(name string, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := makeKey(name, labels)
	values := append(c.histograms[key], value)
	if len(values) > histogramWindow {
		values = values[len(values)-histogramWindow:]
	}
	c.histograms[key] = values
	c.updateMetric(key, name, Histogram, value, labels)
}

// GetMetric retrieves a metric by name and labels
func (c *Collector) GetMetric(name string, labels map[string]string) *Metric {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.metrics[makeKey(name, labels)]
}

// GetAllMetrics returns all collected metrics ordered by key.
func (c *Collector) GetAllMetrics() []*Metric {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.metrics))
	for k := range c.metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]*Metric, 0, len(keys))
	for _, k := range keys {
		out = append(out, c.metrics[k])
	}
	return out
}

// HistogramStats summarises one histogram.
type HistogramStats struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Sum   float64 `json:"sum"`
	Avg   float64 `json:"avg"`
}

// Summary is a point-in-time copy of every metric.
type Summary struct {
	Counters   map[string]int64          `json:"counters"`
	Gauges     map[string]float64        `json:"gauges"`
	Histograms map[string]HistogramStats `json:"histograms"`
}

// GetMetricsSummary returns a summary of all metrics
func (c *Collector) GetMetricsSummary() Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Summary{
		Counters:   make(map[string]int64, len(c.counters)),
		Gauges:     make(map[string]float64, len(c.gauges)),
		Histograms: make(map[string]HistogramStats, len(c.histograms)),
	}
	for k, v := range c.counters {
		s.Counters[k] = v
	}
	for k, v := range c.gauges {
		s.Gauges[k] = v
	}
	for k, values := range c.histograms {
		if len(values) == 0 {
			continue
		}
		h := HistogramStats{Count: len(values), Min: values[0], Max: values[0]}
		for _, v := range values {
			h.Min = min(h.Min, v)
			h.Max = max(h.Max, v)
			h.Sum += v
		}
		h.Avg = h.Sum / float64(h.Count)
		s.Histograms[k] = h
	}
	return s
}

// Reset resets all metrics
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.metrics = make(map[string]*Metric)
	c.counters = make(map[string]int64)
	c.gauges = make(map[string]float64)
	c.histograms = make(map[string][]float64)
}

// makeKey joins name and labels sorted by label name.
func makeKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	names := make([]string, 0, len(labels))
	for k := range labels {
		names = append(names, k)
	}
	sort.Strings(names)

	key := name
	for _, k := range names {
		key += fmt.Sprintf("_%s_%s", k, labels[k])
	}
	return key
}

func (c *Collector) updateMetric(key, name string, metricType MetricType, value float64, labels map[string]string) {
	c.metrics[key] = &Metric{
		Name:      name,
		Type:      metricType,
		Value:     value,
		Labels:    labels,
		Timestamp: time.Now(),
	}
}

// Predefined metric names
const (
	MetricSetupTime       = "setup_time"
	MetricCircuitCompile  = "circuit_compile_time"
	MetricProofGeneration = "proof_generation_time"
	MetricProofVerify     = "proof_verification_time"
	MetricVerification    = "verification_count"
	MetricParamTime       = "param_generation_time"
	MetricSolveTime       = "puzzle_solve_time"
	MetricSquarings       = "puzzle_squarings"
	MetricConstraints     = "circuit_constraints"
	MetricErrorCount      = "error_count"
)

// RecordCircuitCompile records the compile time and size of a circuit.
func (c *Collector) RecordCircuitCompile(circuit string, d time.Duration, constraints int) {
	c.RecordHistogram(MetricCircuitCompile, d.Seconds(), map[string]string{"circuit": circuit})
	c.SetGauge(MetricConstraints, float64(constraints), map[string]string{"circuit": circuit})
}

func (c *Collector) RecordSetup(circuit string, d time.Duration) {
	c.RecordHistogram(MetricSetupTime, d.Seconds(), map[string]string{"circuit": circuit})
}

func (c *Collector) RecordProofGeneration(circuit string, d time.Duration) {
	c.RecordHistogram(MetricProofGeneration, d.Seconds(), map[string]string{"circuit": circuit})
}

// RecordVerification counts an outcome and records how long it took.
func (c *Collector) RecordVerification(circuit string, ok bool, d time.Duration) {
	outcome := "rejected"
	if ok {
		outcome = "accepted"
	}
	c.IncrementCounter(MetricVerification, map[string]string{"circuit": circuit, "outcome": outcome})
	c.RecordHistogram(MetricProofVerify, d.Seconds(), map[string]string{"circuit": circuit})
}

// RecordParam records deriving y = g^(2^t) for a new parameter.
func (c *Collector) RecordParam(squarings uint64, d time.Duration) {
	c.RecordHistogram(MetricParamTime, d.Seconds(), nil)
	c.SetGauge(MetricSquarings, float64(squarings), map[string]string{"stage": "param"})
}

func (c *Collector) RecordSolve(squarings uint64, d time.Duration) {
	c.RecordHistogram(MetricSolveTime, d.Seconds(), nil)
	c.SetGauge(MetricSquarings, float64(squarings), nil)
}

func (c *Collector) RecordError(errorType string) {
	c.IncrementCounter(MetricErrorCount, map[string]string{"type": errorType})
}
