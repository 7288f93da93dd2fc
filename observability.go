// observability.go: Recognition metrics collection
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package selectocr

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Metric names recorded by the recognition flow.
const (
	MetricRecognitionsTotal     = "selectocr_recognitions_total"
	MetricRecognitionSeconds    = "selectocr_recognition_duration_seconds"
	MetricActiveRecognitions    = "selectocr_recognitions_active"
	MetricRecognizedCharacters  = "selectocr_recognized_characters"
	MetricInterceptorDispatches = "selectocr_interceptor_dispatches_total"
)

// MetricsCollector receives flow metrics. Implementations must be safe for
// concurrent use.
//
// Example usage:
//
//	collector.IncrementCounter("selectocr_recognitions_total",
//	    map[string]string{"outcome": "inserted"}, 1)
//	collector.RecordHistogram("selectocr_recognition_duration_seconds",
//	    map[string]string{"outcome": "inserted"}, 0.125)
type MetricsCollector interface {
	IncrementCounter(name string, labels map[string]string, value int64)
	SetGauge(name string, labels map[string]string, value float64)
	RecordHistogram(name string, labels map[string]string, value float64)
	GetMetrics() map[string]interface{}
}

// DefaultMetricsCollector keeps metrics in memory, keyed by name and sorted labels.
type DefaultMetricsCollector struct {
	metrics map[string]interface{}
	mu      sync.RWMutex
}

// NewDefaultMetricsCollector creates an empty in-memory collector.
func NewDefaultMetricsCollector() *DefaultMetricsCollector {
	return &DefaultMetricsCollector{
		metrics: make(map[string]interface{}),
	}
}

func (dmc *DefaultMetricsCollector) IncrementCounter(name string, labels map[string]string, value int64) {
	dmc.mu.Lock()
	defer dmc.mu.Unlock()
	key := MetricKey(name, labels)
	if counter, ok := dmc.metrics[key].(int64); ok {
		dmc.metrics[key] = counter + value
		return
	}
	dmc.metrics[key] = value
}

func (dmc *DefaultMetricsCollector) SetGauge(name string, labels map[string]string, value float64) {
	dmc.mu.Lock()
	defer dmc.mu.Unlock()
	dmc.metrics[MetricKey(name, labels)] = value
}

func (dmc *DefaultMetricsCollector) RecordHistogram(name string, labels map[string]string, value float64) {
	dmc.mu.Lock()
	defer dmc.mu.Unlock()
	key := MetricKey(name, labels)
	if histogram, ok := dmc.metrics[key].([]float64); ok {
		dmc.metrics[key] = append(histogram, value)
		return
	}
	dmc.metrics[key] = []float64{value}
}

// GetMetrics returns a copy of the current values. Histogram slices are copied too.
func (dmc *DefaultMetricsCollector) GetMetrics() map[string]interface{} {
	dmc.mu.RLock()
	defer dmc.mu.RUnlock()
	result := make(map[string]interface{}, len(dmc.metrics))
	for k, v := range dmc.metrics {
		if histogram, ok := v.([]float64); ok {
			v = append([]float64(nil), histogram...)
		}
		result[k] = v
	}
	return result
}

// MetricKey builds the storage key used by DefaultMetricsCollector, e.g.
// selectocr_recognitions_total{outcome=inserted}.
func MetricKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	parts := make([]string, 0, len(labels))
	for k, v := range labels {
		parts = append(parts, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(parts)
	return fmt.Sprintf("%s{%s}", name, strings.Join(parts, ","))
}

// recordRecognition records the outcome of one flow run.
func recordRecognition(collector MetricsCollector, result RecognitionResult) {
	if collector == nil {
		return
	}
	labels := map[string]string{"outcome": result.Outcome.String()}
	collector.IncrementCounter(MetricRecognitionsTotal, labels, 1)
	collector.RecordHistogram(MetricRecognitionSeconds, labels, result.Elapsed.Seconds())
	if result.Outcome == OutcomeInserted {
		collector.RecordHistogram(MetricRecognizedCharacters, nil, float64(len([]rune(result.Text))))
	}
}
