// Package metrics exports Prometheus counters describing decoded terminal
// input.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/phroun/termevents/event"
)

// Metrics holds the input decoding counters. It implements input.Observer.
type Metrics struct {
	EventsTotal       *prometheus.CounterVec
	BytesTotal        prometheus.Counter
	UnknownBytesTotal prometheus.Counter
	BufferFullTotal   prometheus.Counter

	registry *prometheus.Registry
}

// New registers the counters with a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		EventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "termevents_events_total",
				Help: "Total number of decoded input events",
			},
			[]string{"kind"},
		),
		BytesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "termevents_input_bytes_total",
				Help: "Total number of input bytes consumed by decoded events",
			},
		),
		UnknownBytesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "termevents_unknown_bytes_total",
				Help: "Total number of input bytes which could not be interpreted",
			},
		),
		BufferFullTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "termevents_buffer_full_total",
				Help: "Number of times decoding stopped on an unterminated sequence filling the input buffer",
			},
		),
	}
}

// ObserveEvent counts ev under its kind along with the bytes it consumed.
func (m *Metrics) ObserveEvent(ev event.Event, consumed int) {
	m.EventsTotal.WithLabelValues(event.Kind(ev)).Inc()
	m.BytesTotal.Add(float64(consumed))
	if _, ok := ev.(event.UnknownEvent); ok {
		m.UnknownBytesTotal.Add(float64(consumed))
	}
}

// ObserveBufferFull counts a buffer overflow.
func (m *Metrics) ObserveBufferFull() {
	m.BufferFullTotal.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
