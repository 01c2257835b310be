// Package mrtstats is a small decode-path metrics bundle, mirroring the
// teacher's internal/metrics/metrics.go shape: CounterVec/HistogramVec
// collectors plus a Register step.
//
// Unlike the teacher, this is a library, not a service with one process-wide
// default registry, so the collectors live on an instantiable Metrics value
// that a caller registers against whichever prometheus.Registerer they own,
// rather than package-level vars registered against prometheus's global
// default registry at init time.
package mrtstats

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the decode-path counters and histograms this module
// exposes. The zero value is not ready to use — build one with New.
type Metrics struct {
	// RecordsDecoded counts successfully decoded records by type (e.g.
	// "bgp4mp", "table_dump_v2", "rib_afi_entries", "route_monitoring").
	RecordsDecoded *prometheus.CounterVec

	// ParseErrorsTotal counts decode failures by stage and reason, reusing
	// the teacher's own label set verbatim — it already fits a decode error
	// taxonomy as well as a service's.
	ParseErrorsTotal *prometheus.CounterVec

	// AttributeDecodeDuration times one record's path-attribute decode pass.
	AttributeDecodeDuration *prometheus.HistogramVec
}

// New builds a Metrics bundle with its collectors constructed but not yet
// registered against any registry.
func New() *Metrics {
	return &Metrics{
		RecordsDecoded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mrtkit_records_decoded_total",
				Help: "Total MRT and BMP records successfully decoded, by record type.",
			},
			[]string{"record_type"},
		),
		ParseErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mrtkit_parse_errors_total",
				Help: "Decode failures by stage.",
			},
			[]string{"stage", "reason"},
		),
		AttributeDecodeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mrtkit_attribute_decode_duration_seconds",
				Help:    "Time spent decoding one record's path attributes.",
				Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
			},
			[]string{"stage"},
		),
	}
}

// Register registers every collector against reg, stopping at the first
// failure (most commonly a duplicate registration against a registry the
// caller already used).
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.RecordsDecoded, m.ParseErrorsTotal, m.AttributeDecodeDuration} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// WarnUnsupported returns a func matching mrt.Options.WarnUnsupported's
// signature, scoped to stage: every call increments ParseErrorsTotal with
// reason as the label value.
func (m *Metrics) WarnUnsupported(stage string) func(reason string) {
	return func(reason string) {
		m.ParseErrorsTotal.WithLabelValues(stage, reason).Inc()
	}
}

// ObserveRecord increments RecordsDecoded for one successfully decoded
// record of the given type.
func (m *Metrics) ObserveRecord(recordType string) {
	m.RecordsDecoded.WithLabelValues(recordType).Inc()
}

// TimeAttributeDecode starts a timer for one record's attribute decode
// pass; call the returned func when decoding that record's attributes
// finishes.
func (m *Metrics) TimeAttributeDecode(stage string) func() {
	start := time.Now()
	return func() {
		m.AttributeDecodeDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}
