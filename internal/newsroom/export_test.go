package newsroom

import "github.com/prometheus/client_golang/prometheus"

func (m *Metrics) SkippedEvents() prometheus.Counter {
	return m.skippedEvents
}

func (m *Metrics) Errors(operation, kind string) prometheus.Counter {
	return m.errors.WithLabelValues(operation, kind)
}
