package newsroom

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jgraeger/contentfeeds/internal/content"
	"github.com/jgraeger/contentfeeds/internal/feed"
	"github.com/jgraeger/contentfeeds/internal/search"
)

type Metrics struct {
	duration      *prometheus.HistogramVec
	errors        *prometheus.CounterVec
	skippedEvents prometheus.Counter
}

// NewMetrics creates the service collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "contentfeeds",
			Name:      "operation_duration_seconds",
			Help:      "Time spent producing a feed, calendar or entry list",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contentfeeds",
			Name:      "operation_errors_total",
			Help:      "Failed operations by error kind",
		}, []string{"operation", "kind"}),
		skippedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "contentfeeds",
			Name:      "calendar_events_skipped_total",
			Help:      "Events left out of calendars because they failed to convert",
		}),
	}
	reg.MustRegister(m.duration, m.errors, m.skippedEvents)

	return m
}

func (m *Metrics) observe(operation string, started time.Time, err error) {
	m.duration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
	if err != nil {
		m.errors.WithLabelValues(operation, errorKind(err)).Inc()
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, content.ErrInvalidLocale):
		return "invalid_locale"
	case errors.Is(err, search.ErrNotFound):
		return "not_found"
	case errors.Is(err, search.ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, feed.ErrConversion):
		return "conversion"
	case errors.Is(err, feed.ErrSerialization):
		return "serialization"
	}
	return "other"
}
