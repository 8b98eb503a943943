package observability

import (
	"time"

	"github.com/couchcryptid/canopy-commissioning/internal/domain"
)

// Report sources.
const (
	SourceKafka = "kafka"
	SourceHTTP  = "http"
)

// ObserveReport records a built report context.
func (m *Metrics) ObserveReport(source string, rc domain.ReportContext, elapsed time.Duration) {
	m.ReportsBuilt.WithLabelValues(source).Inc()
	m.ReportBuildDuration.Observe(elapsed.Seconds())
	for _, c := range rc.Canopies {
		m.CanopiesProcessed.WithLabelValues(c.Classification.String()).Inc()
	}
	for _, w := range rc.Warnings {
		m.DegradedEntries.WithLabelValues(w.Reason).Inc()
	}
}
