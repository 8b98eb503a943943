package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/canopy-commissioning/internal/domain"
	"github.com/couchcryptid/canopy-commissioning/internal/observability"
)

// ReportTransformer implements Transformer by building the report context of
// each project snapshot.
type ReportTransformer struct {
	builder *domain.Builder
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewTransformer creates a ReportTransformer around a report builder.
func NewTransformer(builder *domain.Builder, metrics *observability.Metrics, logger *slog.Logger) *ReportTransformer {
	return &ReportTransformer{
		builder: builder,
		metrics: metrics,
		logger:  logger,
	}
}

func (t *ReportTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	project, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	start := time.Now()
	rc, err := t.builder.Build(project)
	if err != nil {
		return domain.OutputEvent{}, err
	}
	t.metrics.ObserveReport(observability.SourceKafka, rc, time.Since(start))

	t.logger.Debug("report built",
		"report_id", rc.ReportID,
		"canopies", len(rc.Canopies),
		"warnings", len(rc.Warnings),
		"offset", raw.Offset,
	)
	return domain.SerializeReport(rc)
}
