package observability

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/canopy-commissioning/internal/config"
	"github.com/couchcryptid/canopy-commissioning/internal/domain"
)

func TestNewLogger_Level(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	cases := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tc := range cases {
		t.Run(tc.level, func(t *testing.T) {
			logger := NewLogger(&config.Config{LogLevel: tc.level, LogFormat: "json"})
			ctx := context.Background()
			assert.True(t, logger.Enabled(ctx, tc.want))
			assert.False(t, logger.Enabled(ctx, tc.want-1))
			assert.Same(t, logger, slog.Default())
		})
	}
}

func TestMetrics_ObserveReport(t *testing.T) {
	m := NewMetricsForTesting()
	rc := domain.ReportContext{
		Canopies: []domain.CanopyContext{
			{Classification: domain.SectionBased},
			{Classification: domain.SectionBased},
			{Classification: domain.GrillAnemometer},
		},
		Warnings: []domain.Warning{{Canopy: 3, Reason: domain.ReasonUnparsableGeometry}},
	}

	m.ObserveReport(SourceHTTP, rc, 2*time.Millisecond)

	assert.InDelta(t, 1.0, testutil.ToFloat64(m.ReportsBuilt.WithLabelValues(SourceHTTP)), 0)
	assert.InDelta(t, 2.0, testutil.ToFloat64(m.CanopiesProcessed.WithLabelValues("section_based")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.CanopiesProcessed.WithLabelValues("grill_anemometer")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.DegradedEntries.WithLabelValues(domain.ReasonUnparsableGeometry)), 0)
}
