package pipeline_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/canopy-commissioning/internal/domain"
	"github.com/couchcryptid/canopy-commissioning/internal/pipeline"
)

func TestReportTransformer_WithMockProjects(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC))
	builder := domain.NewBuilder(nil, domain.BuildOptions{Clock: clock}, slog.Default())
	transformer := pipeline.NewTransformer(builder, newTestMetrics(), slog.Default())

	projects := readMockProjects(t)
	require.Len(t, projects, 3)

	reports := make(map[string]domain.ReportContext, len(projects))
	for _, payload := range projects {
		var in struct {
			ProjectNumber string            `json:"project_number"`
			Canopies      []json.RawMessage `json:"canopies"`
		}
		require.NoError(t, json.Unmarshal(payload, &in))

		out, err := transformer.Transform(context.Background(), domain.RawEvent{
			Key:   []byte(in.ProjectNumber),
			Value: payload,
			Topic: "raw-commissioning-projects",
		})
		require.NoError(t, err)

		var rc domain.ReportContext
		require.NoError(t, json.Unmarshal(out.Value, &rc))
		assert.Equal(t, []byte(rc.ReportID), out.Key)
		assert.Len(t, rc.Canopies, len(in.Canopies))
		assert.Len(t, rc.ExtractResults, len(rc.Canopies))
		assert.Len(t, rc.MarvelCanopies, len(rc.Canopies)-len(rc.StandardCanopies))
		assert.True(t, strings.HasSuffix(rc.Filename, "_20250314.docx"), rc.Filename)
		assert.LessOrEqual(t, rc.Progress.Ratio, 1.0)
		for _, cc := range rc.Canopies {
			assert.NotEmpty(t, cc.Sections, cc.DrawingNumber)
		}
		reports[rc.ProjectNumber] = rc
	}

	t.Run("mixed models", func(t *testing.T) {
		rc := reports["P-100"]
		assert.Equal(t, "2.90", rc.ExtractTotalDesign)
		assert.Equal(t, "1.528", rc.ExtractTotalActual)
		assert.True(t, rc.HasMarvelTechnology)
		assert.Equal(t, "Acme_Kitchens_P-100_Canopy_Commissioning_20250314.docx", rc.Filename)
		require.NotEmpty(t, rc.Warnings)
		assert.Equal(t, domain.ReasonUnknownModel, rc.Warnings[0].Reason)
		assert.Equal(t, 4, rc.Warnings[0].Canopy)
	})

	t.Run("slot and uv models", func(t *testing.T) {
		rc := reports["CR-2041"]
		assert.True(t, rc.HasCMWTechnology)
		assert.True(t, rc.HasUVTechnology)
		assert.NotNil(t, rc.WaterWashChecklist)
		assert.NotNil(t, rc.UVChecklist)
		assert.True(t, rc.EdgeBox.HasEdgeData)
		assert.True(t, rc.HasNotes)
		require.Len(t, rc.SupplyResults, 1)
		assert.Equal(t, "CR-01", rc.SupplyResults[0].DrawingNumber)
		assert.Equal(t, "Cafe_Rouge_CR-2041_Canopy_Commissioning_20250314.docx", rc.Filename)

		var reasons []string
		for _, w := range rc.Warnings {
			reasons = append(reasons, w.Reason)
		}
		assert.Contains(t, reasons, domain.ReasonUnparsableReading)
	})

	t.Run("length based", func(t *testing.T) {
		rc := reports["NC-7"]
		require.Len(t, rc.Canopies, 1)
		require.Len(t, rc.Canopies[0].Sections, 1)
		assert.InDelta(t, 0.716, rc.Canopies[0].ExtractTotalM3s, 1e-9)
		assert.Equal(t, "0.716", rc.ExtractTotalActual)
		assert.Equal(t, "79.6%", rc.ExtractTotalPercentage)
		assert.Empty(t, rc.Warnings)
	})
}

func readMockProjects(t *testing.T) []json.RawMessage {
	t.Helper()

	path := filepath.Join("..", "..", "data", "mock", "commissioning_projects.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var projects []json.RawMessage
	require.NoError(t, json.Unmarshal(data, &projects))
	return projects
}
