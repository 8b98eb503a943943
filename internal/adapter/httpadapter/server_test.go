package httpadapter_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/couchcryptid/canopy-commissioning/internal/adapter/httpadapter"
	"github.com/couchcryptid/canopy-commissioning/internal/config"
	"github.com/couchcryptid/canopy-commissioning/internal/domain"
	"github.com/couchcryptid/canopy-commissioning/internal/observability"
)

const projectJSON = `{
	"report_type": "Canopy Commissioning",
	"client_name": "Acme Kitchens",
	"project_number": "P-100",
	"canopies": [{
		"drawing_number": "D-1",
		"canopy_model": "KVF",
		"design_airflow": 0.5,
		"number_of_sections": 2,
		"sections": [
			{"extract_ksa": 1, "extract_tab_reading": "100"},
			{"extract_ksa": 2, "extract_tab_reading": "25"}
		]
	}]
}`

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type testEnv struct {
	srv     *httpadapter.Server
	metrics *observability.Metrics
}

func newTestServer(readyErr error, maxBytes int64) testEnv {
	clock := clockwork.NewFakeClockAt(time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC))
	builder := domain.NewBuilder(nil, domain.BuildOptions{Clock: clock}, slog.Default())
	metrics := observability.NewMetricsForTesting()
	cfg := &config.Config{ShareBaseURL: "https://reports.example.com/", MaxRequestBytes: maxBytes}
	api := httpadapter.NewReportAPI(builder, metrics, cfg, slog.Default())
	return testEnv{
		srv:     httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, api, slog.Default()),
		metrics: metrics,
	}
}

func serve(env testEnv, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	env.srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := serve(newTestServer(nil, 1<<20), http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := serve(newTestServer(nil, 1<<20), http.MethodGet, "/readyz", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := serve(newTestServer(fmt.Errorf("not ready yet"), 1<<20), http.MethodGet, "/readyz", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := serve(newTestServer(nil, 1<<20), http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestHealthOnlyServer(t *testing.T) {
	srv := httpadapter.NewServer(":0", &mockReadiness{}, nil, slog.Default())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/models", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBuildReport(t *testing.T) {
	env := newTestServer(nil, 1<<20)
	rec := serve(env, http.MethodPost, "/v1/reports", projectJSON)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var rc domain.ReportContext
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rc))
	assert.NotEmpty(t, rc.ReportID)
	assert.Equal(t, "2025-03-14", rc.GenerationDate)
	require.Len(t, rc.Canopies, 1)
	assert.InDelta(t, 0.399, rc.Canopies[0].ExtractTotalM3s, 1e-9)
	require.Len(t, rc.ExtractResults, 1)
	assert.Equal(t, "79.8%", rc.ExtractResults[0].Percentage)
	assert.Equal(t, "Acme_Kitchens_P-100_Canopy_Commissioning_20250314.docx", rc.Filename)

	assert.InDelta(t, 1.0, testutil.ToFloat64(env.metrics.ReportsBuilt.WithLabelValues(observability.SourceHTTP)), 0)
}

func TestBuildReport_Msgpack(t *testing.T) {
	rec := serve(newTestServer(nil, 1<<20), http.MethodPost, "/v1/reports?format=msgpack", projectJSON)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-msgpack", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "P-100", body["project_number"])
	assert.Equal(t, "0.50", body["extract_total_design"])

	canopies, ok := body["canopies"].([]any)
	require.True(t, ok)
	require.Len(t, canopies, 1)
	canopy, ok := canopies[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "section_based", canopy["classification"])

	var typed struct {
		Canopies []struct {
			Classification domain.Classification `msgpack:"classification"`
		} `msgpack:"canopies"`
	}
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &typed))
	require.Len(t, typed.Canopies, 1)
	assert.Equal(t, domain.SectionBased, typed.Canopies[0].Classification)
}

func TestBuildReport_InvalidBody(t *testing.T) {
	for _, body := range []string{"[1,2,3]", `{"canopies": "none"}`, "not json"} {
		rec := serve(newTestServer(nil, 1<<20), http.MethodPost, "/v1/reports", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Contains(t, resp["error"], "invalid project record")
	}
}

func TestBuildReport_BodyTooLarge(t *testing.T) {
	rec := serve(newTestServer(nil, 16), http.MethodPost, "/v1/reports", projectJSON)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestLinkRoundTrip(t *testing.T) {
	env := newTestServer(nil, 1<<20)

	rec := serve(env, http.MethodPost, "/v1/links", projectJSON)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var link httpadapter.LinkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &link))
	require.NotEmpty(t, link.Data)
	assert.Equal(t, "https://reports.example.com/?data="+link.Data, link.URL)

	rec = serve(env, http.MethodGet, "/v1/links/"+link.Data, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var decoded domain.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Equal(t, "P-100", decoded.ProjectNumber)
	require.Len(t, decoded.Canopies, 1)
	assert.Equal(t, "KVF", decoded.Canopies[0].ModelCode)

	rec = serve(env, http.MethodGet, "/v1/reports?data="+link.Data, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var rc domain.ReportContext
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rc))
	assert.Equal(t, "P-100", rc.ProjectNumber)
}

func TestDecodeLink_Invalid(t *testing.T) {
	rec := serve(newTestServer(nil, 1<<20), http.MethodGet, "/v1/links/%25%25%25", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBuildReportFromLink_MissingData(t *testing.T) {
	rec := serve(newTestServer(nil, 1<<20), http.MethodGet, "/v1/reports", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListModels(t *testing.T) {
	rec := serve(newTestServer(nil, 1<<20), http.MethodGet, "/v1/models", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var models []map[string]any
	require.NoError(t, json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&models))
	assert.Len(t, models, len(domain.DefaultRegistry().Models()))
}

func TestGetModel(t *testing.T) {
	env := newTestServer(nil, 1<<20)

	rec := serve(env, http.MethodGet, "/v1/models/cxw", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var info map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "CXW", info["code"])
	assert.Equal(t, "grill_anemometer", info["classification"])

	rec = serve(env, http.MethodGet, "/v1/models/XYZ", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(env, http.MethodGet, "/v1/models/cxw?format=msgpack", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var packed map[string]any
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &packed))
	assert.Equal(t, "grill_anemometer", packed["classification"])
}
