package httpadapter

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/canopy-commissioning/internal/config"
	"github.com/couchcryptid/canopy-commissioning/internal/domain"
	"github.com/couchcryptid/canopy-commissioning/internal/observability"
)

// ReportAPI serves report contexts, portable links and the model catalogue.
type ReportAPI struct {
	builder      *domain.Builder
	metrics      *observability.Metrics
	shareBaseURL string
	maxBytes     int64
	logger       *slog.Logger
}

// NewReportAPI creates the /v1 handlers around a report builder.
func NewReportAPI(builder *domain.Builder, metrics *observability.Metrics, cfg *config.Config, logger *slog.Logger) *ReportAPI {
	return &ReportAPI{
		builder:      builder,
		metrics:      metrics,
		shareBaseURL: cfg.ShareBaseURL,
		maxBytes:     cfg.MaxRequestBytes,
		logger:       logger,
	}
}

// LinkResponse is the body returned by POST /v1/links.
type LinkResponse struct {
	Data string `json:"data"`
	URL  string `json:"url"`
}

func (a *ReportAPI) register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/reports", a.handleBuildReport)
	mux.HandleFunc("GET /v1/reports", a.handleBuildReportFromLink)
	mux.HandleFunc("POST /v1/links", a.handleEncodeLink)
	mux.HandleFunc("GET /v1/links/{data}", a.handleDecodeLink)
	mux.HandleFunc("GET /v1/models", a.handleListModels)
	mux.HandleFunc("GET /v1/models/{code}", a.handleGetModel)
}

func (a *ReportAPI) handleBuildReport(w http.ResponseWriter, r *http.Request) {
	body, err := a.readBody(w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	p, err := domain.ParseProject(body)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.buildAndWrite(w, r, p)
}

// handleBuildReportFromLink builds the report of a share URL's data parameter.
func (a *ReportAPI) handleBuildReportFromLink(w http.ResponseWriter, r *http.Request) {
	link := domain.LinkFromShareURL(r.URL.RequestURI())
	if link == r.URL.RequestURI() {
		a.writeError(w, r, fmt.Errorf("%w: missing data parameter", domain.ErrInvalidLink))
		return
	}
	p, err := domain.DecodeLink(link)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.buildAndWrite(w, r, p)
}

func (a *ReportAPI) buildAndWrite(w http.ResponseWriter, r *http.Request, p domain.Project) {
	start := time.Now()
	rc, err := a.builder.Build(p)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.metrics.ObserveReport(observability.SourceHTTP, rc, time.Since(start))
	a.logger.Debug("report built",
		"report_id", rc.ReportID,
		"canopies", len(rc.Canopies),
		"warnings", len(rc.Warnings),
	)
	a.write(w, r, http.StatusOK, rc)
}

func (a *ReportAPI) handleEncodeLink(w http.ResponseWriter, r *http.Request) {
	body, err := a.readBody(w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	p, err := domain.ParseProject(body)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	data, err := domain.EncodeLink(p)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	shareURL, err := domain.ShareURL(a.shareBaseURL, p)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.write(w, r, http.StatusOK, LinkResponse{Data: data, URL: shareURL})
}

func (a *ReportAPI) handleDecodeLink(w http.ResponseWriter, r *http.Request) {
	p, err := domain.DecodeLink(r.PathValue("data"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.write(w, r, http.StatusOK, p)
}

func (a *ReportAPI) handleListModels(w http.ResponseWriter, r *http.Request) {
	a.write(w, r, http.StatusOK, a.builder.Registry().ModelInfos())
}

func (a *ReportAPI) handleGetModel(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(r.PathValue("code"))
	d, ok := a.builder.Registry().Lookup(code)
	if !ok {
		a.writeError(w, r, fmt.Errorf("%w: %q", domain.ErrUnknownModel, code))
		return
	}
	a.write(w, r, http.StatusOK, d.Info())
}

func (a *ReportAPI) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, a.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	return body, nil
}

func (a *ReportAPI) write(w http.ResponseWriter, r *http.Request, status int, v any) {
	if err := writeResponse(w, r, status, v); err != nil {
		a.logger.Warn("write response failed", "path", r.URL.Path, "error", err)
	}
}

func (a *ReportAPI) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	a.write(w, r, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrUnknownModel):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidProject), errors.Is(err, domain.ErrInvalidLink):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
