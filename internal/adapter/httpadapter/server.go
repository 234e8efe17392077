package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/domain"
	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/report"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxRequestBytes bounds the analysis request body.
const maxRequestBytes = 64 << 10

// Analyzer runs one property analysis.
type Analyzer interface {
	Analyze(ctx context.Context, address string) (domain.FusedReport, error)
}

// Server exposes health, readiness and metrics endpoints and, when an Analyzer
// is given, the synchronous analysis endpoint.
type Server struct {
	httpServer *http.Server
	analyzer   Analyzer
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz and /metrics routes,
// plus POST /v1/analyses when analyzer is non-nil.
func NewServer(addr string, ready sharedobs.ReadinessChecker, analyzer Analyzer, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 90 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		analyzer: analyzer,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	if analyzer != nil {
		mux.HandleFunc("POST /v1/analyses", s.handleAnalyze)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type analyzeRequest struct {
	Address string `json:"address"`
}

type errorResponse struct {
	Error          string `json:"error"`
	FailedProvider string `json:"failed_provider,omitempty"`
}

// handleAnalyze serves POST /v1/analyses. The optional format query parameter
// selects json (default), yaml or text.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = report.FormatJSON
	}
	contentType, ok := contentTypes[format]
	if !ok {
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown format " + format})
		return
	}

	fused, err := s.analyzer.Analyze(r.Context(), req.Address)
	if err != nil {
		status, body := errorStatus(err)
		sharedobs.WriteJSON(w, status, body)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if err := report.Encode(w, report.Format(fused), format); err != nil {
		s.logger.Warn("write analysis response failed", "error", err)
	}
}

var contentTypes = map[string]string{
	report.FormatJSON: "application/json",
	report.FormatYAML: "application/yaml",
	report.FormatText: "text/plain; charset=utf-8",
}

// errorStatus maps analysis errors: an empty address is the caller's fault,
// an essential provider outage is a bad gateway, and an address outside the
// supported jurisdictions is unprocessable.
func errorStatus(err error) (int, errorResponse) {
	body := errorResponse{Error: err.Error()}
	var essential *domain.EssentialProviderError
	switch {
	case errors.Is(err, domain.ErrEmptyAddress):
		return http.StatusBadRequest, body
	case errors.As(err, &essential):
		body.FailedProvider = essential.Provider
		return http.StatusBadGateway, body
	case domain.IsFatal(err):
		return http.StatusUnprocessableEntity, body
	default:
		return http.StatusInternalServerError, body
	}
}
