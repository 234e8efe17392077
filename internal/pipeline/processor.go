package pipeline

import (
	"context"
	"log/slog"

	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/domain"
	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/report"
)

// Analyzer runs one property analysis. *Engine implements it.
type Analyzer interface {
	Analyze(ctx context.Context, address string) (domain.FusedReport, error)
}

// RequestProcessor implements Processor by running each request through an Analyzer.
type RequestProcessor struct {
	analyzer Analyzer
	logger   *slog.Logger
}

// NewProcessor creates a RequestProcessor.
func NewProcessor(analyzer Analyzer, logger *slog.Logger) *RequestProcessor {
	return &RequestProcessor{
		analyzer: analyzer,
		logger:   logger,
	}
}

// Process decodes the request, analyzes it and serializes the outcome. Analysis
// failures are published as outcomes; only undecodable requests return an error.
func (p *RequestProcessor) Process(ctx context.Context, raw domain.RawMessage) (domain.OutputMessage, error) {
	req, err := domain.ParseAnalysisRequest(raw)
	if err != nil {
		return domain.OutputMessage{}, err
	}

	fused, err := p.analyzer.Analyze(ctx, req.Address)
	outcome := report.NewOutcome(req, fused, err)
	p.logger.Info("request analyzed",
		"request_id", req.RequestID,
		"status", outcome.Status(),
		"failed_provider", outcome.FailedProvider,
	)
	return report.SerializeOutcome(outcome)
}
