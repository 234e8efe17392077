package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/domain"
)

// Outcome statuses, also published as the "status" message header.
const (
	StatusComplete = "complete"
	StatusDegraded = "degraded"
	StatusFailed   = "failed"
)

// Outcome is published once per analysis request. Exactly one of Report and
// Error is set; FailedProvider names the essential provider behind a failure.
type Outcome struct {
	RequestID      string    `json:"request_id"`
	Address        string    `json:"address"`
	Report         *Report   `json:"report,omitempty"`
	Error          string    `json:"error,omitempty"`
	FailedProvider string    `json:"failed_provider,omitempty"`
	ProcessedAt    time.Time `json:"processed_at"`
}

// NewOutcome builds the outcome for a finished analysis. A successful analysis
// carries the same Report that Format produces for the API and CLI.
func NewOutcome(req domain.AnalysisRequest, fused domain.FusedReport, err error) Outcome {
	out := Outcome{
		RequestID:   req.RequestID,
		Address:     req.Address,
		ProcessedAt: domain.Now(),
	}
	if err != nil {
		out.Error = err.Error()
		var essential *domain.EssentialProviderError
		if errors.As(err, &essential) {
			out.FailedProvider = essential.Provider
		}
		return out
	}
	rep := Format(fused)
	out.Report = &rep
	return out
}

// Status is StatusComplete, StatusDegraded or StatusFailed.
func (o Outcome) Status() string {
	switch {
	case o.Report == nil:
		return StatusFailed
	case o.Report.Partial():
		return StatusDegraded
	default:
		return StatusComplete
	}
}

// SerializeOutcome marshals an outcome into an OutputMessage keyed by request id.
func SerializeOutcome(o Outcome) (domain.OutputMessage, error) {
	data, err := json.Marshal(o)
	if err != nil {
		return domain.OutputMessage{}, fmt.Errorf("serialize analysis outcome: %w", err)
	}
	return domain.OutputMessage{
		Key:   []byte(o.RequestID),
		Value: data,
		Headers: map[string]string{
			"status":       o.Status(),
			"processed_at": o.ProcessedAt.Format(time.RFC3339),
		},
	}, nil
}
