package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrMalformedRequest marks a request message that cannot be analyzed at all.
var ErrMalformedRequest = errors.New("malformed analysis request")

// RawMessage is an unprocessed message from the request topic.
type RawMessage struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputMessage is the serialized form destined for the outcome topic.
type OutputMessage struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// AnalysisRequest asks the worker to analyze one address.
type AnalysisRequest struct {
	RequestID string `json:"request_id"`
	Address   string `json:"address"`
}

// ParseAnalysisRequest decodes a request message. A missing request id falls
// back to the message key, then to a fresh UUID.
func ParseAnalysisRequest(raw RawMessage) (AnalysisRequest, error) {
	var req AnalysisRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return AnalysisRequest{}, fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}
	if _, err := NormalizeAddress(req.Address); err != nil {
		return AnalysisRequest{}, fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}
	if req.RequestID == "" {
		req.RequestID = string(raw.Key)
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	return req, nil
}
