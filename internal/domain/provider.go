package domain

import (
	"context"
	"errors"
	"net"
)

// Provider names, used in errors, metrics and degradation records.
const (
	ProviderGeocoding        = "geocoding"
	ProviderDemographics     = "demographics"
	ProviderPointsOfInterest = "points-of-interest"
	ProviderClimate          = "climate"
)

// ReasonTimeout is the Unavailable reason for a provider call that hit its deadline.
const ReasonTimeout = "timeout"

// Criticality decides whether a provider failure aborts the analysis.
type Criticality string

const (
	Essential Criticality = "essential"
	Optional  Criticality = "optional"
)

// Status is the variant of a ProviderResult.
type Status int

const (
	StatusSuccess Status = iota
	StatusDegraded
	StatusUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusDegraded:
		return "degraded"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// ProviderResult is the outcome of one adapter call. Payload and Source are set for
// Success and Degraded; Reason is set for Degraded and Unavailable.
type ProviderResult struct {
	Status  Status
	Payload Payload
	Source  string
	Reason  string
}

// Success wraps a payload produced by the named source.
func Success(payload Payload, source string) ProviderResult {
	return ProviderResult{Status: StatusSuccess, Payload: payload, Source: source}
}

// Degraded wraps a usable payload that is less precise than requested.
func Degraded(payload Payload, source, reason string) ProviderResult {
	return ProviderResult{Status: StatusDegraded, Payload: payload, Source: source, Reason: reason}
}

// Unavailable reports that the provider produced nothing usable.
func Unavailable(reason string) ProviderResult {
	return ProviderResult{Status: StatusUnavailable, Reason: reason}
}

// Available is true for Success and Degraded results.
func (r ProviderResult) Available() bool {
	return r.Status != StatusUnavailable && r.Payload != nil
}

// Request is the immutable input handed to every adapter. Geocoding adapters read
// only Address; the others run after geocoding and resolution have filled the rest.
type Request struct {
	Address      string
	Coordinates  Coordinates
	Jurisdiction JurisdictionMatch
}

// Adapter wraps one external data source. Fetch never returns an error: every
// failure is reported as Unavailable with a reason.
type Adapter interface {
	Name() string
	Criticality() Criticality
	Fetch(ctx context.Context, req Request) ProviderResult
}

// ReasonFromError turns a provider error into an Unavailable reason. Deadline and
// network timeouts collapse to ReasonTimeout.
func ReasonFromError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}
	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}
	return err.Error()
}
