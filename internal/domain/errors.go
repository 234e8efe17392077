package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnresolvedJurisdiction means no state signal was found in the geocoded components.
var ErrUnresolvedJurisdiction = errors.New("unresolved jurisdiction: no state found in geocoded address")

// ErrCountyNotFound means no roster entry contains the normalized county name.
var ErrCountyNotFound = errors.New("county not found in state roster")

// UnknownStateError means a state signal was found but matches no US state or DC.
type UnknownStateError struct {
	Value string
}

func (e *UnknownStateError) Error() string {
	return fmt.Sprintf("unknown state %q", e.Value)
}

// AmbiguousJurisdictionError means a county name matched several roster entries and
// none of them is an exact match.
type AmbiguousJurisdictionError struct {
	County  string
	Matches []string
}

func (e *AmbiguousJurisdictionError) Error() string {
	return fmt.Sprintf("ambiguous county %q matches %s", e.County, strings.Join(e.Matches, "; "))
}

// EssentialProviderError is the terminal failure of an analysis whose essential
// provider (geocoding or demographics) was unavailable.
type EssentialProviderError struct {
	Provider string
	Reason   string
}

func (e *EssentialProviderError) Error() string {
	return fmt.Sprintf("essential provider %s unavailable: %s", e.Provider, e.Reason)
}

// OptionalProviderDegradedError records an optional provider failure that was
// absorbed by the degradation policy. It is kept on the report, never returned.
type OptionalProviderDegradedError struct {
	Provider string `json:"provider"`
	Reason   string `json:"reason"`
}

func (e *OptionalProviderDegradedError) Error() string {
	return fmt.Sprintf("optional provider %s degraded: %s", e.Provider, e.Reason)
}

// IsFatal reports whether err aborts an analysis. Jurisdiction and essential-provider
// errors are fatal; everything absorbed into provenance is not.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var unknown *UnknownStateError
	var essential *EssentialProviderError
	return errors.Is(err, ErrUnresolvedJurisdiction) ||
		errors.Is(err, ErrEmptyAddress) ||
		errors.As(err, &unknown) ||
		errors.As(err, &essential)
}
