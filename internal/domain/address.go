package domain

import (
	"errors"
	"regexp"
	"strings"
)

// ErrEmptyAddress is returned when an address has no usable text after normalization.
var ErrEmptyAddress = errors.New("address is empty")

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	commaRunRe   = regexp.MustCompile(`\s*,[\s,]*`)
)

// Address is a structured property address as submitted by a caller.
type Address struct {
	Street string `json:"street,omitempty"`
	City   string `json:"city,omitempty"`
	State  string `json:"state,omitempty"`
	Zip    string `json:"zip,omitempty"`
}

// String renders the one-line form geocoders expect: "street, city, state zip".
func (a Address) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{a.Street, a.City} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	tail := strings.TrimSpace(strings.TrimSpace(a.State) + " " + strings.TrimSpace(a.Zip))
	if tail != "" {
		parts = append(parts, tail)
	}
	return strings.Join(parts, ", ")
}

// NormalizeAddress collapses whitespace and stray commas so that identical
// addresses typed differently produce the same provider queries.
func NormalizeAddress(raw string) (string, error) {
	s := whitespaceRe.ReplaceAllString(strings.TrimSpace(raw), " ")
	s = commaRunRe.ReplaceAllString(s, ", ")
	s = strings.Trim(s, ", ")
	if s == "" {
		return "", ErrEmptyAddress
	}
	return s, nil
}

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// IsZero reports whether no position was set.
func (c Coordinates) IsZero() bool { return c.Lat == 0 && c.Lon == 0 }

// Keys used in AddressComponents. Geocoding adapters translate their own vocabulary
// into these; the resolver reads them in a fixed priority order.
const (
	ComponentAdminLevel1      = "administrative_area_level_1"
	ComponentAdminLevel2      = "administrative_area_level_2"
	ComponentState            = "state"
	ComponentCounty           = "county"
	ComponentLocality         = "locality"
	ComponentNeighborhood     = "neighborhood"
	ComponentPostalCode       = "postal_code"
	ComponentStreet           = "street"
	ComponentCountry          = "country"
	ComponentFormattedAddress = "formatted_address"
)

// AddressComponents maps component keys to the free-text values a geocoder returned.
type AddressComponents map[string]string

// Get returns the trimmed value for key, or "" when absent.
func (c AddressComponents) Get(key string) string {
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c[key])
}
