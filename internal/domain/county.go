package domain

import (
	"strings"
)

// countyDesignators are stripped from the end of county names, longest first so
// "Juneau City and Borough" loses the whole suffix rather than just "Borough".
var countyDesignators = []string{
	" city and borough",
	" census area",
	" county",
	" parish",
	" borough",
}

// County is one entry of a state's county roster as returned by the demographics provider.
type County struct {
	Name      string // full name, e.g. "Prince William County, Virginia"
	StateFIPS string
	FIPS      string
}

// BaseName is the normalized county name without the trailing ", <State>".
func (c County) BaseName() string {
	name := c.Name
	if i := strings.LastIndex(name, ","); i >= 0 {
		name = name[:i]
	}
	return NormalizeCountyName(name)
}

// NormalizeCountyName lowercases a county name, collapses whitespace, and strips a
// trailing designator: "Prince William County" -> "prince william".
func NormalizeCountyName(name string) string {
	n := strings.ToLower(strings.Join(strings.Fields(name), " "))
	for _, d := range countyDesignators {
		if strings.HasSuffix(n, d) {
			n = strings.TrimSuffix(n, d)
			break
		}
	}
	return strings.TrimSpace(n)
}

// MatchCounty finds the roster entry whose full name contains the normalized
// candidate, case-insensitively. When several entries contain it, an entry whose
// BaseName equals the candidate wins ("fairfax" picks "Fairfax County" over
// "Fairfax city"); with no such unique entry the match is ambiguous.
func MatchCounty(roster []County, candidate string) (County, error) {
	needle := NormalizeCountyName(candidate)
	if needle == "" {
		return County{}, ErrCountyNotFound
	}

	var matches []County
	for _, c := range roster {
		if strings.Contains(strings.ToLower(c.Name), needle) {
			matches = append(matches, c)
		}
	}

	switch len(matches) {
	case 0:
		return County{}, ErrCountyNotFound
	case 1:
		return matches[0], nil
	}

	var exact []County
	for _, c := range matches {
		if c.BaseName() == needle {
			exact = append(exact, c)
		}
	}
	if len(exact) == 1 {
		return exact[0], nil
	}

	names := make([]string, len(matches))
	for i, c := range matches {
		names[i] = c.Name
	}
	return County{}, &AmbiguousJurisdictionError{County: needle, Matches: names}
}
