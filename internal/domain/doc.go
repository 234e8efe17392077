// Package domain models the data fused into a property intelligence report.
//
// # Jurisdictions
//
// Demographic lookups are keyed by FIPS codes published by the US Census Bureau:
//
//	State:  two digits, e.g. "51" = Virginia, "12" = Florida, "11" = District of Columbia.
//	County: three digits, unique only within a state, e.g. "153" = Prince William County (VA).
//
// Geocoders do not speak FIPS. They return free-text names in their own vocabularies:
//
//	Google Maps: administrative_area_level_1 = "Virginia", administrative_area_level_2 = "Prince William County"
//	Mapbox:      region = "Virginia" (short_code "US-VA"), district = "Prince William County"
//	Any:         formatted_address = "3650 Dunigan Ct, Catharpin, VA 20143, USA"
//
// Adapters copy whatever they receive into [AddressComponents] under the keys defined in
// this package, and [Resolver] turns them into a [JurisdictionMatch]. State signals are
// read in priority order (level-1 field, generic "state" field, the two-letter code that
// precedes a ZIP code in the formatted address) and validated against the 50-state + DC
// table. County names are normalized by stripping "County", "Parish", "Borough" and
// "Census Area" and matched as substrings against the county roster the demographics
// provider returns for the state, so "miami-dade" finds "Miami-Dade County, Florida".
//
// # Granularity
//
// A county FIPS code present on the match means demographics describe one county;
// its absence means they describe the whole state. The two differ by orders of magnitude
// (Prince William County, VA has ~480,000 residents; Virginia has ~8.6 million), so the
// chosen [Granularity] is carried on the payload and in its source label.
//
// # Provenance
//
// Every adapter call produces exactly one [ProviderResult]: Success, Degraded or
// Unavailable. Success and Degraded carry a human-readable source label naming the
// backing service. When an optional provider is Unavailable, the fixed substitutes in
// degrade.go are used instead and the label says so ("... unavailable", "Conservative
// estimate ..."). Substitutes never depend on the address: a placeholder must never
// look like location-specific data.
package domain
