// Package domain models the weather snapshot published by the daemon and the
// provider payloads it is built from.
//
// # Data Source
//
// Upstream data comes from the Google Maps Weather API (or any provider that
// speaks the same shape). Three lookups are made per poll cycle, all keyed by
// the same latitude/longitude pair and API key:
//
//	currentConditions:lookup  ->  section "current"
//	forecast/hours:lookup     ->  section "hourly"
//	forecast/days:lookup      ->  section "daily"
//
// Any of the three may be missing from a cycle. Normalization treats a missing
// section as an empty one and never fails the whole document.
//
// # Provider Conventions
//
// Temperatures are Celsius objects: {"degrees": 16.9, "unit": "CELSIUS"}.
// They are converted to whole Fahrenheit degrees, rounding half away from zero.
// A missing "degrees" value is published as JSON null, not zero.
//
// Conditions are {"type": "MOSTLY_CLOUDY", "description": {"text": "..."}}.
// The type is mapped through a closed table of icon tokens (see [Icon]).
// Unknown or empty types use the default token.
//
// Hourly entries carry local wall time as
//
//	"displayDateTime": {"hours": 14, "minutes": 0, ...}
//
// and are labelled on a 12-hour clock ("2 PM"). Minutes are ignored.
//
// Daily entries carry a local calendar date as
//
//	"displayDate": {"year": 2026, "month": 1, "day": 28}
//
// from which the English weekday name is derived. A triple that is missing or
// does not form a real date yields an empty weekday; the rest of the entry is
// still populated.
//
// # Traversal
//
// Payloads are decoded into a generic tree ([Node]) instead of typed structs.
// Every accessor on [Node] is total: a missing key, a null, or a value of the
// wrong type yields the zero Node or the caller's default. Provider shape
// drift therefore degrades fields rather than failing a cycle.
package domain
