// Package domain models Weather Underground (WU) personal weather station
// history observations and normalizes them for display.
//
// # Data Source
//
// Observations come from the WU PWS "history/all" endpoint
// (https://api.weather.com/v2/pws/history/all), requested with units=m and
// numericPrecision=decimal. The backend proxy forwards the provider body
// untouched, so everything in this package works on the decoded JSON value
// rather than on a fixed struct.
//
// # Payload Conventions
//
// Response shape:
//
//	{"observations": [ {...}, {...} ]}   the usual wrapper
//	[ {...}, {...} ]                     a bare list (cached or hand-made files)
//
// Observation shape. Physical quantities live either in a nested "metric"
// record or at the top level, depending on the endpoint and unit system:
//
//	{"obsTimeUtc": "2024-05-01T12:00:00Z", "humidityAvg": 60,
//	 "metric": {"tempAvg": 20.5, "windspeedAvg": 3.2}}
//
// Field names vary for the same quantity. Temperature may appear as temp,
// tempAvg or temperature; dew point as dewPt, dewpoint, dewPoint or dewpt.
// The alias table in resolve.go lists every spelling in preference order:
// instantaneous readings first, then averaged, high or max summaries.
//
// Numbers may arrive as JSON numbers or as strings carrying a comma decimal
// separator or a unit suffix ("23,5°C"). Missing data is either an absent
// field or a sentinel string:
//
//	"", "--", "—", "NA", "null"
//
// Timestamps are passed through as-is in [Observation.WhenISO] and rendered
// as HH:mm in the display zone (Europe/Madrid by default). Zone-less local
// timestamps ("2024-05-01 14:00:00") are read as display-zone wall time.
//
// # Failure Model
//
// Nothing in the normalization path returns an error. Bad numbers become
// nil, bad timestamps become the placeholder, and a malformed response
// becomes an empty slice. List entries that are not records normalize to an
// all-nil observation so output length and order always match the input.
package domain
