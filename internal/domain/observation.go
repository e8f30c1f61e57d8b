package domain

// RawObservation is one provider record as decoded from JSON. Values are
// whatever encoding/json produced: string, float64, bool, nil, nested
// map[string]any or []any.
type RawObservation map[string]any

// Placeholder is rendered in place of a missing time or value.
const Placeholder = "—"

// Observation is the normalized, display-ready form of a RawObservation.
// Every field is always serialized; missing quantities encode as null.
type Observation struct {
	WhenISO   *string `json:"whenISO"`
	WhenLocal string  `json:"whenMadrid"`

	Temperature    *float64 `json:"temp"`
	DewPoint       *float64 `json:"dew"`
	Humidity       *float64 `json:"humidity"`
	Pressure       *float64 `json:"pres"`
	WindSpeed      *float64 `json:"wind"`
	WindGust       *float64 `json:"gust"`
	WindDirection  *float64 `json:"dirDeg"`
	PrecipRate     *float64 `json:"precipRate"`
	PrecipTotal    *float64 `json:"precipTotal"`
	UVIndex        *float64 `json:"uv"`
	SolarRadiation *float64 `json:"rad"`
}

// HasData reports whether at least one quantity resolved.
func (ob Observation) HasData() bool {
	for _, q := range quantities {
		if *q.field(&ob) != nil {
			return true
		}
	}
	return false
}

// lookup returns the value stored under key, or nil when the record is nil
// or the key is absent.
func (r RawObservation) lookup(key string) any {
	if r == nil {
		return nil
	}
	return r[key]
}

// metricScope returns the nested "metric" record when present, otherwise the
// observation itself.
func (r RawObservation) metricScope() RawObservation {
	if m, ok := r.lookup("metric").(map[string]any); ok {
		return RawObservation(m)
	}
	return r
}

// asRecord converts a decoded JSON list entry into a RawObservation.
// Entries that are not records yield nil, which reads as an empty record.
func asRecord(v any) RawObservation {
	switch rec := v.(type) {
	case map[string]any:
		return RawObservation(rec)
	case RawObservation:
		return rec
	default:
		return nil
	}
}
