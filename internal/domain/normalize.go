package domain

import (
	"encoding/json"
	"fmt"
)

// Normalizer converts provider payloads into Observations.
type Normalizer struct {
	localizer *Localizer
}

// NewNormalizer creates a Normalizer that renders times with localizer.
// A nil localizer renders in the default zone.
func NewNormalizer(localizer *Localizer) *Normalizer {
	if localizer == nil {
		localizer = NewLocalizer(DefaultZone)
	}
	return &Normalizer{localizer: localizer}
}

// NormalizeObservation maps one raw record onto the fixed Observation shape.
// A nil record yields an observation with no time and no quantities.
func (n *Normalizer) NormalizeObservation(raw RawObservation) Observation {
	metric := raw.metricScope()

	var obs Observation
	obs.WhenISO = pickTimestamp(raw)
	obs.WhenLocal = n.localizer.Format(obs.WhenISO)

	for _, q := range quantities {
		*q.field(&obs) = Resolve(q.candidates(raw, metric)...)
	}
	return obs
}

// NormalizeResponse unwraps a decoded provider response and normalizes every
// entry in order. It accepts a bare list or an object with an "observations"
// list; anything else yields an empty slice.
func (n *Normalizer) NormalizeResponse(resp any) []Observation {
	entries := unwrapObservations(resp)
	out := make([]Observation, 0, len(entries))
	for _, e := range entries {
		out = append(out, n.NormalizeObservation(asRecord(e)))
	}
	return out
}

// NormalizeJSON decodes body and normalizes it. Only a JSON syntax error is
// reported; shape mismatches still produce an empty slice.
func (n *Normalizer) NormalizeJSON(body []byte) ([]Observation, error) {
	var resp any
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode provider response: %w", err)
	}
	return n.NormalizeResponse(resp), nil
}

func unwrapObservations(resp any) []any {
	switch r := resp.(type) {
	case []any:
		return r
	case []map[string]any:
		out := make([]any, len(r))
		for i := range r {
			out[i] = r[i]
		}
		return out
	case []RawObservation:
		out := make([]any, len(r))
		for i := range r {
			out[i] = r[i]
		}
		return out
	case map[string]any:
		return unwrapList(r["observations"])
	case RawObservation:
		return unwrapList(r["observations"])
	}
	return nil
}

// unwrapList accepts the "observations" value only when it is itself a list,
// so a nested wrapper object is not unwrapped twice.
func unwrapList(v any) []any {
	switch v.(type) {
	case []any, []map[string]any, []RawObservation:
		return unwrapObservations(v)
	}
	return nil
}

// pickTimestamp returns the first usable time field. String values are kept
// verbatim; numeric epochs are rendered as decimal text.
func pickTimestamp(raw RawObservation) *string {
	for _, key := range timestampKeys {
		v := raw.lookup(key)
		s, ok := timestampString(v)
		if !ok {
			continue
		}
		if str, isString := v.(string); isString {
			s = str
		}
		return &s
	}
	return nil
}
