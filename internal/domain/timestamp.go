package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultZone is the display time zone for observation times.
const DefaultZone = "Europe/Madrid"

var (
	errZoneUnavailable = errors.New("display zone unavailable")

	// clockRe pulls the hour and minute groups out of formatter output that may
	// carry extra punctuation or date parts.
	clockRe = regexp.MustCompile(`(\d{1,2}):(\d{2})`)

	digitsRe = regexp.MustCompile(`^\d+$`)
)

// zonelessLayouts are read as wall time in the display zone.
var zonelessLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

// zonedLayouts carry their own offset.
var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z0700",
	time.RFC1123Z,
	time.RFC1123,
}

// Localizer renders observation instants as HH:mm in a fixed zone.
// The zero value renders in UTC.
type Localizer struct {
	zone string
	loc  *time.Location
}

// NewLocalizer loads the named zone. A zone that cannot be loaded is not an
// error: the localizer falls back to UTC hour and minute.
func NewLocalizer(zone string) *Localizer {
	if zone == "" {
		zone = DefaultZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		loc = nil
	}
	return &Localizer{zone: zone, loc: loc}
}

// Zone returns the configured zone name.
func (l *Localizer) Zone() string {
	if l == nil || l.zone == "" {
		return "UTC"
	}
	return l.zone
}

// Format renders v as HH:mm in the display zone, or Placeholder when v is
// absent or not a recognizable instant.
func (l *Localizer) Format(v any) string {
	s, ok := timestampString(v)
	if !ok {
		return Placeholder
	}

	var loc *time.Location
	if l != nil {
		loc = l.loc
	}

	t, err := parseInstant(s, loc)
	if err != nil {
		return Placeholder
	}

	if out, err := formatInZone(t, loc); err == nil {
		return out
	}
	return formatUTC(t)
}

// formatInZone is the primary path. It formats in loc and then extracts the
// hour and minute groups instead of trusting the layout literally.
func formatInZone(t time.Time, loc *time.Location) (string, error) {
	if loc == nil {
		return "", errZoneUnavailable
	}
	formatted := t.In(loc).Format("15:04")
	match := clockRe.FindStringSubmatch(formatted)
	if match == nil {
		return "", fmt.Errorf("no clock digits in %q", formatted)
	}
	return padHour(match[1]) + ":" + match[2], nil
}

// formatUTC is the fallback path.
func formatUTC(t time.Time) string {
	u := t.UTC()
	return fmt.Sprintf("%02d:%02d", u.Hour(), u.Minute())
}

func padHour(h string) string {
	if len(h) == 1 {
		return "0" + h
	}
	return h
}

// parseInstant accepts RFC 3339 variants, zone-less local timestamps, bare
// dates (UTC midnight) and epoch digits (seconds, or milliseconds when the
// value is too large to be seconds).
func parseInstant(s string, loc *time.Location) (time.Time, error) {
	if digitsRe.MatchString(s) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse epoch %q: %w", s, err)
		}
		if n > 1e11 {
			return time.UnixMilli(n), nil
		}
		return time.Unix(n, 0), nil
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	wall := loc
	if wall == nil {
		wall = time.UTC
	}
	for _, layout := range zonelessLayouts {
		if t, err := time.ParseInLocation(layout, s, wall); err == nil {
			return t, nil
		}
	}

	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// timestampString reports the usable text of a timestamp field. Empty
// strings, zero and non-finite numbers count as absent.
func timestampString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case *string:
		if t == nil {
			return "", false
		}
		return timestampString(*t)
	case json.Number:
		return timestampString(string(t))
	case float64:
		if t == 0 || math.IsNaN(t) || math.IsInf(t, 0) {
			return "", false
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int64:
		if t == 0 {
			return "", false
		}
		return strconv.FormatInt(t, 10), true
	case int:
		if t == 0 {
			return "", false
		}
		return strconv.Itoa(t), true
	default:
		return "", false
	}
}
