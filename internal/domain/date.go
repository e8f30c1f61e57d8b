package domain

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidDate is returned when a date does not match the expected layout.
var ErrInvalidDate = errors.New("invalid date")

var (
	isoDateRe     = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	compactDateRe = regexp.MustCompile(`^\d{8}$`)
)

// CompactDate converts a form date ("2024-05-01") into the provider's
// YYYYMMDD layout ("20240501").
func CompactDate(isoDate string) (string, error) {
	m := isoDateRe.FindStringSubmatch(strings.TrimSpace(isoDate))
	if m == nil {
		return "", ErrInvalidDate
	}
	return m[1] + m[2] + m[3], nil
}

// ValidCompactDate reports whether s is eight digits, the only check the
// provider proxy applies before forwarding.
func ValidCompactDate(s string) bool {
	return compactDateRe.MatchString(s)
}
