package models

import (
	"strings"
	"time"
)

// Ptr returns a pointer to v. It keeps patch literals short:
//
//	AccountPatch{Name: models.Ptr("Alice")}
func Ptr[T any](v T) *T {
	return &v
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "01/02/2006"}

// ParseDate parses a date-of-birth style answer. Accepted layouts are ISO
// dates, RFC 3339 timestamps and US-style MM/DD/YYYY.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
