package utils

import (
	"fmt"
	"strings"
	"time"
)

var filingDateLayouts = []string{ShortSlashDateLayout, ShortDashDateLayout, ShortDashMonthFirstLayout, time.RFC3339}

// ParseFilingDate parses the date formats found in disclosure filings.
func ParseFilingDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range filingDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", value)
}

// ParseOptionalDate parses a yyyy-mm-dd query value; an empty value yields nil.
func ParseOptionalDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(ShortDashDateLayout, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
