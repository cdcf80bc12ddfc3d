package schema

import (
	"strconv"
	"strings"
	"time"
)

// dateLayouts covers the formats seen in CRM exports: ISO, Brazilian
// day-first, and the default xlsx display format.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02/01/2006",
	"02/01/2006 15:04:05",
	"02/01/06",
	"01-02-06",
	"2006/01/02",
}

// excelEpoch is day zero of the 1900 date system (with the Lotus leap-year
// bug baked in, hence Dec 30 rather than 31).
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ParseDate parses a cell value into a date. Accepts the known layouts and
// raw Excel serial numbers. Returns (zero, false) for empty or unparseable
// values.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	// Excel serial date: days since the 1900 epoch.
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 && serial < 200000 {
		days := int(serial)
		frac := serial - float64(days)
		t := excelEpoch.AddDate(0, 0, days)
		t = t.Add(time.Duration(frac * 24 * float64(time.Hour)))
		return t, true
	}
	return time.Time{}, false
}

// ParseNumber parses a cell value into a float. Handles plain decimals,
// currency prefixes, and Brazilian grouping ("R$ 1.234,56" -> 1234.56).
// Returns (0, false) for empty or unparseable values.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, true
	}
	// Brazilian format: "." groups thousands, "," is the decimal mark.
	if strings.Contains(s, ",") {
		cleaned := strings.ReplaceAll(s, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
		if v, err := strconv.ParseFloat(cleaned, 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

// ParsePercent parses a feeling/confidence cell ("80%", "0,8") into a float.
func ParsePercent(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	return ParseNumber(s)
}
