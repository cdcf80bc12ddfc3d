package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	cases := map[string]time.Time{
		"2025-03-15":          time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		"15/03/2025":          time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		"2025-03-15 10:30:00": time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, ok := ParseDate(in)
		require.True(t, ok, "input %q", in)
		assert.True(t, want.Equal(got), "input %q: got %v", in, got)
	}
}

func TestParseDate_ExcelSerial(t *testing.T) {
	// 45292 days after 1899-12-30 is 2024-01-01.
	got, ok := ParseDate("45292")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestParseDate_Invalid(t *testing.T) {
	for _, in := range []string{"", "  ", "not a date", "32/13/2025"} {
		_, ok := ParseDate(in)
		assert.False(t, ok, "input %q", in)
	}
}

func TestParseNumber(t *testing.T) {
	cases := map[string]float64{
		"1234.56":      1234.56,
		"1234":         1234,
		"R$ 1.234,56":  1234.56,
		"1.234.567,89": 1234567.89,
		"0,5":          0.5,
	}
	for in, want := range cases {
		got, ok := ParseNumber(in)
		require.True(t, ok, "input %q", in)
		assert.InDelta(t, want, got, 1e-9, "input %q", in)
	}
}

func TestParseNumber_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "R$"} {
		_, ok := ParseNumber(in)
		assert.False(t, ok, "input %q", in)
	}
}

func TestParsePercent(t *testing.T) {
	got, ok := ParsePercent("80%")
	require.True(t, ok)
	assert.InDelta(t, 80, got, 1e-9)

	got, ok = ParsePercent("0,75")
	require.True(t, ok)
	assert.InDelta(t, 0.75, got, 1e-9)
}
