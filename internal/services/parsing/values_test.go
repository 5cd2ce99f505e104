package parsing

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want *float64
	}{
		{"nil", nil, nil},
		{"empty", "", nil},
		{"blank", "   ", nil},
		{"letters", "abc", nil},
		{"duration", "51:15", f64(51.25)},
		{"duration with unit", "51:15 Hrs", f64(51.25)},
		{"spaced duration", "7 : 30", f64(7.5)},
		{"decimal", "12.5", f64(12.5)},
		{"unit suffix", "8.25 hrs", f64(8.25)},
		{"thousands separator", "1,234.5", f64(1234.5)},
		{"negative", "-3.5", f64(-3.5)},
		{"zero", "0", f64(0)},
		{"float cell", 4.5, f64(4.5)},
		{"int cell", 3, f64(3)},
		{"two dots", "1.2.3", nil},
		{"lone minus", "-", nil},
		{"unsupported type", true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseNumber(tt.raw)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func TestParseNumber_Idempotent(t *testing.T) {
	for _, s := range []string{"0", "1", "12.5", "-0.75", "100.125", "3.3333333333333335", ".5"} {
		first := ParseNumber(s)
		require.NotNil(t, first, s)

		second := ParseNumber(strconv.FormatFloat(*first, 'f', -1, 64))
		require.NotNil(t, second, s)
		assert.Equal(t, *first, *second, s)
	}
}

func TestParseIntSafe(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want *int
	}{
		{"nil", nil, nil},
		{"empty", "", nil},
		{"with text", "12 appts", intp(12)},
		{"negative", "-4", intp(-4)},
		{"trailing minus", "5-", intp(5)},
		{"only text", "none", nil},
		{"float cell", 7.0, intp(7)},
		{"fractional cell truncates", 2.9, intp(2)},
		{"int cell", 3, intp(3)},
		{"huge cell", 1e300, nil},
		{"huge negative cell", -1e300, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseIntSafe(tt.raw))
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want *string
	}{
		{"nil", nil, nil},
		{"empty", "", nil},
		{"zero serial", 0.0, nil},
		{"serial", 45292.0, strp("2024-01-01")},
		{"serial with time", 45366.75, strp("2024-03-15")},
		{"serial as int", 45366, strp("2024-03-15")},
		{"serial as text", "45292", strp("2024-01-01")},
		{"iso", "2024-03-15", strp("2024-03-15")},
		{"us slashes", "3/15/2024", strp("2024-03-15")},
		{"padded us slashes", "03/15/2024", strp("2024-03-15")},
		{"month name", "March 15, 2024", strp("2024-03-15")},
		{"rfc3339 converted to utc", "2024-03-15T23:30:00-05:00", strp("2024-03-16")},
		{"garbage", "not a date", nil},
		{"unpadded iso", "2024-3-5", strp("2024-03-05")},
		{"compact yyyymmdd", "20240315", strp("2024-03-15")},
		{"compact with impossible month", "20241315", nil},
		{"last serial", 2958465.0, strp("9999-12-31")},
		{"serial past year 9999", 2958466.0, nil},
		{"huge serial", 1e12, nil},
		{"huge serial as text", "1000000000000", nil},
		{"year zero and below", time.Date(-1, 1, 1, 0, 0, 0, 0, time.UTC), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDate(tt.raw))
		})
	}
}

func f64(v float64) *float64 { return &v }
func intp(v int) *int        { return &v }
func strp(v string) *string  { return &v }
