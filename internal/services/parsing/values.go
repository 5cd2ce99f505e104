// Package parsing turns raw spreadsheet cells into typed values. Every
// function here is total: input it cannot interpret becomes nil.
package parsing

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const DateLayout = "2006-01-02"

// maxSerial is 9999-12-31, the last date a spreadsheet can hold.
const maxSerial = 2958465

var (
	// "51:15", "51 : 15", "51:15 Hrs"
	durationPattern = regexp.MustCompile(`(\d+)\s*:\s*(\d+)`)
	nonNumeric      = regexp.MustCompile(`[^\d.\-]`)
	nonInteger      = regexp.MustCompile(`[^\d\-]`)
	leadingInteger  = regexp.MustCompile(`^-?\d+`)
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-1-2",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"01/02/06",
	"1-2-2006",
	"01-02-2006",
	"1/2/2006 3:04 PM",
	"01/02/2006 03:04 PM",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
	"Mon, Jan 2, 2006",
	"Monday, January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"02-Jan-2006",
	"2-Jan-06",
}

// ParseNumber reads an hours or units cell. An H:MM duration anywhere in the
// text wins over plain numeric parsing, so "51:15 Hrs" is 51.25.
func ParseNumber(raw any) *float64 {
	switch v := raw.(type) {
	case nil:
		return nil
	case float64:
		return finite(v)
	case float32:
		return finite(float64(v))
	case int:
		f := float64(v)
		return &f
	case int64:
		f := float64(v)
		return &f
	case string:
		return parseNumberText(v)
	default:
		return nil
	}
}

func parseNumberText(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if m := durationPattern.FindStringSubmatch(s); m != nil {
		hours, err1 := strconv.ParseFloat(m[1], 64)
		mins, err2 := strconv.ParseFloat(m[2], 64)
		if err1 == nil && err2 == nil {
			return finite(hours + mins/60)
		}
	}

	cleaned := nonNumeric.ReplaceAllString(s, "")
	if cleaned == "" {
		return nil
	}
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return finite(n)
}

// ParseIntSafe reads a count cell such as "12 appts". Text is stripped to
// digits and minus signs and the leading integer is kept.
func ParseIntSafe(raw any) *int {
	var s string
	switch v := raw.(type) {
	case nil:
		return nil
	case int:
		return &v
	case int64:
		n := int(v)
		return &n
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		v = math.Trunc(v)
		if v < math.MinInt || v >= math.MaxInt {
			return nil
		}
		n := int(v)
		return &n
	case string:
		s = v
	default:
		return nil
	}

	s = nonInteger.ReplaceAllString(strings.TrimSpace(s), "")
	m := leadingInteger.FindString(s)
	if m == "" {
		return nil
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return nil
	}
	return &n
}

// ParseDate resolves a service date to YYYY-MM-DD. Numbers are spreadsheet
// serial dates in the 1900 date system; strings are tried against common
// layouts. The calendar date is taken in UTC.
func ParseDate(raw any) *string {
	switch v := raw.(type) {
	case nil:
		return nil
	case float64:
		return serialDate(v)
	case int:
		return serialDate(float64(v))
	case int64:
		return serialDate(float64(v))
	case time.Time:
		if v.IsZero() {
			return nil
		}
		return formatDate(v)
	case string:
		return parseDateText(v)
	default:
		return nil
	}
}

func serialDate(serial float64) *string {
	if math.IsNaN(serial) || math.IsInf(serial, 0) || serial < 1 || serial > maxSerial {
		return nil
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return nil
	}
	return formatDate(t)
}

func parseDateText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	// Compact 20240315 reads as a date, not a serial.
	if len(s) == 8 && leadingInteger.FindString(s) == s {
		if t, err := time.Parse("20060102", s); err == nil {
			return formatDate(t)
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		return serialDate(serial)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return formatDate(t)
		}
	}
	return nil
}

func formatDate(t time.Time) *string {
	t = t.UTC()
	if t.Year() < 0 || t.Year() > 9999 {
		return nil
	}
	d := t.Format(DateLayout)
	return &d
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
