package parsing

import (
	"fmt"
	"strconv"
	"strings"
)

// Field is a canonical column of a timekeeping export.
type Field string

const (
	FieldClient         Field = "client"
	FieldEmployee       Field = "employee"
	FieldServiceDate    Field = "service_date"
	FieldCarecentaHours Field = "carecenta_hours"
	FieldHhaHours       Field = "hha_hours"
	FieldConfirmedAppts Field = "confirmed_appts"
	FieldUnits          Field = "units"
)

// Aliases maps a canonical field to the header labels that vendors use for
// it. Labels are compared after NormalizeHeader, so they are listed lowercase.
type Aliases map[Field][]string

// CombinedColumns describes the single CareCenta export with HHAeX hours
// added by hand.
var CombinedColumns = Aliases{
	FieldClient:   {"client"},
	FieldHhaHours: {"hhaex", "hhaex hours", "hha hours"},
	FieldCarecentaHours: {
		"carecenta",
		"carecenta hours",
		"carecenta hrs",
		"carecenta hours (ddd evv)",
		"carecenta hrs (ddd evv)",
	},
	FieldConfirmedAppts: {"# of appts", "confirmed appts", "# appts", "appointments"},
	FieldUnits:          {"units", "total units"},
}

// CareCentaColumns describes a per-visit CareCenta export. Hours fall back to
// the units column when no hours column is filled in.
var CareCentaColumns = Aliases{
	FieldClient:         {"client", "client name"},
	FieldEmployee:       {"employee", "employee name", "caregiver"},
	FieldServiceDate:    {"service date", "date"},
	FieldCarecentaHours: {"hours", "carecenta hours", "units"},
	FieldConfirmedAppts: {"# of appts", "confirmed appts", "# appts"},
	FieldUnits:          {"units", "total units"},
}

// HHAColumns describes a per-visit HHAeX export.
var HHAColumns = Aliases{
	FieldClient:      {"client", "client name"},
	FieldEmployee:    {"employee", "employee name", "caregiver"},
	FieldServiceDate: {"service date", "date"},
	FieldHhaHours:    {"hours", "hha hours", "hhaex hours", "units"},
}

// NormalizeHeader lowercases, trims and collapses internal whitespace.
func NormalizeHeader(v any) string {
	return strings.ToLower(strings.Join(strings.Fields(CellText(v)), " "))
}

// NormalizeHeaders applies NormalizeHeader to a whole row.
func NormalizeHeaders(row []any) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = NormalizeHeader(c)
	}
	return out
}

// Accepts reports whether a normalized label is one of the field's aliases.
func (a Aliases) Accepts(field Field, label string) bool {
	for _, alias := range a[field] {
		if alias == label {
			return true
		}
	}
	return false
}

// Index returns the first column, in column order, whose label is accepted
// for the field, or -1.
func (a Aliases) Index(headers []string, field Field) int {
	for i, h := range headers {
		if h != "" && a.Accepts(field, h) {
			return i
		}
	}
	return -1
}

// HasAll reports whether every listed field has a column in headers.
func (a Aliases) HasAll(headers []string, fields ...Field) bool {
	for _, f := range fields {
		if a.Index(headers, f) < 0 {
			return false
		}
	}
	return true
}

// Lookup walks the field's aliases in priority order and returns the first
// non-blank cell found under any of them.
func (a Aliases) Lookup(headers []string, row []any, field Field) any {
	for _, alias := range a[field] {
		for i, h := range headers {
			if h != alias || i >= len(row) {
				continue
			}
			if !IsBlank(row[i]) {
				return row[i]
			}
		}
	}
	return nil
}

// CellText renders a cell as trimmed text.
func CellText(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(c)
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case int:
		return strconv.Itoa(c)
	default:
		return strings.TrimSpace(fmt.Sprint(c))
	}
}

func IsBlank(v any) bool {
	return CellText(v) == ""
}
