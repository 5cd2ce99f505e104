package models

import (
	"strings"

	"github.com/google/uuid"
)

// RowFilter narrows a reconciliation row query. Blank fields and the
// literal "all" do not filter.
type RowFilter struct {
	From     string
	To       string
	Client   string
	Employee string
	RunID    *uuid.UUID
}

func (f RowFilter) Normalize() RowFilter {
	return RowFilter{
		From:     strings.TrimSpace(f.From),
		To:       strings.TrimSpace(f.To),
		Client:   normalizeChoice(f.Client),
		Employee: normalizeChoice(f.Employee),
		RunID:    f.RunID,
	}
}

// Matches applies the filter to a single row the same way the SQL query does.
// Date bounds exclude rows without a service date.
func (f RowFilter) Matches(r ReconciliationRow) bool {
	f = f.Normalize()
	if f.RunID != nil && r.RunID != *f.RunID {
		return false
	}
	if f.From != "" && (r.ServiceDate == nil || *r.ServiceDate < f.From) {
		return false
	}
	if f.To != "" && (r.ServiceDate == nil || *r.ServiceDate > f.To) {
		return false
	}
	if f.Client != "" && r.Client() != f.Client {
		return false
	}
	if f.Employee != "" && r.Employee() != f.Employee {
		return false
	}
	return true
}

// Key is a stable textual form of the filter, used for cache keys.
func (f RowFilter) Key() string {
	f = f.Normalize()
	run := ""
	if f.RunID != nil {
		run = f.RunID.String()
	}
	return strings.Join([]string{f.From, f.To, f.Client, f.Employee, run}, "|")
}

func normalizeChoice(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "all") {
		return ""
	}
	return v
}
