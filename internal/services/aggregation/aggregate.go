// Package aggregation summarizes reconciliation rows by time, employee and
// client. Null numeric fields count as zero throughout.
package aggregation

import (
	"math"
	"sort"
	"strings"

	"hours-reconciliation-backend/internal/models"
)

const UnknownLabel = "Unknown"

type Summary struct {
	TotalCarecentaHours float64  `json:"totalCarecentaHours"`
	TotalHhaHours       float64  `json:"totalHhaHours"`
	VarianceHours       float64  `json:"varianceHours"`
	VariancePercent     *float64 `json:"variancePercent"`
	RowCount            int      `json:"rowCount"`
	ConfirmedAppts      int      `json:"confirmedAppts"`
}

type DayBucket struct {
	Date      string  `json:"date"`
	Carecenta float64 `json:"carecenta"`
	Hha       float64 `json:"hha"`
}

type EmployeeAgg struct {
	Employee       string  `json:"employee"`
	Clients        int     `json:"clients"`
	ConfirmedAppts int     `json:"confirmedAppts"`
	Units          float64 `json:"units"`
	CarecentaHours float64 `json:"carecentaHours"`
	HhaHours       float64 `json:"hhaHours"`
	Diff           float64 `json:"diff"`
}

type ClientAgg struct {
	Client         string  `json:"client"`
	Employees      int     `json:"employees"`
	ServiceDates   int     `json:"serviceDates"`
	NotesCount     int     `json:"notesCount"`
	ConfirmedAppts int     `json:"confirmedAppts"`
	Units          float64 `json:"units"`
	CarecentaHours float64 `json:"carecentaHours"`
	HhaHours       float64 `json:"hhaHours"`
	Diff           float64 `json:"diff"`
}

// Vocabulary lists the values available to filter controls.
type Vocabulary struct {
	Clients   []string `json:"clients"`
	Employees []string `json:"employees"`
	DateMin   *string  `json:"dateMin"`
	DateMax   *string  `json:"dateMax"`
}

type Report struct {
	Summary      Summary       `json:"summary"`
	TimeSeries   []DayBucket   `json:"timeseries"`
	Employees    []EmployeeAgg `json:"employees"`
	Clients      []ClientAgg   `json:"clients"`
	TopEmployees []EmployeeAgg `json:"topEmployees"`
	TopClients   []ClientAgg   `json:"topClients"`
	Filters      Vocabulary    `json:"filters"`
}

const topN = 10

// Build computes every view of the row set.
func Build(rows []models.ReconciliationRow) *Report {
	employees := ByEmployee(rows)
	clients := ByClient(rows)
	return &Report{
		Summary:      Summarize(rows),
		TimeSeries:   TimeSeries(rows),
		Employees:    employees,
		Clients:      clients,
		TopEmployees: TopEmployeesByVariance(employees, topN),
		TopClients:   TopClientsByVariance(clients, topN),
		Filters:      BuildVocabulary(rows),
	}
}

func Summarize(rows []models.ReconciliationRow) Summary {
	var s Summary
	for _, r := range rows {
		s.TotalCarecentaHours += r.Care()
		s.TotalHhaHours += r.Hha()
		s.ConfirmedAppts += r.Appts()
	}
	s.RowCount = len(rows)
	s.VarianceHours = s.TotalHhaHours - s.TotalCarecentaHours
	s.VariancePercent = VariancePercent(s.VarianceHours, s.TotalCarecentaHours)
	return s
}

// VariancePercent is variance relative to CareCenta hours, or nil when there
// are no CareCenta hours to compare against.
func VariancePercent(variance, care float64) *float64 {
	if care <= 0 {
		return nil
	}
	pct := variance / care * 100
	return &pct
}

// TimeSeries buckets rows by service date, ascending. Undated rows are left out.
func TimeSeries(rows []models.ReconciliationRow) []DayBucket {
	buckets := make(map[string]*DayBucket)
	for _, r := range rows {
		date := r.Date()
		if date == "" {
			continue
		}
		b, ok := buckets[date]
		if !ok {
			b = &DayBucket{Date: date}
			buckets[date] = b
		}
		b.Carecenta += r.Care()
		b.Hha += r.Hha()
	}

	out := make([]DayBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

type employeeBucket struct {
	agg     EmployeeAgg
	clients map[string]struct{}
}

// ByEmployee groups rows by employee name, sorted by name.
func ByEmployee(rows []models.ReconciliationRow) []EmployeeAgg {
	buckets := make(map[string]*employeeBucket)
	for _, r := range rows {
		name := labelOrUnknown(r.Employee())
		b, ok := buckets[name]
		if !ok {
			b = &employeeBucket{agg: EmployeeAgg{Employee: name}, clients: map[string]struct{}{}}
			buckets[name] = b
		}
		if c := r.Client(); c != "" {
			b.clients[c] = struct{}{}
		}
		b.agg.ConfirmedAppts += r.Appts()
		b.agg.Units += r.UnitCount()
		b.agg.CarecentaHours += r.Care()
		b.agg.HhaHours += r.Hha()
	}

	out := make([]EmployeeAgg, 0, len(buckets))
	for _, b := range buckets {
		b.agg.Clients = len(b.clients)
		b.agg.Diff = b.agg.HhaHours - b.agg.CarecentaHours
		out = append(out, b.agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Employee < out[j].Employee })
	return out
}

type clientBucket struct {
	agg       ClientAgg
	employees map[string]struct{}
	dates     map[string]struct{}
}

// ByClient groups rows by client name, sorted by name.
func ByClient(rows []models.ReconciliationRow) []ClientAgg {
	buckets := make(map[string]*clientBucket)
	for _, r := range rows {
		name := labelOrUnknown(r.Client())
		b, ok := buckets[name]
		if !ok {
			b = &clientBucket{
				agg:       ClientAgg{Client: name},
				employees: map[string]struct{}{},
				dates:     map[string]struct{}{},
			}
			buckets[name] = b
		}
		if e := r.Employee(); e != "" {
			b.employees[e] = struct{}{}
		}
		if d := r.Date(); d != "" {
			b.dates[d] = struct{}{}
		}
		if r.Notes != nil && strings.TrimSpace(*r.Notes) != "" {
			b.agg.NotesCount++
		}
		b.agg.ConfirmedAppts += r.Appts()
		b.agg.Units += r.UnitCount()
		b.agg.CarecentaHours += r.Care()
		b.agg.HhaHours += r.Hha()
	}

	out := make([]ClientAgg, 0, len(buckets))
	for _, b := range buckets {
		b.agg.Employees = len(b.employees)
		b.agg.ServiceDates = len(b.dates)
		b.agg.Diff = b.agg.HhaHours - b.agg.CarecentaHours
		out = append(out, b.agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Client < out[j].Client })
	return out
}

// TopEmployeesByVariance returns up to n employees with the largest |Diff|.
// n <= 0 returns all of them.
func TopEmployeesByVariance(aggs []EmployeeAgg, n int) []EmployeeAgg {
	out := append([]EmployeeAgg(nil), aggs...)
	sort.SliceStable(out, func(i, j int) bool { return math.Abs(out[i].Diff) > math.Abs(out[j].Diff) })
	return limit(out, n)
}

func TopClientsByVariance(aggs []ClientAgg, n int) []ClientAgg {
	out := append([]ClientAgg(nil), aggs...)
	sort.SliceStable(out, func(i, j int) bool { return math.Abs(out[i].Diff) > math.Abs(out[j].Diff) })
	return limit(out, n)
}

func BuildVocabulary(rows []models.ReconciliationRow) Vocabulary {
	clients := map[string]struct{}{}
	employees := map[string]struct{}{}
	var v Vocabulary

	for _, r := range rows {
		if c := r.Client(); c != "" {
			clients[c] = struct{}{}
		}
		if e := r.Employee(); e != "" {
			employees[e] = struct{}{}
		}
		if d := r.Date(); d != "" {
			if v.DateMin == nil || d < *v.DateMin {
				v.DateMin = &d
			}
			if v.DateMax == nil || d > *v.DateMax {
				v.DateMax = &d
			}
		}
	}

	v.Clients = sortedKeys(clients)
	v.Employees = sortedKeys(employees)
	return v
}

func labelOrUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return UnknownLabel
	}
	return s
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func limit[T any](s []T, n int) []T {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}
