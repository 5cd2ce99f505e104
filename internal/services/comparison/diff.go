// Package comparison diffs two reconciliation runs along one dimension.
package comparison

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"hours-reconciliation-backend/internal/models"
)

// Epsilon is the smallest delta treated as a change.
const Epsilon = 0.0001

const UnknownKey = "Unknown"

type Status string

const (
	StatusAdded     Status = "added"
	StatusRemoved   Status = "removed"
	StatusChanged   Status = "changed"
	StatusUnchanged Status = "unchanged"
)

type Agg struct {
	Key      string  `json:"key"`
	Care     float64 `json:"care"`
	Hha      float64 `json:"hha"`
	Variance float64 `json:"variance"`
}

type Entry struct {
	Key    string `json:"key"`
	Base   *Agg   `json:"a,omitempty"`
	Target *Agg   `json:"b,omitempty"`
	Delta  Agg    `json:"delta"`
	Status Status `json:"status"`
}

// KeySelector picks the grouping key of a row.
type KeySelector func(models.ReconciliationRow) string

var (
	ByClient      KeySelector = func(r models.ReconciliationRow) string { return r.Client() }
	ByEmployee    KeySelector = func(r models.ReconciliationRow) string { return r.Employee() }
	ByServiceDate KeySelector = func(r models.ReconciliationRow) string { return r.Date() }
)

// SelectorFor resolves a dimension name: client, employee or date.
func SelectorFor(dimension string) (KeySelector, error) {
	switch strings.ToLower(strings.TrimSpace(dimension)) {
	case "", "client":
		return ByClient, nil
	case "employee":
		return ByEmployee, nil
	case "date", "service_date":
		return ByServiceDate, nil
	default:
		return nil, fmt.Errorf("unknown comparison dimension %q", dimension)
	}
}

// Aggregate sums hours per key. Empty keys fall under UnknownKey.
func Aggregate(rows []models.ReconciliationRow, key KeySelector) map[string]Agg {
	out := make(map[string]Agg)
	for _, r := range rows {
		k := strings.TrimSpace(key(r))
		if k == "" {
			k = UnknownKey
		}
		agg := out[k]
		agg.Key = k
		agg.Care += r.Care()
		agg.Hha += r.Hha()
		agg.Variance = agg.Hha - agg.Care
		out[k] = agg
	}
	return out
}

// Diff classifies every key of either side. Entries come back with the
// largest variance swing first.
func Diff(base, target map[string]Agg) []Entry {
	keys := make(map[string]struct{}, len(base)+len(target))
	for k := range base {
		keys[k] = struct{}{}
	}
	for k := range target {
		keys[k] = struct{}{}
	}

	entries := make([]Entry, 0, len(keys))
	for k := range keys {
		a, inBase := base[k]
		b, inTarget := target[k]

		delta := Agg{Key: k, Care: b.Care - a.Care, Hha: b.Hha - a.Hha}
		delta.Variance = delta.Hha - delta.Care

		e := Entry{Key: k, Delta: delta}
		if inBase {
			e.Base = &a
		}
		if inTarget {
			e.Target = &b
		}

		switch {
		case inBase && !inTarget:
			e.Status = StatusRemoved
		case !inBase && inTarget:
			e.Status = StatusAdded
		case math.Abs(delta.Care) > Epsilon || math.Abs(delta.Hha) > Epsilon || math.Abs(delta.Variance) > Epsilon:
			e.Status = StatusChanged
		default:
			e.Status = StatusUnchanged
		}
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		di, dj := math.Abs(entries[i].Delta.Variance), math.Abs(entries[j].Delta.Variance)
		if di != dj {
			return di > dj
		}
		return entries[i].Key < entries[j].Key
	})
	return entries
}

// Compare aggregates base and target rows by key and diffs them.
func Compare(base, target []models.ReconciliationRow, key KeySelector) []Entry {
	return Diff(Aggregate(base, key), Aggregate(target, key))
}

// Counts tallies entries by status.
func Counts(entries []Entry) map[Status]int {
	out := map[Status]int{
		StatusAdded:     0,
		StatusRemoved:   0,
		StatusChanged:   0,
		StatusUnchanged: 0,
	}
	for _, e := range entries {
		out[e.Status]++
	}
	return out
}
