package matching

import (
	"fmt"
	"strings"
)

// JoinPolicy decides what happens to CareCenta visits that no HHAeX visit
// claims.
type JoinPolicy string

const (
	// HHAAnchored emits one pair per HHAeX visit and drops unclaimed
	// CareCenta visits.
	HHAAnchored JoinPolicy = "hha_anchored"
	// FullOuter also emits unclaimed CareCenta visits with no HHAeX side.
	FullOuter JoinPolicy = "full_outer"
)

func ParseJoinPolicy(s string) (JoinPolicy, error) {
	switch JoinPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", FullOuter:
		return FullOuter, nil
	case HHAAnchored:
		return HHAAnchored, nil
	default:
		return "", fmt.Errorf("unknown join policy %q", s)
	}
}

// Visit is one resolved row of a per-visit export.
type Visit struct {
	Client      string
	Employee    string
	ServiceDate string
	Hours       *float64
	Appts       *int
	Units       *float64
	RowIndex    int
	Raw         map[string]any
}

// Pair joins at most one visit from each side. Exactly one side may be nil.
type Pair struct {
	CareCenta *Visit
	HHA       *Visit
}

type JoinResult struct {
	Pairs []Pair
	// Duplicates are CareCenta visits replaced by a later visit with the
	// same composite key.
	Duplicates    []Visit
	UnmatchedCare int
	UnmatchedHHA  int
}

// Key is the composite natural key shared by both exports.
func Key(client, employee, serviceDate string) string {
	return normalizeName(client) + "|" + normalizeName(employee) + "|" + serviceDate
}

// Join matches HHAeX visits to CareCenta visits by composite key. HHAeX order
// drives the output; under FullOuter the unclaimed CareCenta visits follow in
// their original order.
func Join(care, hha []Visit, policy JoinPolicy) JoinResult {
	var result JoinResult

	lookup := make(map[string]int, len(care))
	for i := range care {
		k := Key(care[i].Client, care[i].Employee, care[i].ServiceDate)
		if prev, ok := lookup[k]; ok {
			result.Duplicates = append(result.Duplicates, care[prev])
		}
		lookup[k] = i
	}

	claimed := make(map[int]bool, len(care))
	for i := range hha {
		pair := Pair{HHA: &hha[i]}
		if idx, ok := lookup[Key(hha[i].Client, hha[i].Employee, hha[i].ServiceDate)]; ok {
			pair.CareCenta = &care[idx]
			claimed[idx] = true
		} else {
			result.UnmatchedHHA++
		}
		result.Pairs = append(result.Pairs, pair)
	}

	for _, idx := range lookup {
		if !claimed[idx] {
			result.UnmatchedCare++
		}
	}

	if policy == FullOuter {
		for i := range care {
			if claimed[i] || lookup[Key(care[i].Client, care[i].Employee, care[i].ServiceDate)] != i {
				continue
			}
			result.Pairs = append(result.Pairs, Pair{CareCenta: &care[i]})
		}
	}

	return result
}

func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
