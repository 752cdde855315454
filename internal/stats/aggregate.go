// Package stats computes the summary figures shown on dashboard cards.
// Every function is pure: inputs are never modified and empty inputs yield
// zero values rather than errors.
package stats

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jehnsen/admin-suite/internal/workflow"
)

var hundred = decimal.NewFromInt(100)

// Sum adds values; the sum of nothing is zero.
func Sum(values []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// SumBy adds fn(item) over items.
func SumBy[T any](items []T, fn func(T) decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(fn(it))
	}
	return total
}

// CountBy counts items satisfying pred.
func CountBy[T any](items []T, pred func(T) bool) int {
	n := 0
	for _, it := range items {
		if pred(it) {
			n++
		}
	}
	return n
}

// UtilizationRate returns spent/allocated × 100 rounded to two places. A zero
// allocation yields zero.
func UtilizationRate(spent, allocated decimal.Decimal) decimal.Decimal {
	if allocated.IsZero() {
		return decimal.Zero
	}
	return spent.Div(allocated).Mul(hundred).Round(2)
}

// Remaining returns allocated − spent.
func Remaining(allocated, spent decimal.Decimal) decimal.Decimal {
	return allocated.Sub(spent)
}

// Percent returns part/whole × 100 for counts, zero when whole is zero.
func Percent(part, whole int) decimal.Decimal {
	if whole == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(part)).Div(decimal.NewFromInt(int64(whole))).Mul(hundred).Round(2)
}

// StatusCount is the number of records in one status.
type StatusCount struct {
	Status workflow.Status `json:"status"`
	Count  int             `json:"count"`
}

// CountByStatus tallies subjects per status in the kind's lifecycle order.
// Statuses outside the closed set are appended in first-seen order.
func CountByStatus[S workflow.Subject](kind workflow.Kind, items []S) []StatusCount {
	counts := make(map[workflow.Status]int)
	var extra []workflow.Status
	known := make(map[workflow.Status]bool)
	for _, s := range workflow.Statuses(kind) {
		known[s] = true
	}
	for _, it := range items {
		st := it.WorkflowStatus()
		if !known[st] && counts[st] == 0 {
			extra = append(extra, st)
		}
		counts[st]++
	}
	out := make([]StatusCount, 0, len(known)+len(extra))
	for _, s := range workflow.Statuses(kind) {
		out = append(out, StatusCount{Status: s, Count: counts[s]})
	}
	for _, s := range extra {
		out = append(out, StatusCount{Status: s, Count: counts[s]})
	}
	return out
}

// CountOf returns the count recorded for status, zero when absent.
func CountOf(counts []StatusCount, status workflow.Status) int {
	for _, c := range counts {
		if c.Status == status {
			return c.Count
		}
	}
	return 0
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
