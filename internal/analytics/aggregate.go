package analytics

import (
	"math"
	"sort"
)

// Rate returns n as a percentage of d, or 0 when d is not positive
func Rate(n, d float64) float64 {
	if d <= 0 {
		return 0
	}
	return n / d * 100
}

// Round2 rounds half-up to two decimals. Only response builders call it.
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5+1e-9) / 100
}

// Average divides sum by n, or returns 0 for an empty set
func Average(sum float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	return sum / float64(n)
}

// Utilization is passengers as a percentage of seats offered across runs
func Utilization(passengers, capacity, runs int) float64 {
	return Rate(float64(passengers), float64(capacity*runs))
}

// CountBy counts items per key
func CountBy[T any](items []T, key func(T) string) map[string]int {
	counts := make(map[string]int)
	for _, item := range items {
		counts[key(item)]++
	}
	return counts
}

// SumWhere sums value over the items matching pred. A nil pred matches all.
func SumWhere[T any](items []T, value func(T) float64, pred func(T) bool) float64 {
	var sum float64
	for _, item := range items {
		if pred == nil || pred(item) {
			sum += value(item)
		}
	}
	return sum
}

// CountWhere counts the items matching pred
func CountWhere[T any](items []T, pred func(T) bool) int {
	n := 0
	for _, item := range items {
		if pred(item) {
			n++
		}
	}
	return n
}

// KeyCount is one row of a categorical breakdown
type KeyCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// KeyAmount is one row of a categorical breakdown carrying a money total
type KeyAmount struct {
	Key    string  `json:"key"`
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}

// SortedCounts flattens a count map into rows ordered by key
func SortedCounts(counts map[string]int) []KeyCount {
	out := make([]KeyCount, 0, len(counts))
	for _, k := range sortedKeys(counts) {
		out = append(out, KeyCount{Key: k, Count: counts[k]})
	}
	return out
}

// GroupAmounts groups items by key, counting every item and summing value
// over those matching pred. Rows are ordered by key.
func GroupAmounts[T any](items []T, key func(T) string, value func(T) float64, pred func(T) bool) []KeyAmount {
	counts := make(map[string]int)
	sums := make(map[string]float64)
	for _, item := range items {
		k := key(item)
		counts[k]++
		if pred == nil || pred(item) {
			sums[k] += value(item)
		}
	}

	out := make([]KeyAmount, 0, len(counts))
	for _, k := range sortedKeys(counts) {
		out = append(out, KeyAmount{Key: k, Count: counts[k], Amount: Round2(sums[k])})
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
