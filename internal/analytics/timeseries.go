package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/richxcame/transit-ops/pkg/models"
)

// DefaultTrendMonths is the length of the trailing trend window
const DefaultTrendMonths = 12

const monthLayout = "2006-01"

// TrendMode selects how bucket keys are chosen
type TrendMode string

const (
	// TrendTrailing emits a fixed window ending at the current month
	TrendTrailing TrendMode = "trailing"
	// TrendData emits only months that contain records
	TrendData TrendMode = "data"
)

// MonthlyTrend aggregates the records dated inside one calendar month
type MonthlyTrend struct {
	Month        string  `json:"month"`
	Runs         int     `json:"runs"`
	Revenue      float64 `json:"revenue"`
	Reservations int     `json:"reservations"`
	Passengers   int     `json:"passengers"`
}

// TrailingMonths returns n contiguous YYYY-MM keys, oldest first, ending
// at the month containing now.
func TrailingMonths(now time.Time, n int) []string {
	if n <= 0 {
		return []string{}
	}
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	keys := make([]string, n)
	for i := 0; i < n; i++ {
		keys[i] = first.AddDate(0, i-(n-1), 0).Format(monthLayout)
	}
	return keys
}

// DataMonths returns the sorted distinct months present in runs, payments
// and reservations.
func DataMonths(f *Filtered) []string {
	seen := make(map[string]struct{})
	add := func(date string) {
		if len(date) >= len(monthLayout) {
			seen[date[:len(monthLayout)]] = struct{}{}
		}
	}
	for _, r := range f.Runs {
		add(r.Date)
	}
	for _, p := range f.Payments {
		add(p.Date)
	}
	for _, r := range f.Reservations {
		add(r.Date)
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Bucket aggregates f into one MonthlyTrend per key, preserving key order.
// Months without records are emitted with zero values.
func Bucket(f *Filtered, keys []string) []MonthlyTrend {
	trends := make([]MonthlyTrend, 0, len(keys))
	for _, month := range keys {
		inMonth := func(date string) bool { return strings.HasPrefix(date, month) }

		runs := keep(f.Runs, func(r models.Run) bool { return inMonth(r.Date) })
		revenue := SumWhere(f.Payments, paymentAmount, func(p models.Payment) bool {
			return p.IsCompleted() && inMonth(p.Date)
		})

		trends = append(trends, MonthlyTrend{
			Month:        month,
			Runs:         len(runs),
			Revenue:      Round2(revenue),
			Reservations: CountWhere(f.Reservations, func(r models.Reservation) bool { return inMonth(r.Date) }),
			Passengers:   sumPassengers(runs),
		})
	}
	return trends
}

// Trends buckets f in the given mode. months only applies to TrendTrailing.
func Trends(f *Filtered, mode TrendMode, now time.Time, months int) []MonthlyTrend {
	if mode == TrendData {
		return Bucket(f, DataMonths(f))
	}
	return Bucket(f, TrailingMonths(now, months))
}

func paymentAmount(p models.Payment) float64 { return p.Amount }

func sumPassengers(runs []models.Run) int {
	total := 0
	for _, r := range runs {
		total += r.PassengerCount
	}
	return total
}
