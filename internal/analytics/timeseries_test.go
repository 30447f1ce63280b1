package analytics

import (
	"testing"
	"time"

	"github.com/richxcame/transit-ops/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrailingMonths(t *testing.T) {
	keys := TrailingMonths(fixedNow, 12)

	require.Len(t, keys, 12)
	assert.Equal(t, "2023-04", keys[0])
	assert.Equal(t, "2024-03", keys[11])
	for i := 1; i < len(keys); i++ {
		prev, err := time.Parse(monthLayout, keys[i-1])
		require.NoError(t, err)
		assert.Equal(t, prev.AddDate(0, 1, 0).Format(monthLayout), keys[i])
	}
}

func TestTrailingMonths_EndOfMonthClock(t *testing.T) {
	// the 31st must not skip short months
	keys := TrailingMonths(time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC), 3)
	assert.Equal(t, []string{"2024-01", "2024-02", "2024-03"}, keys)
}

func TestBucket_EmptyDataIsZeroFilled(t *testing.T) {
	f := mustFilter(&store.Snapshot{}, Criteria{})
	trends := Bucket(f, TrailingMonths(fixedNow, DefaultTrendMonths))

	require.Len(t, trends, 12)
	for _, m := range trends {
		assert.Zero(t, m.Runs)
		assert.Zero(t, m.Revenue)
		assert.Zero(t, m.Reservations)
		assert.Zero(t, m.Passengers)
	}
	assert.Equal(t, "2024-03", trends[11].Month)
}

func TestBucket_AggregatesPerMonth(t *testing.T) {
	f := mustFilter(fleetSnapshot(), Criteria{})
	trends := Bucket(f, []string{"2024-01", "2024-02", "2024-03"})

	require.Len(t, trends, 3)
	assert.Equal(t, MonthlyTrend{Month: "2024-01", Runs: 1, Revenue: 10, Reservations: 1, Passengers: 20}, trends[0])
	// completed only: 25.5 trip + 30 subscription; pending and refunded excluded
	assert.Equal(t, MonthlyTrend{Month: "2024-02", Runs: 2, Revenue: 55.5, Reservations: 2, Passengers: 30}, trends[1])
	assert.Equal(t, MonthlyTrend{Month: "2024-03", Runs: 1, Revenue: 0, Reservations: 0, Passengers: 5}, trends[2])
}

func TestDataMonths(t *testing.T) {
	f := mustFilter(fleetSnapshot(), Criteria{})
	assert.Equal(t, []string{"2024-01", "2024-02", "2024-03"}, DataMonths(f))

	empty := mustFilter(&store.Snapshot{}, Criteria{})
	assert.Empty(t, DataMonths(empty))
	assert.Empty(t, Trends(empty, TrendData, fixedNow, 12))
}
