package analytics

import (
	"fmt"
	"testing"

	"github.com/richxcame/transit-ops/internal/store"
	"github.com/richxcame/transit-ops/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRank_Routes(t *testing.T) {
	table := Rank(mustFilter(fleetSnapshot(), Criteria{}), DimensionRoute)

	require.Len(t, table, 2)
	north := table[0]
	assert.Equal(t, "r1", north.ID)
	assert.Equal(t, "North Loop", north.Name)
	assert.Equal(t, 2, north.TotalRuns)
	assert.Equal(t, 2, north.CompletedRuns)
	assert.Equal(t, 100.0, north.CompletionRate)
	assert.Equal(t, 2, north.Reservations)
	assert.Equal(t, 50, north.Passengers)
	assert.Equal(t, 35.5, north.Revenue)
	assert.Equal(t, 110.0, north.OperationalCost)
	require.NotNil(t, north.Utilization)
	assert.Equal(t, 62.5, *north.Utilization) // 50 of 2*40 seats

	south := table[1]
	assert.Equal(t, 1, south.TotalRuns)
	assert.Equal(t, 0.0, south.CompletionRate)
	assert.Equal(t, 0.0, south.Revenue)
	require.NotNil(t, south.Utilization)
	assert.Equal(t, 0.0, *south.Utilization)
}

func TestRank_DriversHaveNoUtilization(t *testing.T) {
	table := Rank(mustFilter(fleetSnapshot(), Criteria{}), DimensionDriver)

	require.Len(t, table, 2)
	assert.Equal(t, "d1", table[0].ID)
	assert.Equal(t, 35.5, table[0].Revenue)
	for _, row := range table {
		assert.Nil(t, row.Utilization)
	}
}

func TestRank_Supervisors(t *testing.T) {
	table := Rank(mustFilter(fleetSnapshot(), Criteria{}), DimensionSupervisor)

	require.Len(t, table, 1)
	assert.Equal(t, "s1", table[0].ID)
	assert.Equal(t, 1, table[0].TotalRuns)
	assert.Equal(t, 10.0, table[0].Revenue)
}

func TestRank_RiderPredicateKeepsStaffRosters(t *testing.T) {
	f := mustFilter(fleetSnapshot(), Criteria{RiderID: "u1"})
	require.Len(t, f.Riders, 1)

	drivers := Rank(f, DimensionDriver)
	require.Len(t, drivers, 2)
	assert.Equal(t, "d1", drivers[0].ID)
	assert.Equal(t, 35.5, drivers[0].Revenue)
	assert.Equal(t, "d2", drivers[1].ID)
	assert.Equal(t, 0.0, drivers[1].Revenue)

	supervisors := Rank(f, DimensionSupervisor)
	require.Len(t, supervisors, 1)
	assert.Equal(t, "s1", supervisors[0].ID)
	assert.Equal(t, 10.0, supervisors[0].Revenue)
}

func TestRank_DanglingReferencesDoNotFail(t *testing.T) {
	snap := &store.Snapshot{
		Vehicles: []models.Vehicle{{ID: "v1", Number: "BUS-1", Capacity: 10}},
		Runs: []models.Run{
			{ID: "x", RouteID: "ghost", BusID: "v1", DriverID: "ghost", Status: models.RunStatusCompleted, PassengerCount: 5},
			{ID: "y", RouteID: "ghost", BusID: "ghost-bus", DriverID: "ghost", Status: models.RunStatusCompleted, PassengerCount: 5},
		},
	}
	f := mustFilter(snap, Criteria{})

	assert.Empty(t, Rank(f, DimensionRoute))
	vehicles := Rank(f, DimensionVehicle)
	require.Len(t, vehicles, 1)
	assert.Equal(t, 50.0, *vehicles[0].Utilization)
	// the unknown bus contributes no seats
	assert.Equal(t, 10, seatsOffered(f, f.Runs))
}

func TestTop_TruncatesAndSortsByRevenue(t *testing.T) {
	for _, size := range []int{0, 1, 4, 5, 6, 12} {
		t.Run(fmt.Sprintf("size_%d", size), func(t *testing.T) {
			table := make([]EntityPerformance, size)
			for i := range table {
				table[i] = EntityPerformance{ID: fmt.Sprintf("e%d", i), Revenue: float64((i * 7) % 5)}
			}

			top := Top(table, 5)
			want := size
			if want > 5 {
				want = 5
			}
			assert.Len(t, top, want)
			assert.NotNil(t, top)
			for i := 1; i < len(top); i++ {
				assert.GreaterOrEqual(t, top[i-1].Revenue, top[i].Revenue)
			}
		})
	}
}

func TestTop_TiesKeepTableOrder(t *testing.T) {
	table := []EntityPerformance{
		{ID: "a", Revenue: 10},
		{ID: "b", Revenue: 20},
		{ID: "c", Revenue: 10},
		{ID: "d", Revenue: 20},
	}
	top := Top(table, 3)

	ids := []string{top[0].ID, top[1].ID, top[2].ID}
	assert.Equal(t, []string{"b", "d", "a"}, ids)
	assert.Equal(t, "a", table[0].ID, "input must not be reordered")
}

func TestParseDimension(t *testing.T) {
	d, err := ParseDimension("drivers")
	require.NoError(t, err)
	assert.Equal(t, DimensionDriver, d)

	_, err = ParseDimension("planets")
	assert.Error(t, err)
}
