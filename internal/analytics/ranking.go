package analytics

import (
	"fmt"
	"sort"

	"github.com/richxcame/transit-ops/pkg/common"
	"github.com/richxcame/transit-ops/pkg/models"
)

// DefaultTopN is the leaderboard length used by report variants
const DefaultTopN = 5

// Dimension is an entity kind that runs can be grouped by
type Dimension string

const (
	DimensionRoute      Dimension = "route"
	DimensionVehicle    Dimension = "vehicle"
	DimensionDriver     Dimension = "driver"
	DimensionSupervisor Dimension = "supervisor"
)

// Dimensions lists every dimension in report order
var Dimensions = []Dimension{DimensionRoute, DimensionVehicle, DimensionDriver, DimensionSupervisor}

// ParseDimension accepts singular or plural names
func ParseDimension(s string) (Dimension, error) {
	switch s {
	case "route", "routes":
		return DimensionRoute, nil
	case "vehicle", "vehicles":
		return DimensionVehicle, nil
	case "driver", "drivers":
		return DimensionDriver, nil
	case "supervisor", "supervisors":
		return DimensionSupervisor, nil
	}
	return "", common.NewValidationError(fmt.Sprintf("dimension must be one of route, vehicle, driver, supervisor; got %q", s))
}

// EntityPerformance is one row of a leaderboard
type EntityPerformance struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	TotalRuns       int      `json:"totalRuns"`
	CompletedRuns   int      `json:"completedRuns"`
	CompletionRate  float64  `json:"completionRate"`
	Reservations    int      `json:"reservations"`
	Passengers      int      `json:"passengers"`
	Revenue         float64  `json:"revenue"`
	Utilization     *float64 `json:"utilization,omitempty"`
	OperationalCost float64  `json:"operationalCost"`
}

type entity struct {
	id   string
	name string
}

// Rank builds the full performance table for a dimension, one row per
// entity in input order. Reservations and payments are attributed through
// the entity's own runs.
func Rank(f *Filtered, dim Dimension) []EntityPerformance {
	entities, joinKey := dimensionEntities(f, dim)
	withUtilization := dim == DimensionRoute || dim == DimensionVehicle

	runsByEntity := make(map[string][]models.Run)
	for _, r := range f.Runs {
		k := joinKey(r)
		runsByEntity[k] = append(runsByEntity[k], r)
	}

	table := make([]EntityPerformance, 0, len(entities))
	for _, e := range entities {
		runs := runsByEntity[e.id]
		runIDs := runIDSet(runs)
		onEntityRun := func(runID string) bool {
			_, ok := runIDs[runID]
			return ok
		}

		completed := CountWhere(runs, func(r models.Run) bool { return r.Status == models.RunStatusCompleted })
		passengers := sumPassengers(runs)
		revenue := SumWhere(f.Payments, paymentAmount, func(p models.Payment) bool {
			return p.IsCompleted() && onEntityRun(p.Run())
		})
		cost := SumWhere(runs, func(r models.Run) float64 { return r.OperationalCost }, nil)

		row := EntityPerformance{
			ID:              e.id,
			Name:            e.name,
			TotalRuns:       len(runs),
			CompletedRuns:   completed,
			CompletionRate:  Round2(Rate(float64(completed), float64(len(runs)))),
			Reservations:    CountWhere(f.Reservations, func(r models.Reservation) bool { return onEntityRun(r.RunID) }),
			Passengers:      passengers,
			Revenue:         Round2(revenue),
			OperationalCost: Round2(cost),
		}
		if withUtilization {
			u := Round2(Rate(float64(passengers), float64(seatsOffered(f, runs))))
			row.Utilization = &u
		}
		table = append(table, row)
	}
	return table
}

// Top returns the n highest-revenue rows. Ties keep their table order.
func Top(table []EntityPerformance, n int) []EntityPerformance {
	sorted := make([]EntityPerformance, len(table))
	copy(sorted, table)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Revenue > sorted[j].Revenue
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func dimensionEntities(f *Filtered, dim Dimension) ([]entity, func(models.Run) string) {
	var entities []entity
	switch dim {
	case DimensionRoute:
		for _, r := range f.Routes {
			entities = append(entities, entity{id: r.ID, name: r.Name})
		}
		return entities, func(r models.Run) string { return r.RouteID }
	case DimensionVehicle:
		for _, v := range f.Vehicles {
			entities = append(entities, entity{id: v.ID, name: v.Number})
		}
		return entities, func(r models.Run) string { return r.BusID }
	case DimensionDriver:
		return ridersWithRole(f.staff, models.RoleDriver), func(r models.Run) string { return r.DriverID }
	default:
		return ridersWithRole(f.staff, models.RoleSupervisor), func(r models.Run) string { return r.Supervisor() }
	}
}

func ridersWithRole(riders []models.Rider, role models.UserRole) []entity {
	var out []entity
	for _, r := range riders {
		if r.Role == role {
			out = append(out, entity{id: r.ID, name: r.Name})
		}
	}
	return out
}

// seatsOffered sums the capacity of each run's vehicle
func seatsOffered(f *Filtered, runs []models.Run) int {
	seats := 0
	for _, r := range runs {
		seats += f.Capacity(r.BusID)
	}
	return seats
}
