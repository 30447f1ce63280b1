package analytics

import (
	"github.com/richxcame/transit-ops/internal/store"
	"github.com/richxcame/transit-ops/pkg/models"
	"github.com/richxcame/transit-ops/pkg/validation"
)

// Criteria narrows a snapshot before aggregation. Every field is optional;
// dates are inclusive YYYY-MM-DD bounds.
type Criteria struct {
	StartDate    string `form:"startDate" json:"startDate,omitempty" validate:"omitempty,iso_date"`
	EndDate      string `form:"endDate" json:"endDate,omitempty" validate:"omitempty,iso_date"`
	RouteID      string `form:"routeId" json:"routeId,omitempty"`
	VehicleID    string `form:"vehicleId" json:"vehicleId,omitempty"`
	DriverID     string `form:"driverId" json:"driverId,omitempty"`
	SupervisorID string `form:"supervisorId" json:"supervisorId,omitempty"`
	RiderID      string `form:"riderId" json:"riderId,omitempty"`
}

// Validate returns a validation AppError for malformed dates
func (c Criteria) Validate() error {
	return validation.ValidateStruct(c)
}

// Reversed reports whether both bounds are set and start is after end
func (c Criteria) Reversed() bool {
	return c.StartDate != "" && c.EndDate != "" && c.StartDate > c.EndDate
}

func (c Criteria) runScoped() bool {
	return c.RouteID != "" || c.VehicleID != "" || c.DriverID != "" || c.SupervisorID != ""
}

func (c Criteria) inRange(date string) bool {
	if c.StartDate == "" && c.EndDate == "" {
		return true
	}
	if len(date) < len(validation.ISODateLayout) {
		return false
	}
	day := date[:len(validation.ISODateLayout)]
	if c.StartDate != "" && day < c.StartDate {
		return false
	}
	if c.EndDate != "" && day > c.EndDate {
		return false
	}
	return true
}

// Filtered holds the sub-collections of a snapshot that satisfy a Criteria.
// Slices are freshly allocated and never alias the snapshot.
type Filtered struct {
	Riders       []models.Rider
	Vehicles     []models.Vehicle
	Routes       []models.Route
	Runs         []models.Run
	Payments     []models.Payment
	Reservations []models.Reservation
	Attendance   []models.AttendanceRecord
	Tickets      []models.MaintenanceTicket

	// capacity resolves a run's vehicle against the whole fleet
	capacity map[string]int
	// staff is every rider, unaffected by the rider filter, so driver and
	// supervisor rosters stay complete when one rider is selected
	staff []models.Rider
}

// Capacity returns the seat capacity of a vehicle, zero when unknown
func (f *Filtered) Capacity(vehicleID string) int {
	return f.capacity[vehicleID]
}

// Filter applies c to snap. Malformed dates return a validation error.
// A reversed range yields empty collections. When a run-scoped predicate
// is active, payments, reservations and attendance keep only records
// attached to a surviving run.
func Filter(snap *store.Snapshot, c Criteria) (*Filtered, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	f := &Filtered{capacity: make(map[string]int, len(snap.Vehicles))}
	for _, v := range snap.Vehicles {
		f.capacity[v.ID] = v.Capacity
	}
	if c.Reversed() {
		return f, nil
	}

	f.staff = append([]models.Rider(nil), snap.Riders...)
	f.Riders = keep(snap.Riders, func(r models.Rider) bool {
		return c.RiderID == "" || r.ID == c.RiderID
	})
	f.Vehicles = keep(snap.Vehicles, func(v models.Vehicle) bool {
		return c.VehicleID == "" || v.ID == c.VehicleID
	})
	f.Routes = keep(snap.Routes, func(r models.Route) bool {
		return c.RouteID == "" || r.ID == c.RouteID
	})
	f.Tickets = keep(snap.Tickets, func(t models.MaintenanceTicket) bool {
		return c.VehicleID == "" || t.VehicleID == c.VehicleID
	})

	f.Runs = keep(snap.Runs, func(r models.Run) bool {
		switch {
		case c.RouteID != "" && r.RouteID != c.RouteID:
			return false
		case c.VehicleID != "" && r.BusID != c.VehicleID:
			return false
		case c.DriverID != "" && r.DriverID != c.DriverID:
			return false
		case c.SupervisorID != "" && r.Supervisor() != c.SupervisorID:
			return false
		}
		return c.inRange(r.Date)
	})

	narrow := c.runScoped()
	runIDs := runIDSet(f.Runs)
	attached := func(runID string) bool {
		if !narrow {
			return true
		}
		_, ok := runIDs[runID]
		return ok
	}
	byRider := func(riderID string) bool {
		return c.RiderID == "" || riderID == c.RiderID
	}

	f.Payments = keep(snap.Payments, func(p models.Payment) bool {
		return byRider(p.RiderID) && attached(p.Run()) && c.inRange(p.Date)
	})
	f.Reservations = keep(snap.Reservations, func(r models.Reservation) bool {
		return byRider(r.RiderID) && attached(r.RunID) && c.inRange(r.Date)
	})
	f.Attendance = keep(snap.Attendance, func(a models.AttendanceRecord) bool {
		return byRider(a.RiderID) && attached(a.RunID) && c.inRange(a.Timestamp)
	})

	return f, nil
}

func keep[T any](items []T, pred func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if pred(item) {
			out = append(out, item)
		}
	}
	return out
}

func runIDSet(runs []models.Run) map[string]struct{} {
	ids := make(map[string]struct{}, len(runs))
	for _, r := range runs {
		ids[r.ID] = struct{}{}
	}
	return ids
}
