package analytics

import (
	"time"

	"github.com/richxcame/transit-ops/internal/store"
	"github.com/richxcame/transit-ops/pkg/models"
)

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

// fleetSnapshot is a small but complete dataset: two routes, three
// vehicles, two drivers, one supervisor and a handful of riders.
func fleetSnapshot() *store.Snapshot {
	return &store.Snapshot{
		Riders: []models.Rider{
			{ID: "u1", Name: "Ana", Role: models.RoleRider, Status: models.RiderStatusActive},
			{ID: "u2", Name: "Ben", Role: models.RoleRider, Status: "inactive"},
			{ID: "d1", Name: "Dee", Role: models.RoleDriver, Status: models.RiderStatusActive},
			{ID: "d2", Name: "Dan", Role: models.RoleDriver, Status: models.RiderStatusActive},
			{ID: "s1", Name: "Sue", Role: models.RoleSupervisor, Status: models.RiderStatusActive},
		},
		Vehicles: []models.Vehicle{
			{ID: "v1", Number: "BUS-1", Capacity: 40, Status: models.VehicleStatusActive, LastMaintenance: strPtr("2024-01-01")},
			{ID: "v2", Number: "BUS-2", Capacity: 20, Status: models.VehicleStatusActive, LastMaintenance: strPtr("2023-11-01")},
			{ID: "v3", Number: "BUS-3", Capacity: 30, Status: models.VehicleStatusMaintenance},
		},
		Routes: []models.Route{
			{ID: "r1", Name: "North Loop", Status: models.RouteStatusActive},
			{ID: "r2", Name: "South Line", Status: models.RouteStatusInactive},
		},
		Runs: []models.Run{
			{ID: "run1", RouteID: "r1", BusID: "v1", DriverID: "d1", SupervisorID: strPtr("s1"), Date: "2024-01-05",
				Status: models.RunStatusCompleted, PassengerCount: 20, ScheduledStartTime: strPtr("08:00"), ActualStartTime: strPtr("08:03"), OperationalCost: 50},
			{ID: "run2", RouteID: "r1", BusID: "v1", DriverID: "d1", Date: "2024-02-10",
				Status: models.RunStatusCompleted, PassengerCount: 30, ScheduledStartTime: strPtr("09:00"), ActualStartTime: strPtr("09:20"), OperationalCost: 60},
			{ID: "run3", RouteID: "r2", BusID: "v2", DriverID: "d2", Date: "2024-02-20",
				Status: models.RunStatusCancelled, PassengerCount: 0, OperationalCost: 10},
			{ID: "run4", RouteID: "r9", BusID: "v9", DriverID: "d9", Date: "2024-03-01",
				Status: models.RunStatusScheduled, PassengerCount: 5},
		},
		Payments: []models.Payment{
			{ID: "p1", RunID: strPtr("run1"), RiderID: "u1", Amount: 10, Status: models.PaymentStatusCompleted, Method: "card", Date: "2024-01-05"},
			{ID: "p2", RunID: strPtr("run2"), RiderID: "u1", Amount: 25.5, Status: models.PaymentStatusCompleted, Method: "cash", Date: "2024-02-10"},
			{ID: "p3", RunID: strPtr("run2"), RiderID: "u2", Amount: 7, Status: models.PaymentStatusPending, Method: "card", Date: "2024-02-10"},
			{ID: "p4", RunID: strPtr("run3"), RiderID: "u2", Amount: 4, Status: models.PaymentStatusRefunded, Method: "card", Date: "2024-02-20"},
			{ID: "p5", RiderID: "u1", Amount: 30, Status: models.PaymentStatusCompleted, Method: "card", Date: "2024-02-01"},
		},
		Reservations: []models.Reservation{
			{ID: "res1", RunID: "run1", RiderID: "u1", Date: "2024-01-04", Status: models.ReservationStatusConfirmed},
			{ID: "res2", RunID: "run2", RiderID: "u1", Date: "2024-02-09", Status: models.ReservationStatusConfirmed},
			{ID: "res3", RunID: "run3", RiderID: "u2", Date: "2024-02-19", Status: models.ReservationStatusCancelled},
		},
		Attendance: []models.AttendanceRecord{
			{ID: "a1", RunID: "run1", RiderID: "u1", Status: models.AttendancePresent, Timestamp: "2024-01-05T08:05:00Z"},
			{ID: "a2", RunID: "run2", RiderID: "u1", Status: models.AttendanceAbsent, Timestamp: "2024-02-10T09:20:00Z"},
		},
		Tickets: []models.MaintenanceTicket{
			{ID: "t1", VehicleID: "v2", Type: "preventive", Status: models.TicketStatusScheduled, Priority: models.PriorityHigh, EstimatedCost: 200, Version: 1},
			{ID: "t2", VehicleID: "v1", Type: "repair", Status: models.TicketStatusCompleted, Priority: models.PriorityMedium,
				CompletedDate: strPtr("2024-01-01"), EstimatedCost: 100, ActualCost: floatPtr(120.5), Version: 3},
		},
	}
}

// februaryRevenueSnapshot holds three runs and two completed payments on the
// February runs.
func februaryRevenueSnapshot() *store.Snapshot {
	return &store.Snapshot{
		Runs: []models.Run{
			{ID: "a", RouteID: "r1", BusID: "v1", DriverID: "d1", Date: "2024-01-05", Status: models.RunStatusCompleted},
			{ID: "b", RouteID: "r1", BusID: "v1", DriverID: "d1", Date: "2024-02-10", Status: models.RunStatusCompleted},
			{ID: "c", RouteID: "r1", BusID: "v1", DriverID: "d1", Date: "2024-02-20", Status: models.RunStatusCompleted},
		},
		Payments: []models.Payment{
			{ID: "p1", RunID: strPtr("b"), RiderID: "u1", Amount: 100, Status: models.PaymentStatusCompleted, Date: "2024-02-10"},
			{ID: "p2", RunID: strPtr("c"), RiderID: "u1", Amount: 100, Status: models.PaymentStatusCompleted, Date: "2024-02-20"},
		},
	}
}

func mustFilter(snap *store.Snapshot, c Criteria) *Filtered {
	f, err := Filter(snap, c)
	if err != nil {
		panic(err)
	}
	return f
}
