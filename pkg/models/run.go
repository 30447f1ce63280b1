package models

// RunStatus represents the status of a scheduled run
type RunStatus string

const (
	RunStatusScheduled RunStatus = "scheduled"
	RunStatusActive    RunStatus = "active"
	RunStatusCompleted RunStatus = "completed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Run represents a scheduled trip of one vehicle on one route
type Run struct {
	ID                 string    `json:"id" db:"id" bson:"_id"`
	RouteID            string    `json:"routeId" db:"route_id" bson:"routeId"`
	BusID              string    `json:"busId" db:"bus_id" bson:"busId"`
	DriverID           string    `json:"driverId" db:"driver_id" bson:"driverId"`
	SupervisorID       *string   `json:"supervisorId,omitempty" db:"supervisor_id" bson:"supervisorId,omitempty"`
	Date               string    `json:"date" db:"date" bson:"date"` // YYYY-MM-DD
	Status             RunStatus `json:"status" db:"status" bson:"status"`
	PassengerCount     int       `json:"passengerCount" db:"passenger_count" bson:"passengerCount"`
	ScheduledStartTime *string   `json:"scheduledStartTime,omitempty" db:"scheduled_start_time" bson:"scheduledStartTime,omitempty"` // HH:MM
	ActualStartTime    *string   `json:"actualStartTime,omitempty" db:"actual_start_time" bson:"actualStartTime,omitempty"`          // HH:MM
	OperationalCost    float64   `json:"operationalCost" db:"operational_cost" bson:"operationalCost"`
}

// Supervisor returns the supervisor id or an empty string
func (r Run) Supervisor() string {
	if r.SupervisorID == nil {
		return ""
	}
	return *r.SupervisorID
}
