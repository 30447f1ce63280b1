package models

// VehicleStatus represents the operating status of a vehicle
type VehicleStatus string

const (
	VehicleStatusActive      VehicleStatus = "active"
	VehicleStatusMaintenance VehicleStatus = "maintenance"
	VehicleStatusRetired     VehicleStatus = "retired"
)

// Vehicle represents a fleet vehicle (bus)
type Vehicle struct {
	ID              string        `json:"id" db:"id" bson:"_id"`
	Number          string        `json:"number" db:"number" bson:"number"`
	Capacity        int           `json:"capacity" db:"capacity" bson:"capacity"`
	Status          VehicleStatus `json:"status" db:"status" bson:"status"`
	LastMaintenance *string       `json:"lastMaintenance,omitempty" db:"last_maintenance" bson:"lastMaintenance,omitempty"`
	NextMaintenance *string       `json:"nextMaintenance,omitempty" db:"next_maintenance" bson:"nextMaintenance,omitempty"`
}
