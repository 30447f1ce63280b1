package models

// ReservationStatus represents a seat reservation status
type ReservationStatus string

const (
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusCancelled ReservationStatus = "cancelled"
)

// Reservation represents a rider's seat on a run
type Reservation struct {
	ID      string            `json:"id" db:"id" bson:"_id"`
	RunID   string            `json:"runId" db:"run_id" bson:"runId"`
	RiderID string            `json:"riderId" db:"rider_id" bson:"riderId"`
	Date    string            `json:"date" db:"date" bson:"date"`
	Status  ReservationStatus `json:"status" db:"status" bson:"status"`
}
