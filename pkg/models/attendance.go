package models

// AttendanceStatus represents whether a rider boarded
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
)

// AttendanceRecord records a rider boarding (or missing) a run
type AttendanceRecord struct {
	ID        string           `json:"id" db:"id" bson:"_id"`
	RunID     string           `json:"runId" db:"run_id" bson:"runId"`
	RiderID   string           `json:"riderId" db:"rider_id" bson:"riderId"`
	Status    AttendanceStatus `json:"status" db:"status" bson:"status"`
	Timestamp string           `json:"timestamp" db:"timestamp" bson:"timestamp"` // RFC 3339
}
