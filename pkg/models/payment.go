package models

// PaymentStatus represents payment status
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Payment represents a fare or subscription payment.
// A payment without a run id is a subscription payment.
type Payment struct {
	ID      string        `json:"id" db:"id" bson:"_id"`
	RunID   *string       `json:"runId,omitempty" db:"run_id" bson:"runId,omitempty"`
	RiderID string        `json:"riderId" db:"rider_id" bson:"riderId"`
	Amount  float64       `json:"amount" db:"amount" bson:"amount"`
	Status  PaymentStatus `json:"status" db:"status" bson:"status"`
	Method  string        `json:"method" db:"method" bson:"method"`
	Date    string        `json:"date" db:"date" bson:"date"`
}

// Run returns the run id or an empty string for subscriptions
func (p Payment) Run() string {
	if p.RunID == nil {
		return ""
	}
	return *p.RunID
}

// IsCompleted reports whether the payment counts as revenue
func (p Payment) IsCompleted() bool {
	return p.Status == PaymentStatusCompleted
}
