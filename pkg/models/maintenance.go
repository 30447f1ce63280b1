package models

import "time"

// TicketStatus represents a maintenance ticket lifecycle state
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusScheduled  TicketStatus = "scheduled"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusCompleted  TicketStatus = "completed"
)

// TicketPriority represents how urgent a maintenance ticket is
type TicketPriority string

const (
	PriorityLow      TicketPriority = "low"
	PriorityMedium   TicketPriority = "medium"
	PriorityHigh     TicketPriority = "high"
	PriorityCritical TicketPriority = "critical"
)

// Default values for new tickets
const (
	DefaultTicketType     = "preventive"
	DefaultTicketStatus   = TicketStatusScheduled
	DefaultTicketPriority = PriorityMedium
)

// MaintenanceTicket represents a maintenance schedule entry for a vehicle
type MaintenanceTicket struct {
	ID            string         `json:"id" db:"id" bson:"_id"`
	VehicleID     string         `json:"vehicleId" db:"vehicle_id" bson:"vehicleId"`
	Type          string         `json:"type" db:"type" bson:"type"`
	Description   string         `json:"description,omitempty" db:"description" bson:"description,omitempty"`
	Status        TicketStatus   `json:"status" db:"status" bson:"status"`
	Priority      TicketPriority `json:"priority" db:"priority" bson:"priority"`
	ScheduledDate *string        `json:"scheduledDate,omitempty" db:"scheduled_date" bson:"scheduledDate,omitempty"`
	CompletedDate *string        `json:"completedDate,omitempty" db:"completed_date" bson:"completedDate,omitempty"`
	EstimatedCost float64        `json:"estimatedCost" db:"estimated_cost" bson:"estimatedCost"`
	ActualCost    *float64       `json:"actualCost,omitempty" db:"actual_cost" bson:"actualCost,omitempty"`
	Notes         string         `json:"notes,omitempty" db:"notes" bson:"notes,omitempty"`
	Version       int            `json:"version" db:"version" bson:"version"`
	CreatedAt     time.Time      `json:"createdAt" db:"created_at" bson:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt" db:"updated_at" bson:"updatedAt"`
}

// IsPending reports whether the ticket still needs work
func (t MaintenanceTicket) IsPending() bool {
	return t.Status != TicketStatusCompleted
}
