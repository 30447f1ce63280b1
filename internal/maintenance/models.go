package maintenance

import "github.com/richxcame/transit-ops/pkg/models"

// CreateTicketRequest is the payload for scheduling maintenance
type CreateTicketRequest struct {
	VehicleID     string                `json:"vehicleId" validate:"required"`
	Type          string                `json:"type,omitempty"`
	Description   string                `json:"description,omitempty"`
	Status        models.TicketStatus   `json:"status,omitempty" validate:"omitempty,ticket_status"`
	Priority      models.TicketPriority `json:"priority,omitempty" validate:"omitempty,ticket_priority"`
	ScheduledDate *string               `json:"scheduledDate,omitempty" validate:"omitempty,iso_date"`
	CompletedDate *string               `json:"completedDate,omitempty" validate:"omitempty,iso_date"`
	EstimatedCost float64               `json:"estimatedCost" validate:"min=0"`
	ActualCost    *float64              `json:"actualCost,omitempty" validate:"omitempty,min=0"`
	Notes         string                `json:"notes,omitempty"`
}

// UpdateTicketRequest carries the fields to merge over a stored ticket.
// Nil fields are left unchanged. Version, when present, must match the
// stored ticket.
type UpdateTicketRequest struct {
	VehicleID     *string                `json:"vehicleId,omitempty"`
	Type          *string                `json:"type,omitempty"`
	Description   *string                `json:"description,omitempty"`
	Status        *models.TicketStatus   `json:"status,omitempty" validate:"omitempty,ticket_status"`
	Priority      *models.TicketPriority `json:"priority,omitempty" validate:"omitempty,ticket_priority"`
	ScheduledDate *string                `json:"scheduledDate,omitempty" validate:"omitempty,iso_date"`
	CompletedDate *string                `json:"completedDate,omitempty" validate:"omitempty,iso_date"`
	EstimatedCost *float64               `json:"estimatedCost,omitempty" validate:"omitempty,min=0"`
	ActualCost    *float64               `json:"actualCost,omitempty" validate:"omitempty,min=0"`
	Notes         *string                `json:"notes,omitempty"`
	Version       *int                   `json:"version,omitempty" validate:"omitempty,min=1"`
}

// lifecycleRank orders the ticket lifecycle; tickets only move forward
var lifecycleRank = map[models.TicketStatus]int{
	models.TicketStatusOpen:       0,
	models.TicketStatusScheduled:  1,
	models.TicketStatusInProgress: 2,
	models.TicketStatusCompleted:  3,
}
