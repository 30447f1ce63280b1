package eventbus

import "time"

// Subjects for maintenance ticket events.
const (
	SubjectTicketCreated = "maintenance.ticket.created"
	SubjectTicketUpdated = "maintenance.ticket.updated"
	SubjectTicketDeleted = "maintenance.ticket.deleted"

	// SubjectTicketAll matches every ticket event.
	SubjectTicketAll = "maintenance.ticket.>"
)

// StreamSubjects lists the subjects captured by the JetStream stream.
func StreamSubjects() []string {
	return []string{"maintenance.>"}
}

// TicketEventData is emitted after a maintenance ticket write is persisted.
type TicketEventData struct {
	TicketID  string    `json:"ticketId"`
	VehicleID string    `json:"vehicleId"`
	Status    string    `json:"status"`
	Priority  string    `json:"priority"`
	Version   int       `json:"version"`
	Actor     string    `json:"actor,omitempty"`
	ChangedAt time.Time `json:"changedAt"`
}
