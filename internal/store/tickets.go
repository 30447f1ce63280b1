package store

import "github.com/richxcame/transit-ops/pkg/models"

// The helpers below implement ticket mutations over an in-memory slice.
// They never modify the input slice.

func findTicket(tickets []models.MaintenanceTicket, id string) int {
	for i := range tickets {
		if tickets[i].ID == id {
			return i
		}
	}
	return -1
}

func insertTicket(tickets []models.MaintenanceTicket, ticket models.MaintenanceTicket) ([]models.MaintenanceTicket, error) {
	if findTicket(tickets, ticket.ID) >= 0 {
		return nil, ErrAlreadyExists
	}
	out := make([]models.MaintenanceTicket, 0, len(tickets)+1)
	out = append(out, tickets...)
	return append(out, ticket), nil
}

func updateTicket(tickets []models.MaintenanceTicket, ticket models.MaintenanceTicket, expectedVersion int) ([]models.MaintenanceTicket, error) {
	i := findTicket(tickets, ticket.ID)
	if i < 0 {
		return nil, ErrNotFound
	}
	if tickets[i].Version != expectedVersion {
		return nil, ErrVersionConflict
	}
	out := append([]models.MaintenanceTicket(nil), tickets...)
	out[i] = ticket
	return out, nil
}

func deleteTicket(tickets []models.MaintenanceTicket, id string) ([]models.MaintenanceTicket, error) {
	i := findTicket(tickets, id)
	if i < 0 {
		return nil, ErrNotFound
	}
	out := make([]models.MaintenanceTicket, 0, len(tickets)-1)
	out = append(out, tickets[:i]...)
	return append(out, tickets[i+1:]...), nil
}
