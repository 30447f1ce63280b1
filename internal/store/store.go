// Package store provides point-in-time snapshots of the transit record
// collections and the write primitives for maintenance tickets.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/richxcame/transit-ops/pkg/models"
)

var (
	// ErrNotFound is returned when a ticket id does not exist
	ErrNotFound = errors.New("record not found")
	// ErrVersionConflict is returned when a ticket was modified since it was read
	ErrVersionConflict = errors.New("version conflict")
	// ErrAlreadyExists is returned when inserting a ticket whose id is taken
	ErrAlreadyExists = errors.New("record already exists")
	// ErrUnavailable wraps backend failures and open circuit breakers
	ErrUnavailable = errors.New("record store unavailable")
)

// Snapshot is an immutable, point-in-time view of every collection.
// Consumers must treat the slices as read-only.
type Snapshot struct {
	Riders       []models.Rider             `json:"riders"`
	Vehicles     []models.Vehicle           `json:"vehicles"`
	Routes       []models.Route             `json:"routes"`
	Runs         []models.Run               `json:"runs"`
	Payments     []models.Payment           `json:"payments"`
	Reservations []models.Reservation       `json:"reservations"`
	Attendance   []models.AttendanceRecord  `json:"attendance"`
	Tickets      []models.MaintenanceTicket `json:"tickets"`
	FetchedAt    time.Time                  `json:"fetchedAt"`
}

// Clone returns a copy whose slices can be mutated without affecting s
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Riders:       append([]models.Rider(nil), s.Riders...),
		Vehicles:     append([]models.Vehicle(nil), s.Vehicles...),
		Routes:       append([]models.Route(nil), s.Routes...),
		Runs:         append([]models.Run(nil), s.Runs...),
		Payments:     append([]models.Payment(nil), s.Payments...),
		Reservations: append([]models.Reservation(nil), s.Reservations...),
		Attendance:   append([]models.AttendanceRecord(nil), s.Attendance...),
		Tickets:      append([]models.MaintenanceTicket(nil), s.Tickets...),
		FetchedAt:    s.FetchedAt,
	}
}

// Reader fetches snapshots
type Reader interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// TicketStore is the maintenance ticket write primitive.
// UpdateTicket persists ticket only if the stored version equals expectedVersion.
type TicketStore interface {
	GetTicket(ctx context.Context, id string) (*models.MaintenanceTicket, error)
	InsertTicket(ctx context.Context, ticket models.MaintenanceTicket) error
	UpdateTicket(ctx context.Context, ticket models.MaintenanceTicket, expectedVersion int) error
	DeleteTicket(ctx context.Context, id string) error
}

// Store is a complete record-store backend
type Store interface {
	Reader
	TicketStore
	Name() string
	Ping(ctx context.Context) error
}

// IsClientError reports whether err is an expected outcome of a ticket
// write rather than a backend failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrVersionConflict) ||
		errors.Is(err, ErrAlreadyExists)
}
