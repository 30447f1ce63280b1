package store

import (
	"context"
	"sync"
	"time"

	"github.com/richxcame/transit-ops/pkg/models"
)

// Memory is an in-process Store, used for tests and local demos
type Memory struct {
	mu   sync.RWMutex
	data Snapshot
}

// NewMemory creates a store seeded with the given collections
func NewMemory(seed Snapshot) *Memory {
	return &Memory{data: seed.Clone()}
}

// Name implements Store
func (m *Memory) Name() string { return "memory" }

// Ping implements Store
func (m *Memory) Ping(context.Context) error { return nil }

// Snapshot implements Reader
func (m *Memory) Snapshot(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := m.data.Clone()
	snap.FetchedAt = time.Now().UTC()
	return &snap, nil
}

// GetTicket implements TicketStore
func (m *Memory) GetTicket(ctx context.Context, id string) (*models.MaintenanceTicket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := findTicket(m.data.Tickets, id)
	if i < 0 {
		return nil, ErrNotFound
	}
	ticket := m.data.Tickets[i]
	return &ticket, nil
}

// InsertTicket implements TicketStore
func (m *Memory) InsertTicket(ctx context.Context, ticket models.MaintenanceTicket) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tickets, err := insertTicket(m.data.Tickets, ticket)
	if err != nil {
		return err
	}
	m.data.Tickets = tickets
	return nil
}

// UpdateTicket implements TicketStore
func (m *Memory) UpdateTicket(ctx context.Context, ticket models.MaintenanceTicket, expectedVersion int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tickets, err := updateTicket(m.data.Tickets, ticket, expectedVersion)
	if err != nil {
		return err
	}
	m.data.Tickets = tickets
	return nil
}

// DeleteTicket implements TicketStore
func (m *Memory) DeleteTicket(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tickets, err := deleteTicket(m.data.Tickets, id)
	if err != nil {
		return err
	}
	m.data.Tickets = tickets
	return nil
}
