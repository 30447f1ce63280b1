package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/richxcame/transit-ops/pkg/models"
	"github.com/richxcame/transit-ops/pkg/resilience"
)

// Guarded routes every backend call through a circuit breaker so a failing
// backend is rejected quickly instead of tying up request goroutines.
// Not-found, conflicts and cancellations never count as failures.
type Guarded struct {
	inner   Store
	breaker *resilience.CircuitBreaker
}

// NewGuarded wraps inner with a breaker built from settings
func NewGuarded(inner Store, settings resilience.Settings) *Guarded {
	settings.IsSuccessful = func(err error) bool {
		return err == nil || IsClientError(err) || errors.Is(err, context.Canceled)
	}
	return &Guarded{inner: inner, breaker: resilience.NewCircuitBreaker(settings)}
}

// Name implements Store
func (g *Guarded) Name() string { return g.inner.Name() }

// Ping implements Store. Health checks bypass the breaker.
func (g *Guarded) Ping(ctx context.Context) error { return g.inner.Ping(ctx) }

// BreakerState reports the breaker state for health output
func (g *Guarded) BreakerState() string { return g.breaker.State() }

// Snapshot implements Reader
func (g *Guarded) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap, err := resilience.Call(ctx, g.breaker, g.inner.Snapshot)
	if err != nil {
		return nil, g.mapErr(err)
	}
	return snap, nil
}

// GetTicket implements TicketStore
func (g *Guarded) GetTicket(ctx context.Context, id string) (*models.MaintenanceTicket, error) {
	ticket, err := resilience.Call(ctx, g.breaker, func(ctx context.Context) (*models.MaintenanceTicket, error) {
		return g.inner.GetTicket(ctx, id)
	})
	if err != nil {
		return nil, g.mapErr(err)
	}
	return ticket, nil
}

// InsertTicket implements TicketStore
func (g *Guarded) InsertTicket(ctx context.Context, ticket models.MaintenanceTicket) error {
	return g.exec(ctx, func(ctx context.Context) error {
		return g.inner.InsertTicket(ctx, ticket)
	})
}

// UpdateTicket implements TicketStore
func (g *Guarded) UpdateTicket(ctx context.Context, ticket models.MaintenanceTicket, expectedVersion int) error {
	return g.exec(ctx, func(ctx context.Context) error {
		return g.inner.UpdateTicket(ctx, ticket, expectedVersion)
	})
}

// DeleteTicket implements TicketStore
func (g *Guarded) DeleteTicket(ctx context.Context, id string) error {
	return g.exec(ctx, func(ctx context.Context) error {
		return g.inner.DeleteTicket(ctx, id)
	})
}

func (g *Guarded) exec(ctx context.Context, fn func(context.Context) error) error {
	if err := g.breaker.Do(ctx, fn); err != nil {
		return g.mapErr(err)
	}
	return nil
}

func (g *Guarded) mapErr(err error) error {
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, g.breaker.Name(), err)
	}
	return err
}
