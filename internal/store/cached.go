package store

import (
	"context"
	"errors"
	"time"

	"github.com/richxcame/transit-ops/pkg/cache"
	"github.com/richxcame/transit-ops/pkg/logger"
	"github.com/richxcame/transit-ops/pkg/models"
	"go.uber.org/zap"
)

// Cached serves snapshots from Redis for a short TTL and drops the cached
// copy after every ticket write. Each write also bumps a generation counter;
// a snapshot loaded before the bump is never stored. Cache failures never
// fail a request.
type Cached struct {
	Store
	cache  *cache.Manager
	ttl    time.Duration
	key    string
	genKey string
}

// NewCached wraps inner with a snapshot cache
func NewCached(inner Store, manager *cache.Manager, ttl time.Duration) *Cached {
	return &Cached{
		Store:  inner,
		cache:  manager,
		ttl:    ttl,
		key:    cache.Keys.Snapshot(inner.Name()),
		genKey: cache.Keys.SnapshotGeneration(inner.Name()),
	}
}

// Snapshot implements Reader
func (c *Cached) Snapshot(ctx context.Context) (*Snapshot, error) {
	var snap Snapshot
	err := c.cache.Get(ctx, c.key, &snap)
	if err == nil {
		return &snap, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		logger.WarnContext(ctx, "snapshot cache read failed", zap.String("key", c.key), zap.Error(err))
	}

	// read before the fetch so a write that lands mid-fetch is detected
	gen, genErr := c.cache.Generation(ctx, c.genKey)

	fresh, err := c.Store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	if genErr != nil {
		logger.WarnContext(ctx, "snapshot cache generation unreadable, not caching", zap.String("key", c.genKey), zap.Error(genErr))
		return fresh, nil
	}
	stored, err := c.cache.SetIfGeneration(ctx, c.key, c.genKey, gen, fresh, c.ttl)
	switch {
	case err != nil:
		logger.WarnContext(ctx, "snapshot cache write failed", zap.String("key", c.key), zap.Error(err))
	case !stored:
		logger.DebugContext(ctx, "snapshot superseded by a ticket write, not caching", zap.Int64("generation", gen))
	}
	return fresh, nil
}

// InsertTicket implements TicketStore
func (c *Cached) InsertTicket(ctx context.Context, ticket models.MaintenanceTicket) error {
	if err := c.Store.InsertTicket(ctx, ticket); err != nil {
		return err
	}
	c.Invalidate(ctx)
	return nil
}

// UpdateTicket implements TicketStore
func (c *Cached) UpdateTicket(ctx context.Context, ticket models.MaintenanceTicket, expectedVersion int) error {
	if err := c.Store.UpdateTicket(ctx, ticket, expectedVersion); err != nil {
		return err
	}
	c.Invalidate(ctx)
	return nil
}

// DeleteTicket implements TicketStore
func (c *Cached) DeleteTicket(ctx context.Context, id string) error {
	if err := c.Store.DeleteTicket(ctx, id); err != nil {
		return err
	}
	c.Invalidate(ctx)
	return nil
}

// Invalidate bumps the generation and drops the cached snapshot. Other
// replicas call it when they observe a ticket change event.
func (c *Cached) Invalidate(ctx context.Context) {
	if err := c.cache.Bump(ctx, c.genKey, c.key); err != nil {
		logger.WarnContext(ctx, "snapshot cache invalidation failed", zap.String("key", c.key), zap.Error(err))
	}
}
