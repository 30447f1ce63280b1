package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/transit-ops/internal/store"
	"github.com/richxcame/transit-ops/pkg/async"
	"github.com/richxcame/transit-ops/pkg/common"
	apperrors "github.com/richxcame/transit-ops/pkg/errors"
	"github.com/richxcame/transit-ops/pkg/eventbus"
	"github.com/richxcame/transit-ops/pkg/logger"
	"github.com/richxcame/transit-ops/pkg/models"
	"github.com/richxcame/transit-ops/pkg/tracing"
	"github.com/richxcame/transit-ops/pkg/validation"
	"go.uber.org/zap"
)

const (
	tracerName     = "maintenance"
	eventSource    = "transitops.maintenance"
	publishTimeout = 5 * time.Second
)

// Service owns the maintenance ticket write path. Every mutation runs on
// the Writer goroutine as a read-check-write against the ticket store.
type Service struct {
	writer    *Writer
	publisher eventbus.Publisher
	now       func() time.Time
	newID     func(now time.Time) string
}

// Option configures a Service
type Option func(*Service)

// WithNow overrides the clock used for timestamps and ids
func WithNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides ticket id generation
func WithIDGenerator(newID func(now time.Time) string) Option {
	return func(s *Service) { s.newID = newID }
}

// WithPublisher sets where ticket change events are sent
func WithPublisher(p eventbus.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// NewService creates a maintenance service on top of writer
func NewService(writer *Writer, opts ...Option) *Service {
	s := &Service{
		writer:    writer,
		publisher: eventbus.NopPublisher{},
		now:       func() time.Time { return time.Now().UTC() },
		newID:     NewTicketID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewTicketID returns mnt-<unix millis>-<random suffix>
func NewTicketID(now time.Time) string {
	return fmt.Sprintf("mnt-%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}

// Get returns a single ticket
func (s *Service) Get(ctx context.Context, id string) (*models.MaintenanceTicket, error) {
	ticket, err := s.writer.tickets.GetTicket(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, id)
	}
	return ticket, nil
}

// Create schedules a new ticket, filling in defaults for status,
// priority and type.
func (s *Service) Create(ctx context.Context, req CreateTicketRequest) (*models.MaintenanceTicket, error) {
	if err := validation.ValidateStruct(req); err != nil {
		recordMutation("create", time.Now(), err)
		return nil, err
	}

	return s.mutate(ctx, "create", eventbus.SubjectTicketCreated, req.VehicleID, "",
		func(ctx context.Context, tickets store.TicketStore) (*models.MaintenanceTicket, error) {
			now := s.clock()
			ticket := models.MaintenanceTicket{
				ID:            s.newID(now),
				VehicleID:     req.VehicleID,
				Type:          req.Type,
				Description:   req.Description,
				Status:        req.Status,
				Priority:      req.Priority,
				ScheduledDate: req.ScheduledDate,
				CompletedDate: req.CompletedDate,
				EstimatedCost: req.EstimatedCost,
				ActualCost:    req.ActualCost,
				Notes:         req.Notes,
				Version:       1,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if ticket.Type == "" {
				ticket.Type = models.DefaultTicketType
			}
			if ticket.Status == "" {
				ticket.Status = models.DefaultTicketStatus
			}
			if ticket.Priority == "" {
				ticket.Priority = models.DefaultTicketPriority
			}
			if ticket.Status == models.TicketStatusCompleted && ticket.CompletedDate == nil {
				today := now.Format(validation.ISODateLayout)
				ticket.CompletedDate = &today
			}

			if err := tickets.InsertTicket(ctx, ticket); err != nil {
				return nil, mapStoreError(err, ticket.ID)
			}
			return &ticket, nil
		})
}

// Update merges req over the stored ticket
func (s *Service) Update(ctx context.Context, id string, req UpdateTicketRequest) (*models.MaintenanceTicket, error) {
	if err := validation.ValidateStruct(req); err != nil {
		recordMutation("update", time.Now(), err)
		return nil, err
	}

	return s.mutate(ctx, "update", eventbus.SubjectTicketUpdated, "", id,
		func(ctx context.Context, tickets store.TicketStore) (*models.MaintenanceTicket, error) {
			current, err := tickets.GetTicket(ctx, id)
			if err != nil {
				return nil, mapStoreError(err, id)
			}

			updated, err := ApplyUpdate(*current, req, s.clock())
			if err != nil {
				return nil, err
			}

			if err := tickets.UpdateTicket(ctx, updated, current.Version); err != nil {
				return nil, mapStoreError(err, id)
			}
			return &updated, nil
		})
}

// Delete removes a ticket and returns it
func (s *Service) Delete(ctx context.Context, id string) (*models.MaintenanceTicket, error) {
	return s.mutate(ctx, "delete", eventbus.SubjectTicketDeleted, "", id,
		func(ctx context.Context, tickets store.TicketStore) (*models.MaintenanceTicket, error) {
			current, err := tickets.GetTicket(ctx, id)
			if err != nil {
				return nil, mapStoreError(err, id)
			}
			if err := tickets.DeleteTicket(ctx, id); err != nil {
				return nil, mapStoreError(err, id)
			}
			return current, nil
		})
}

// ApplyUpdate returns current with req merged over it. It rejects stale
// versions, vehicle reassignment and backward status moves.
func ApplyUpdate(current models.MaintenanceTicket, req UpdateTicketRequest, now time.Time) (models.MaintenanceTicket, error) {
	if req.Version != nil && *req.Version != current.Version {
		return current, common.NewConflictError(fmt.Sprintf(
			"maintenance ticket %s is at version %d, not %d", current.ID, current.Version, *req.Version))
	}
	if req.VehicleID != nil && *req.VehicleID != current.VehicleID {
		return current, common.NewValidationError("vehicleId cannot be changed; create a new ticket for the other vehicle")
	}

	next := current
	if req.Status != nil {
		if lifecycleRank[*req.Status] < lifecycleRank[current.Status] {
			return current, common.NewValidationError(fmt.Sprintf(
				"status cannot move from %s back to %s", current.Status, *req.Status))
		}
		next.Status = *req.Status
	}
	if req.Type != nil {
		next.Type = *req.Type
	}
	if req.Description != nil {
		next.Description = *req.Description
	}
	if req.Priority != nil {
		next.Priority = *req.Priority
	}
	if req.ScheduledDate != nil {
		next.ScheduledDate = req.ScheduledDate
	}
	if req.CompletedDate != nil {
		next.CompletedDate = req.CompletedDate
	}
	if req.EstimatedCost != nil {
		next.EstimatedCost = *req.EstimatedCost
	}
	if req.ActualCost != nil {
		next.ActualCost = req.ActualCost
	}
	if req.Notes != nil {
		next.Notes = *req.Notes
	}

	if next.Status == models.TicketStatusCompleted && next.CompletedDate == nil {
		today := now.Format(validation.ISODateLayout)
		next.CompletedDate = &today
	}

	// updatedAt must strictly increase even when the clock does not
	next.UpdatedAt = now
	if !next.UpdatedAt.After(current.UpdatedAt) {
		next.UpdatedAt = current.UpdatedAt.Add(time.Millisecond)
	}
	next.Version = current.Version + 1
	return next, nil
}

func (s *Service) mutate(ctx context.Context, operation, subject, vehicleID, ticketID string, m Mutation) (*models.MaintenanceTicket, error) {
	start := time.Now()
	var ticket *models.MaintenanceTicket

	err := tracing.TraceBusinessLogic(ctx, tracerName, tracing.MaintenanceSpanPrefix+operation,
		tracing.TicketAttributes(ticketID, vehicleID, ""),
		func(ctx context.Context) error {
			var err error
			ticket, err = s.writer.Submit(ctx, m)
			if err != nil && !isAppError(err) {
				err = common.NewStoreUnavailableError(err)
			}
			return err
		})
	recordMutation(operation, start, err)
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "maintenance ticket "+operation+"d",
		zap.String("ticket_id", ticket.ID),
		zap.String("vehicle_id", ticket.VehicleID),
		zap.String("status", string(ticket.Status)),
		zap.Int("version", ticket.Version),
	)
	s.publish(ctx, subject, *ticket)
	return ticket, nil
}

func (s *Service) publish(ctx context.Context, subject string, ticket models.MaintenanceTicket) {
	event, err := eventbus.NewEvent(subject, eventSource, eventbus.TicketEventData{
		TicketID:  ticket.ID,
		VehicleID: ticket.VehicleID,
		Status:    string(ticket.Status),
		Priority:  string(ticket.Priority),
		Version:   ticket.Version,
		Actor:     async.ActorFromContext(ctx),
		ChangedAt: ticket.UpdatedAt,
	})
	if err != nil {
		ticketEventsFailed.Inc()
		logger.WarnContext(ctx, "failed to build ticket event", zap.Error(err))
		return
	}

	async.GoWithTimeout(ctx, "publish "+subject, publishTimeout, func(ctx context.Context) error {
		if err := s.publisher.Publish(ctx, subject, event); err != nil {
			ticketEventsFailed.Inc()
			apperrors.CaptureTicketEventFailure(ctx, err, subject, ticket.ID)
			return err
		}
		return nil
	})
}

func (s *Service) clock() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// mapStoreError converts store sentinels into client-facing errors
func mapStoreError(err error, id string) error {
	switch {
	case isAppError(err):
		return err
	case errors.Is(err, store.ErrNotFound):
		return common.NewNotFoundError(fmt.Sprintf("maintenance ticket %s not found", id), err)
	case errors.Is(err, store.ErrVersionConflict):
		return common.NewConflictError(fmt.Sprintf("maintenance ticket %s was modified concurrently", id))
	case errors.Is(err, store.ErrAlreadyExists):
		return common.NewConflictError(fmt.Sprintf("maintenance ticket %s already exists", id))
	}
	return common.NewStoreUnavailableError(err)
}

func isAppError(err error) bool {
	var appErr *common.AppError
	return errors.As(err, &appErr)
}

func isStatus(err error, code int) bool {
	var appErr *common.AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func recordMutation(operation string, start time.Time, err error) {
	ticketMutationsTotal.WithLabelValues(operation, outcome(err)).Inc()
	ticketMutationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
