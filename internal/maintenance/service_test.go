package maintenance

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/richxcame/transit-ops/internal/store"
	"github.com/richxcame/transit-ops/pkg/async"
	"github.com/richxcame/transit-ops/pkg/common"
	"github.com/richxcame/transit-ops/pkg/eventbus"
	"github.com/richxcame/transit-ops/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireAppError(t *testing.T, err error, code int) *common.AppError {
	t.Helper()
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

func TestCreate_AppliesDefaults(t *testing.T) {
	svc, mem, pub := newTestService(t)
	ctx := async.WithActor(context.Background(), "fleet-1")

	ticket, err := svc.Create(ctx, CreateTicketRequest{VehicleID: "bus-1", EstimatedCost: 120})
	require.NoError(t, err)

	assert.Regexp(t, `^mnt-\d+-[0-9a-f]{8}$`, ticket.ID)
	assert.Equal(t, models.TicketStatusScheduled, ticket.Status)
	assert.Equal(t, models.PriorityMedium, ticket.Priority)
	assert.Equal(t, "preventive", ticket.Type)
	assert.Equal(t, 1, ticket.Version)
	assert.True(t, fixedNow.Equal(ticket.CreatedAt))
	assert.True(t, ticket.CreatedAt.Equal(ticket.UpdatedAt))
	assert.Nil(t, ticket.CompletedDate)

	stored, err := mem.GetTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, *ticket, *stored)

	published := pub.next(t)
	assert.Equal(t, eventbus.SubjectTicketCreated, published.subject)
	var data eventbus.TicketEventData
	require.NoError(t, published.event.Decode(&data))
	assert.Equal(t, ticket.ID, data.TicketID)
	assert.Equal(t, "bus-1", data.VehicleID)
	assert.Equal(t, "scheduled", data.Status)
	assert.Equal(t, "fleet-1", data.Actor)
	assert.Equal(t, 1, data.Version)
}

func TestCreate_CompletedStampsCompletedDate(t *testing.T) {
	svc, _, _ := newTestService(t)

	ticket, err := svc.Create(context.Background(), CreateTicketRequest{
		VehicleID: "bus-1",
		Status:    models.TicketStatusCompleted,
	})
	require.NoError(t, err)
	require.NotNil(t, ticket.CompletedDate)
	assert.Equal(t, "2024-03-15", *ticket.CompletedDate)
}

func TestCreate_Validation(t *testing.T) {
	svc, mem, _ := newTestService(t)

	tests := []struct {
		name    string
		req     CreateTicketRequest
		message string
	}{
		{"missing vehicle", CreateTicketRequest{}, "vehicleId is required"},
		{"bad status", CreateTicketRequest{VehicleID: "bus-1", Status: "done"}, "status must be one of open, scheduled, in_progress, completed"},
		{"bad priority", CreateTicketRequest{VehicleID: "bus-1", Priority: "urgent"}, "priority must be one of low, medium, high, critical"},
		{"bad date", CreateTicketRequest{VehicleID: "bus-1", ScheduledDate: strPtr("15/03/2024")}, "scheduledDate must be a YYYY-MM-DD date"},
		{"negative cost", CreateTicketRequest{VehicleID: "bus-1", EstimatedCost: -1}, "estimatedCost must be at least 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.req)
			appErr := requireAppError(t, err, http.StatusBadRequest)
			assert.Equal(t, tt.message, appErr.Message)
		})
	}

	snap, err := mem.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Tickets)
}

func TestUpdate_CompleteTicket(t *testing.T) {
	svc, _, pub := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateTicketRequest{VehicleID: "bus-1"})
	require.NoError(t, err)
	pub.next(t)

	status := models.TicketStatusCompleted
	updated, err := svc.Update(ctx, created.ID, UpdateTicketRequest{
		Status:     &status,
		ActualCost: floatPtr(310.5),
	})
	require.NoError(t, err)

	assert.Equal(t, models.TicketStatusCompleted, updated.Status)
	assert.True(t, updated.UpdatedAt.After(created.CreatedAt))
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
	assert.Equal(t, 2, updated.Version)
	require.NotNil(t, updated.CompletedDate)
	assert.Equal(t, "2024-03-15", *updated.CompletedDate)
	require.NotNil(t, updated.ActualCost)
	assert.Equal(t, 310.5, *updated.ActualCost)

	published := pub.next(t)
	assert.Equal(t, eventbus.SubjectTicketUpdated, published.subject)
}

func TestUpdate_Errors(t *testing.T) {
	inProgress := storedTicket("mnt-1", "bus-1", models.TicketStatusInProgress)
	svc, mem, _ := newTestService(t, inProgress)
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		_, err := svc.Update(ctx, "missing", UpdateTicketRequest{Notes: strPtr("x")})
		appErr := requireAppError(t, err, http.StatusNotFound)
		assert.Equal(t, "maintenance ticket missing not found", appErr.Message)
	})

	t.Run("stale version", func(t *testing.T) {
		_, err := svc.Update(ctx, "mnt-1", UpdateTicketRequest{Notes: strPtr("x"), Version: intPtr(3)})
		requireAppError(t, err, http.StatusConflict)
	})

	t.Run("vehicle change", func(t *testing.T) {
		_, err := svc.Update(ctx, "mnt-1", UpdateTicketRequest{VehicleID: strPtr("bus-2")})
		requireAppError(t, err, http.StatusBadRequest)
	})

	t.Run("backward status", func(t *testing.T) {
		back := models.TicketStatusOpen
		_, err := svc.Update(ctx, "mnt-1", UpdateTicketRequest{Status: &back})
		appErr := requireAppError(t, err, http.StatusBadRequest)
		assert.Equal(t, "status cannot move from in_progress back to open", appErr.Message)
	})

	t.Run("invalid field", func(t *testing.T) {
		bad := models.TicketPriority("whenever")
		_, err := svc.Update(ctx, "mnt-1", UpdateTicketRequest{Priority: &bad})
		requireAppError(t, err, http.StatusBadRequest)
	})

	stored, err := mem.GetTicket(ctx, "mnt-1")
	require.NoError(t, err)
	assert.Equal(t, inProgress, *stored, "rejected updates leave the ticket untouched")
}

func TestUpdate_SameVehicleAndMatchingVersion(t *testing.T) {
	svc, _, _ := newTestService(t, storedTicket("mnt-1", "bus-1", models.TicketStatusScheduled))

	updated, err := svc.Update(context.Background(), "mnt-1", UpdateTicketRequest{
		VehicleID: strPtr("bus-1"),
		Version:   intPtr(1),
		Priority:  func() *models.TicketPriority { p := models.PriorityHigh; return &p }(),
	})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityHigh, updated.Priority)
	assert.Equal(t, 2, updated.Version)
}

func TestDelete(t *testing.T) {
	svc, _, pub := newTestService(t, storedTicket("mnt-1", "bus-1", models.TicketStatusOpen))
	ctx := context.Background()

	removed, err := svc.Delete(ctx, "mnt-1")
	require.NoError(t, err)
	assert.Equal(t, "mnt-1", removed.ID)
	assert.Equal(t, eventbus.SubjectTicketDeleted, pub.next(t).subject)

	_, err = svc.Get(ctx, "mnt-1")
	requireAppError(t, err, http.StatusNotFound)

	_, err = svc.Delete(ctx, "mnt-1")
	requireAppError(t, err, http.StatusNotFound)
}

func TestApplyUpdate_MonotonicUpdatedAt(t *testing.T) {
	current := storedTicket("mnt-1", "bus-1", models.TicketStatusScheduled)
	current.UpdatedAt = fixedNow.Add(time.Hour)

	next, err := ApplyUpdate(current, UpdateTicketRequest{Notes: strPtr("checked")}, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, current.UpdatedAt.Add(time.Millisecond), next.UpdatedAt)
	assert.Equal(t, "checked", next.Notes)
	assert.Equal(t, "", current.Notes, "input is not modified")
}

func TestApplyUpdate_ForwardSkipAllowed(t *testing.T) {
	current := storedTicket("mnt-1", "bus-1", models.TicketStatusOpen)
	completed := models.TicketStatusCompleted

	next, err := ApplyUpdate(current, UpdateTicketRequest{
		Status:        &completed,
		CompletedDate: strPtr("2024-03-01"),
	}, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusCompleted, next.Status)
	assert.Equal(t, "2024-03-01", *next.CompletedDate, "explicit completion date wins")
}

type failingTickets struct {
	store.TicketStore
}

func (failingTickets) GetTicket(context.Context, string) (*models.MaintenanceTicket, error) {
	return nil, errors.New("connection refused")
}

func (failingTickets) InsertTicket(context.Context, models.MaintenanceTicket) error {
	return errors.New("connection refused")
}

func TestStoreFailure_MapsToUnavailable(t *testing.T) {
	writer := NewWriter(failingTickets{}, 1)
	t.Cleanup(writer.Close)
	svc := NewService(writer, WithNow(func() time.Time { return fixedNow }))
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateTicketRequest{VehicleID: "bus-1"})
	appErr := requireAppError(t, err, http.StatusInternalServerError)
	assert.Equal(t, "record store unavailable", appErr.Message)

	_, err = svc.Update(ctx, "mnt-1", UpdateTicketRequest{Notes: strPtr("x")})
	requireAppError(t, err, http.StatusInternalServerError)

	_, err = svc.Get(ctx, "mnt-1")
	requireAppError(t, err, http.StatusInternalServerError)
}

func TestPublishFailure_DoesNotFailWrite(t *testing.T) {
	svc, mem, pub := newTestService(t)
	pub.err = errors.New("nats down")

	ticket, err := svc.Create(context.Background(), CreateTicketRequest{VehicleID: "bus-1"})
	require.NoError(t, err)
	pub.next(t)

	_, err = mem.GetTicket(context.Background(), ticket.ID)
	assert.NoError(t, err)
}

func TestCreate_DuplicateIDConflicts(t *testing.T) {
	svc, _, _ := newTestService(t, storedTicket("mnt-fixed", "bus-1", models.TicketStatusOpen))
	svc.newID = func(time.Time) string { return "mnt-fixed" }

	_, err := svc.Create(context.Background(), CreateTicketRequest{VehicleID: "bus-1"})
	requireAppError(t, err, http.StatusConflict)
}
