package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/transit-ops/internal/store"
	"github.com/richxcame/transit-ops/pkg/eventbus"
	"github.com/richxcame/transit-ops/pkg/models"
)

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func floatPtr(f float64) *float64 { return &f }

type publishedEvent struct {
	subject string
	event   *eventbus.Event
}

// recordingPublisher hands every published event to a buffered channel
type recordingPublisher struct {
	events chan publishedEvent
	err    error
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{events: make(chan publishedEvent, 16)}
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, event *eventbus.Event) error {
	p.events <- publishedEvent{subject: subject, event: event}
	return p.err
}

func (p *recordingPublisher) next(t *testing.T) publishedEvent {
	t.Helper()
	select {
	case e := <-p.events:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("no event published")
		return publishedEvent{}
	}
}

// newTestService wires a service over an in-memory store with a fixed clock
func newTestService(t *testing.T, tickets ...models.MaintenanceTicket) (*Service, *store.Memory, *recordingPublisher) {
	t.Helper()
	mem := store.NewMemory(store.Snapshot{Tickets: tickets})
	writer := NewWriter(mem, 8)
	t.Cleanup(writer.Close)

	pub := newRecordingPublisher()
	svc := NewService(writer,
		WithPublisher(pub),
		WithNow(func() time.Time { return fixedNow }),
	)
	return svc, mem, pub
}

func storedTicket(id, vehicleID string, status models.TicketStatus) models.MaintenanceTicket {
	created := fixedNow.Add(-48 * time.Hour)
	return models.MaintenanceTicket{
		ID:            id,
		VehicleID:     vehicleID,
		Type:          "preventive",
		Status:        status,
		Priority:      models.PriorityMedium,
		EstimatedCost: 250,
		Version:       1,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
}
