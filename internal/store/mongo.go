package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/richxcame/transit-ops/pkg/models"
	"github.com/richxcame/transit-ops/pkg/tracing"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names in the Mongo database
const (
	CollectionRiders       = "riders"
	CollectionVehicles     = "vehicles"
	CollectionRoutes       = "routes"
	CollectionRuns         = "runs"
	CollectionPayments     = "payments"
	CollectionReservations = "reservations"
	CollectionAttendance   = "attendance"
	CollectionTickets      = "maintenance_tickets"
)

// Mongo reads snapshots and writes tickets through the official driver
type Mongo struct {
	db *mongo.Database
}

// NewMongo creates a MongoDB-backed store
func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{db: db}
}

// Name implements Store
func (m *Mongo) Name() string { return "mongo" }

// collection returns a handle that reads with majority read concern, so
// snapshots never observe writes that could still be rolled back.
func (m *Mongo) collection(name string) *mongo.Collection {
	return m.db.Collection(name, options.Collection().SetReadConcern(readconcern.Majority()))
}

// Ping implements Store
func (m *Mongo) Ping(ctx context.Context) error {
	return m.db.Client().Ping(ctx, readpref.Primary())
}

// Snapshot implements Reader. Collections are read sequentially with
// majority read concern; the backend does not offer a cross-collection
// point-in-time read without a replica-set transaction.
func (m *Mongo) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}

	err := tracing.TraceStoreCall(ctx, tracerName, "mongodb", "snapshot", func(ctx context.Context) error {
		loads := []struct {
			collection string
			dst        interface{}
		}{
			{CollectionRiders, &snap.Riders},
			{CollectionVehicles, &snap.Vehicles},
			{CollectionRoutes, &snap.Routes},
			{CollectionRuns, &snap.Runs},
			{CollectionPayments, &snap.Payments},
			{CollectionReservations, &snap.Reservations},
			{CollectionAttendance, &snap.Attendance},
			{CollectionTickets, &snap.Tickets},
		}

		for _, l := range loads {
			if err := m.findAll(ctx, l.collection, l.dst); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	snap.FetchedAt = time.Now().UTC()
	return snap, nil
}

func (m *Mongo) findAll(ctx context.Context, collection string, dst interface{}) error {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := m.collection(collection).Find(ctx, bson.D{}, opts)
	if err != nil {
		return fmt.Errorf("find %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, dst); err != nil {
		return fmt.Errorf("decode %s: %w", collection, err)
	}
	return nil
}

// GetTicket implements TicketStore
func (m *Mongo) GetTicket(ctx context.Context, id string) (*models.MaintenanceTicket, error) {
	var ticket models.MaintenanceTicket
	err := tracing.TraceStoreCall(ctx, tracerName, "mongodb", "get_ticket", func(ctx context.Context) error {
		err := m.collection(CollectionTickets).FindOne(ctx, bson.M{"_id": id}).Decode(&ticket)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// InsertTicket implements TicketStore
func (m *Mongo) InsertTicket(ctx context.Context, ticket models.MaintenanceTicket) error {
	return tracing.TraceStoreCall(ctx, tracerName, "mongodb", "insert_ticket", func(ctx context.Context) error {
		_, err := m.collection(CollectionTickets).InsertOne(ctx, ticket)
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadyExists
		}
		return err
	})
}

// UpdateTicket implements TicketStore. The version is part of the filter
// so a concurrent change makes the replace match nothing.
func (m *Mongo) UpdateTicket(ctx context.Context, ticket models.MaintenanceTicket, expectedVersion int) error {
	return tracing.TraceStoreCall(ctx, tracerName, "mongodb", "update_ticket", func(ctx context.Context) error {
		coll := m.collection(CollectionTickets)
		result, err := coll.ReplaceOne(ctx, bson.M{"_id": ticket.ID, "version": expectedVersion}, ticket)
		if err != nil {
			return err
		}
		if result.MatchedCount > 0 {
			return nil
		}

		count, err := coll.CountDocuments(ctx, bson.M{"_id": ticket.ID})
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrVersionConflict
		}
		return ErrNotFound
	})
}

// DeleteTicket implements TicketStore
func (m *Mongo) DeleteTicket(ctx context.Context, id string) error {
	return tracing.TraceStoreCall(ctx, tracerName, "mongodb", "delete_ticket", func(ctx context.Context) error {
		result, err := m.collection(CollectionTickets).DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if result.DeletedCount == 0 {
			return ErrNotFound
		}
		return nil
	})
}
