package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/richxcame/transit-ops/pkg/models"
	"github.com/richxcame/transit-ops/pkg/tracing"
)

const (
	tracerName = "store"
	dateFormat = `'YYYY-MM-DD'`
)

// Postgres reads snapshots and writes tickets through a pgx pool
type Postgres struct {
	db *pgxpool.Pool
}

// NewPostgres creates a PostgreSQL-backed store
func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

// Name implements Store
func (p *Postgres) Name() string { return "postgres" }

// Ping implements Store
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

// Snapshot reads every collection inside one read-only repeatable-read
// transaction so all collections reflect the same instant.
func (p *Postgres) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}

	err := tracing.TraceStoreCall(ctx, tracerName, "postgresql", "snapshot", func(ctx context.Context) error {
		tx, err := p.db.BeginTx(ctx, pgx.TxOptions{
			IsoLevel:   pgx.RepeatableRead,
			AccessMode: pgx.ReadOnly,
		})
		if err != nil {
			return fmt.Errorf("begin snapshot tx: %w", err)
		}
		defer tx.Rollback(ctx)

		if snap.Riders, err = queryRows(ctx, tx, `
			SELECT id, name, email, role, status, created_at, updated_at
			FROM riders ORDER BY id`, scanRider); err != nil {
			return err
		}
		if snap.Vehicles, err = queryRows(ctx, tx, `
			SELECT id, number, capacity, status,
				to_char(last_maintenance, `+dateFormat+`),
				to_char(next_maintenance, `+dateFormat+`)
			FROM vehicles ORDER BY id`, scanVehicle); err != nil {
			return err
		}
		if snap.Routes, err = queryRows(ctx, tx, `
			SELECT id, name, start_point, end_point, status
			FROM routes ORDER BY id`, scanRoute); err != nil {
			return err
		}
		if snap.Runs, err = queryRows(ctx, tx, `
			SELECT id, route_id, bus_id, driver_id, supervisor_id,
				to_char(date, `+dateFormat+`), status, passenger_count,
				scheduled_start_time, actual_start_time, operational_cost::float8
			FROM runs ORDER BY date, id`, scanRun); err != nil {
			return err
		}
		if snap.Payments, err = queryRows(ctx, tx, `
			SELECT id, run_id, rider_id, amount::float8, status, method,
				to_char(date, `+dateFormat+`)
			FROM payments ORDER BY date, id`, scanPayment); err != nil {
			return err
		}
		if snap.Reservations, err = queryRows(ctx, tx, `
			SELECT id, run_id, rider_id, to_char(date, `+dateFormat+`), status
			FROM reservations ORDER BY date, id`, scanReservation); err != nil {
			return err
		}
		if snap.Attendance, err = queryRows(ctx, tx, `
			SELECT id, run_id, rider_id, status,
				to_char(timestamp AT TIME ZONE 'UTC', 'YYYY-MM-DD"T"HH24:MI:SS"Z"')
			FROM attendance ORDER BY timestamp, id`, scanAttendance); err != nil {
			return err
		}
		if snap.Tickets, err = queryRows(ctx, tx, ticketSelect+` ORDER BY created_at, id`, scanTicket); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	snap.FetchedAt = time.Now().UTC()
	return snap, nil
}

const ticketSelect = `
	SELECT id, vehicle_id, type, description, status, priority,
		to_char(scheduled_date, 'YYYY-MM-DD'), to_char(completed_date, 'YYYY-MM-DD'),
		estimated_cost::float8, actual_cost::float8, notes, version,
		created_at, updated_at
	FROM maintenance_tickets`

// GetTicket implements TicketStore
func (p *Postgres) GetTicket(ctx context.Context, id string) (*models.MaintenanceTicket, error) {
	var t models.MaintenanceTicket
	err := tracing.TraceStoreCall(ctx, tracerName, "postgresql", "get_ticket", func(ctx context.Context) error {
		var err error
		t, err = scanTicket(p.db.QueryRow(ctx, ticketSelect+` WHERE id = $1`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// InsertTicket implements TicketStore
func (p *Postgres) InsertTicket(ctx context.Context, t models.MaintenanceTicket) error {
	return tracing.TraceStoreCall(ctx, tracerName, "postgresql", "insert_ticket", func(ctx context.Context) error {
		tag, err := p.db.Exec(ctx, `
			INSERT INTO maintenance_tickets (
				id, vehicle_id, type, description, status, priority,
				scheduled_date, completed_date, estimated_cost, actual_cost,
				notes, version, created_at, updated_at
			) VALUES (
				$1, $2, $3, $4, $5, $6,
				$7::text::date, $8::text::date, $9, $10,
				$11, $12, $13, $14
			)
			ON CONFLICT (id) DO NOTHING`,
			t.ID, t.VehicleID, t.Type, t.Description, string(t.Status), string(t.Priority),
			t.ScheduledDate, t.CompletedDate, t.EstimatedCost, t.ActualCost,
			t.Notes, t.Version, t.CreatedAt, t.UpdatedAt,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrAlreadyExists
		}
		return nil
	})
}

// UpdateTicket implements TicketStore. The version predicate makes the
// write fail instead of overwriting a concurrent change.
func (p *Postgres) UpdateTicket(ctx context.Context, t models.MaintenanceTicket, expectedVersion int) error {
	return tracing.TraceStoreCall(ctx, tracerName, "postgresql", "update_ticket", func(ctx context.Context) error {
		tag, err := p.db.Exec(ctx, `
			UPDATE maintenance_tickets SET
				type = $3, description = $4, status = $5, priority = $6,
				scheduled_date = $7::text::date, completed_date = $8::text::date,
				estimated_cost = $9, actual_cost = $10, notes = $11,
				version = $12, updated_at = $13
			WHERE id = $1 AND version = $2`,
			t.ID, expectedVersion, t.Type, t.Description, string(t.Status), string(t.Priority),
			t.ScheduledDate, t.CompletedDate, t.EstimatedCost, t.ActualCost, t.Notes,
			t.Version, t.UpdatedAt,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return p.missOrConflict(ctx, t.ID)
		}
		return nil
	})
}

// DeleteTicket implements TicketStore
func (p *Postgres) DeleteTicket(ctx context.Context, id string) error {
	return tracing.TraceStoreCall(ctx, tracerName, "postgresql", "delete_ticket", func(ctx context.Context) error {
		tag, err := p.db.Exec(ctx, `DELETE FROM maintenance_tickets WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (p *Postgres) missOrConflict(ctx context.Context, id string) error {
	var exists bool
	if err := p.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM maintenance_tickets WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrVersionConflict
	}
	return ErrNotFound
}

func queryRows[T any](ctx context.Context, tx pgx.Tx, sql string, scan func(pgx.Row) (T, error)) ([]T, error) {
	rows, err := tx.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (T, error) {
		return scan(row)
	})
}

func scanRider(row pgx.Row) (models.Rider, error) {
	var r models.Rider
	var role string
	err := row.Scan(&r.ID, &r.Name, &r.Email, &role, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	r.Role = models.UserRole(role)
	return r, err
}

func scanVehicle(row pgx.Row) (models.Vehicle, error) {
	var v models.Vehicle
	var status string
	err := row.Scan(&v.ID, &v.Number, &v.Capacity, &status, &v.LastMaintenance, &v.NextMaintenance)
	v.Status = models.VehicleStatus(status)
	return v, err
}

func scanRoute(row pgx.Row) (models.Route, error) {
	var r models.Route
	var status string
	err := row.Scan(&r.ID, &r.Name, &r.StartPoint, &r.EndPoint, &status)
	r.Status = models.RouteStatus(status)
	return r, err
}

func scanRun(row pgx.Row) (models.Run, error) {
	var r models.Run
	var status string
	err := row.Scan(
		&r.ID, &r.RouteID, &r.BusID, &r.DriverID, &r.SupervisorID,
		&r.Date, &status, &r.PassengerCount,
		&r.ScheduledStartTime, &r.ActualStartTime, &r.OperationalCost,
	)
	r.Status = models.RunStatus(status)
	return r, err
}

func scanPayment(row pgx.Row) (models.Payment, error) {
	var p models.Payment
	var status string
	err := row.Scan(&p.ID, &p.RunID, &p.RiderID, &p.Amount, &status, &p.Method, &p.Date)
	p.Status = models.PaymentStatus(status)
	return p, err
}

func scanReservation(row pgx.Row) (models.Reservation, error) {
	var r models.Reservation
	var status string
	err := row.Scan(&r.ID, &r.RunID, &r.RiderID, &r.Date, &status)
	r.Status = models.ReservationStatus(status)
	return r, err
}

func scanAttendance(row pgx.Row) (models.AttendanceRecord, error) {
	var a models.AttendanceRecord
	var status string
	err := row.Scan(&a.ID, &a.RunID, &a.RiderID, &status, &a.Timestamp)
	a.Status = models.AttendanceStatus(status)
	return a, err
}

func scanTicket(row pgx.Row) (models.MaintenanceTicket, error) {
	var t models.MaintenanceTicket
	var status, priority string
	err := row.Scan(
		&t.ID, &t.VehicleID, &t.Type, &t.Description, &status, &priority,
		&t.ScheduledDate, &t.CompletedDate,
		&t.EstimatedCost, &t.ActualCost, &t.Notes, &t.Version,
		&t.CreatedAt, &t.UpdatedAt,
	)
	t.Status = models.TicketStatus(status)
	t.Priority = models.TicketPriority(priority)
	return t, err
}
