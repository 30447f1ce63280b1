package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/richxcame/transit-ops/pkg/models"
)

// Collection file names inside the data directory
const (
	FileRiders       = "riders.json"
	FileVehicles     = "vehicles.json"
	FileRoutes       = "routes.json"
	FileRuns         = "runs.json"
	FilePayments     = "payments.json"
	FileReservations = "reservations.json"
	FileAttendance   = "attendance.json"
	FileTickets      = "maintenance.json"
)

// File stores each collection as a JSON array in its own file.
// A missing file is an empty collection. Ticket writes replace
// maintenance.json atomically.
type File struct {
	dir string
	mu  sync.RWMutex
}

// NewFile creates a file-backed store rooted at dir, creating it if needed
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &File{dir: dir}, nil
}

// Name implements Store
func (f *File) Name() string { return "file" }

// Ping implements Store
func (f *File) Ping(context.Context) error {
	info, err := os.Stat(f.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", f.dir)
	}
	return nil
}

// Snapshot implements Reader
func (f *File) Snapshot(ctx context.Context) (*Snapshot, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	snap := &Snapshot{}
	loads := []struct {
		name string
		dst  interface{}
	}{
		{FileRiders, &snap.Riders},
		{FileVehicles, &snap.Vehicles},
		{FileRoutes, &snap.Routes},
		{FileRuns, &snap.Runs},
		{FilePayments, &snap.Payments},
		{FileReservations, &snap.Reservations},
		{FileAttendance, &snap.Attendance},
		{FileTickets, &snap.Tickets},
	}

	for _, l := range loads {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := f.readJSON(l.name, l.dst); err != nil {
			return nil, err
		}
	}

	snap.FetchedAt = time.Now().UTC()
	return snap, nil
}

// GetTicket implements TicketStore
func (f *File) GetTicket(ctx context.Context, id string) (*models.MaintenanceTicket, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	tickets, err := f.readTickets()
	if err != nil {
		return nil, err
	}
	i := findTicket(tickets, id)
	if i < 0 {
		return nil, ErrNotFound
	}
	return &tickets[i], nil
}

// InsertTicket implements TicketStore
func (f *File) InsertTicket(ctx context.Context, ticket models.MaintenanceTicket) error {
	return f.mutateTickets(func(tickets []models.MaintenanceTicket) ([]models.MaintenanceTicket, error) {
		return insertTicket(tickets, ticket)
	})
}

// UpdateTicket implements TicketStore
func (f *File) UpdateTicket(ctx context.Context, ticket models.MaintenanceTicket, expectedVersion int) error {
	return f.mutateTickets(func(tickets []models.MaintenanceTicket) ([]models.MaintenanceTicket, error) {
		return updateTicket(tickets, ticket, expectedVersion)
	})
}

// DeleteTicket implements TicketStore
func (f *File) DeleteTicket(ctx context.Context, id string) error {
	return f.mutateTickets(func(tickets []models.MaintenanceTicket) ([]models.MaintenanceTicket, error) {
		return deleteTicket(tickets, id)
	})
}

func (f *File) mutateTickets(fn func([]models.MaintenanceTicket) ([]models.MaintenanceTicket, error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tickets, err := f.readTickets()
	if err != nil {
		return err
	}
	updated, err := fn(tickets)
	if err != nil {
		return err
	}
	return f.writeJSON(FileTickets, updated)
}

func (f *File) readTickets() ([]models.MaintenanceTicket, error) {
	var tickets []models.MaintenanceTicket
	if err := f.readJSON(FileTickets, &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

func (f *File) readJSON(name string, dst interface{}) error {
	data, err := os.ReadFile(filepath.Join(f.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: read %s: %v", ErrUnavailable, name, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrUnavailable, name, err)
	}
	return nil
}

// writeJSON writes to a temp file in the same directory then renames it
// over the target so readers never observe a partial file.
func (f *File) writeJSON(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(f.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrUnavailable, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write %s: %v", ErrUnavailable, name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close %s: %v", ErrUnavailable, name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(f.dir, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: replace %s: %v", ErrUnavailable, name, err)
	}
	return nil
}
