package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/richxcame/transit-ops/internal/maintenance"
	"github.com/richxcame/transit-ops/internal/store"
	"github.com/richxcame/transit-ops/pkg/common"
	"github.com/richxcame/transit-ops/pkg/logger"
	"github.com/richxcame/transit-ops/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const tracerName = "analytics"

// Service builds reports from record store snapshots. Apart from the
// snapshot fetch every operation is pure computation, so calls may run
// concurrently without coordination.
type Service struct {
	reader       store.Reader
	now          func() time.Time
	fetchTimeout time.Duration
}

// Option configures a Service
type Option func(*Service)

// WithNow overrides the clock used for trailing windows and day counts
func WithNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithFetchTimeout bounds each snapshot fetch
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) { s.fetchTimeout = d }
}

// NewService creates a new analytics service
func NewService(reader store.Reader, opts ...Option) *Service {
	s := &Service{
		reader: reader,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateReport builds the named report variant
func (s *Service) GenerateReport(ctx context.Context, variant Variant, c Criteria) (interface{}, error) {
	var report interface{}
	err := tracing.TraceBusinessLogic(ctx, tracerName, "analytics.report",
		tracing.ReportAttributes(string(variant), c.StartDate, c.EndDate),
		func(ctx context.Context) error {
			f, now, err := s.load(ctx, c)
			if err != nil {
				return err
			}

			start := time.Now()
			report = Build(variant, f, now)
			reportDuration.WithLabelValues(string(variant)).Observe(time.Since(start).Seconds())
			return nil
		})
	recordReport(string(variant), err)
	if err != nil {
		return nil, err
	}
	return report, nil
}

// Trends buckets the filtered records by month
func (s *Service) Trends(ctx context.Context, mode TrendMode, months int, c Criteria) (*TrendsResponse, error) {
	f, now, err := s.load(ctx, c)
	if err != nil {
		return nil, err
	}
	return &TrendsResponse{Mode: mode, Trends: Trends(f, mode, now, months)}, nil
}

// Leaderboard ranks one dimension by revenue. A non-positive limit
// returns the full table.
func (s *Service) Leaderboard(ctx context.Context, dim Dimension, limit int, c Criteria) (*LeaderboardResponse, error) {
	var resp *LeaderboardResponse
	err := tracing.TraceBusinessLogic(ctx, tracerName, "analytics.leaderboard",
		[]attribute.KeyValue{tracing.ReportDimensionKey.String(string(dim))},
		func(ctx context.Context) error {
			f, _, err := s.load(ctx, c)
			if err != nil {
				return err
			}
			table := Rank(f, dim)
			if limit <= 0 {
				limit = len(table)
			}
			resp = &LeaderboardResponse{Dimension: dim, Total: len(table), Entries: Top(table, limit)}
			return nil
		})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Schedule returns the prioritized maintenance schedule for the
// vehicles matching c
func (s *Service) Schedule(ctx context.Context, c Criteria) ([]maintenance.ScheduleEntry, error) {
	f, now, err := s.load(ctx, c)
	if err != nil {
		return nil, err
	}
	return maintenance.Schedule(f.Vehicles, f.Tickets, now), nil
}

// VehicleMaintenance classifies a single vehicle
func (s *Service) VehicleMaintenance(ctx context.Context, vehicleID string) (*maintenance.ScheduleEntry, error) {
	f, now, err := s.load(ctx, Criteria{VehicleID: vehicleID})
	if err != nil {
		return nil, err
	}
	if len(f.Vehicles) == 0 {
		return nil, common.NewNotFoundError(fmt.Sprintf("vehicle %s not found", vehicleID), nil)
	}
	entry := maintenance.Entry(f.Vehicles[0], f.Tickets, now)
	return &entry, nil
}

// load validates c before touching the store, then fetches and filters
// one snapshot.
func (s *Service) load(ctx context.Context, c Criteria) (*Filtered, time.Time, error) {
	if err := c.Validate(); err != nil {
		return nil, time.Time{}, err
	}

	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, time.Time{}, err
	}

	f, err := Filter(snap, c)
	if err != nil {
		return nil, time.Time{}, err
	}
	return f, s.now(), nil
}

func (s *Service) snapshot(ctx context.Context) (*store.Snapshot, error) {
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}

	start := time.Now()
	snap, err := s.reader.Snapshot(ctx)
	snapshotFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		snapshotFetchErrors.Inc()
		logger.WarnContext(ctx, "snapshot fetch failed", zap.Error(err))
		return nil, common.NewStoreUnavailableError(err)
	}
	return snap, nil
}
