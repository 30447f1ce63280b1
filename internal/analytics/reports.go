package analytics

import (
	"sort"
	"time"

	"github.com/richxcame/transit-ops/internal/maintenance"
	"github.com/richxcame/transit-ops/pkg/models"
)

// OnTimeGrace is how late a run may start and still count as on time
const OnTimeGrace = 5 * time.Minute

const clockLayout = "15:04"

// Build composes the report for variant over f. It never fails; every
// division is zero-guarded and dangling references degrade to blanks.
func Build(variant Variant, f *Filtered, now time.Time) interface{} {
	switch variant {
	case VariantFinancial:
		return buildFinancial(f)
	case VariantOperational:
		return buildOperational(f, now)
	case VariantPerformance:
		return buildPerformance(f)
	case VariantMaintenance:
		return buildMaintenance(f, now)
	case VariantUser:
		return buildUser(f)
	default:
		return buildOverview(f, now)
	}
}

func buildOverview(f *Filtered, now time.Time) *OverviewReport {
	return &OverviewReport{
		Type: VariantOverview,
		Summary: OverviewSummary{
			Riders:       summarizeRiders(f.Riders),
			Vehicles:     summarizeVehicles(f.Vehicles),
			Routes:       summarizeRoutes(f.Routes),
			Trips:        summarizeTrips(f.Runs),
			Financial:    summarizeRevenue(f.Payments),
			Reservations: summarizeReservations(f.Reservations),
			Attendance:   summarizeAttendance(f.Attendance),
		},
		Trends: Bucket(f, TrailingMonths(now, DefaultTrendMonths)),
	}
}

func summarizeRiders(riders []models.Rider) RiderSummary {
	return RiderSummary{
		Total:  len(riders),
		Active: CountWhere(riders, isActiveRider),
		ByRole: SortedCounts(CountBy(riders, func(r models.Rider) string { return string(r.Role) })),
	}
}

func summarizeVehicles(vehicles []models.Vehicle) VehicleSummary {
	byStatus := CountBy(vehicles, func(v models.Vehicle) string { return string(v.Status) })
	capacity := 0
	for _, v := range vehicles {
		capacity += v.Capacity
	}
	return VehicleSummary{
		Total:         len(vehicles),
		Active:        byStatus[string(models.VehicleStatusActive)],
		Maintenance:   byStatus[string(models.VehicleStatusMaintenance)],
		Retired:       byStatus[string(models.VehicleStatusRetired)],
		TotalCapacity: capacity,
	}
}

func summarizeRoutes(routes []models.Route) RouteSummary {
	active := CountWhere(routes, func(r models.Route) bool { return r.Status == models.RouteStatusActive })
	return RouteSummary{Total: len(routes), Active: active, Inactive: len(routes) - active}
}

func summarizeTrips(runs []models.Run) TripSummary {
	byStatus := CountBy(runs, func(r models.Run) string { return string(r.Status) })
	completed := byStatus[string(models.RunStatusCompleted)]
	return TripSummary{
		Total:          len(runs),
		Scheduled:      byStatus[string(models.RunStatusScheduled)],
		Active:         byStatus[string(models.RunStatusActive)],
		Completed:      completed,
		Cancelled:      byStatus[string(models.RunStatusCancelled)],
		CompletionRate: Round2(Rate(float64(completed), float64(len(runs)))),
		Passengers:     sumPassengers(runs),
	}
}

func summarizeRevenue(payments []models.Payment) RevenueSummary {
	completed := CountWhere(payments, models.Payment.IsCompleted)
	revenue := SumWhere(payments, paymentAmount, models.Payment.IsCompleted)
	return RevenueSummary{
		TotalRevenue:       Round2(revenue),
		PendingRevenue:     Round2(SumWhere(payments, paymentAmount, paymentIn(models.PaymentStatusPending))),
		Transactions:       len(payments),
		AverageTransaction: Round2(Average(revenue, completed)),
	}
}

func summarizeReservations(reservations []models.Reservation) ReservationSummary {
	byStatus := CountBy(reservations, func(r models.Reservation) string { return string(r.Status) })
	confirmed := byStatus[string(models.ReservationStatusConfirmed)]
	return ReservationSummary{
		Total:            len(reservations),
		Confirmed:        confirmed,
		Pending:          byStatus[string(models.ReservationStatusPending)],
		Cancelled:        byStatus[string(models.ReservationStatusCancelled)],
		ConfirmationRate: Round2(Rate(float64(confirmed), float64(len(reservations)))),
	}
}

func summarizeAttendance(records []models.AttendanceRecord) AttendanceSummary {
	present := CountWhere(records, isPresent)
	return AttendanceSummary{
		Total:          len(records),
		Present:        present,
		Absent:         len(records) - present,
		AttendanceRate: Round2(Rate(float64(present), float64(len(records)))),
	}
}

func buildFinancial(f *Filtered) *FinancialReport {
	payments := f.Payments
	revenue := SumWhere(payments, paymentAmount, models.Payment.IsCompleted)
	completed := CountWhere(payments, models.Payment.IsCompleted)
	tripRevenue := SumWhere(payments, paymentAmount, func(p models.Payment) bool {
		return p.IsCompleted() && p.Run() != ""
	})
	cost := SumWhere(f.Runs, func(r models.Run) float64 { return r.OperationalCost }, nil)

	return &FinancialReport{
		Type: VariantFinancial,
		Summary: FinancialSummary{
			TotalRevenue:          Round2(revenue),
			PendingRevenue:        Round2(SumWhere(payments, paymentAmount, paymentIn(models.PaymentStatusPending))),
			RefundedAmount:        Round2(SumWhere(payments, paymentAmount, paymentIn(models.PaymentStatusRefunded))),
			FailedAmount:          Round2(SumWhere(payments, paymentAmount, paymentIn(models.PaymentStatusFailed))),
			Transactions:          len(payments),
			CompletedTransactions: completed,
			AverageTransaction:    Round2(Average(revenue, completed)),
			TripRevenue:           Round2(tripRevenue),
			SubscriptionRevenue:   Round2(revenue - tripRevenue),
			OperationalCost:       Round2(cost),
			NetRevenue:            Round2(revenue - cost),
		},
		Breakdown: FinancialBreakdown{
			ByMethod: GroupAmounts(payments, func(p models.Payment) string { return p.Method }, paymentAmount, models.Payment.IsCompleted),
			ByStatus: GroupAmounts(payments, func(p models.Payment) string { return string(p.Status) }, paymentAmount, nil),
			ByRoute:  revenueByRoute(f),
		},
		Trends: Bucket(f, DataMonths(f)),
	}
}

// revenueByRoute attributes trip payments to the route of their run.
// Payments whose run is outside the filtered set are skipped.
func revenueByRoute(f *Filtered) []RouteRevenue {
	routeOfRun := make(map[string]string, len(f.Runs))
	for _, r := range f.Runs {
		routeOfRun[r.ID] = r.RouteID
	}
	names := make(map[string]string, len(f.Routes))
	for _, r := range f.Routes {
		names[r.ID] = r.Name
	}

	rows := make(map[string]*RouteRevenue)
	revenue := make(map[string]float64)
	for _, p := range f.Payments {
		routeID, ok := routeOfRun[p.Run()]
		if !ok {
			continue
		}
		row, ok := rows[routeID]
		if !ok {
			row = &RouteRevenue{RouteID: routeID, Name: names[routeID]}
			rows[routeID] = row
		}
		row.Transactions++
		if p.IsCompleted() {
			revenue[routeID] += p.Amount
		}
	}

	out := make([]RouteRevenue, 0, len(rows))
	for _, id := range sortedKeys(rows) {
		row := *rows[id]
		row.Revenue = Round2(revenue[id])
		out = append(out, row)
	}
	return out
}

func buildOperational(f *Filtered, now time.Time) *OperationalReport {
	passengers := sumPassengers(f.Runs)
	return &OperationalReport{
		Type: VariantOperational,
		Summary: OperationalSummary{
			Trips:             len(f.Runs),
			CompletedTrips:    CountWhere(f.Runs, isCompletedRun),
			TotalPassengers:   passengers,
			AveragePassengers: Round2(Average(float64(passengers), len(f.Runs))),
			FleetUtilization:  Round2(Rate(float64(passengers), float64(seatsOffered(f, f.Runs)))),
			OnTimeRate:        Round2(OnTimeRate(f.Runs)),
			ActiveVehicles:    CountWhere(f.Vehicles, func(v models.Vehicle) bool { return v.Status == models.VehicleStatusActive }),
			ActiveRoutes:      CountWhere(f.Routes, func(r models.Route) bool { return r.Status == models.RouteStatusActive }),
		},
		Breakdown: OperationalBreakdown{
			ByRoute:   Rank(f, DimensionRoute),
			ByVehicle: Rank(f, DimensionVehicle),
		},
		Trends: Bucket(f, TrailingMonths(now, DefaultTrendMonths)),
	}
}

// OnTimeRate is the share of completed runs that started no later than
// OnTimeGrace after schedule. Runs missing either time are left out.
func OnTimeRate(runs []models.Run) float64 {
	measured, onTime := 0, 0
	for _, r := range runs {
		if !isCompletedRun(r) {
			continue
		}
		delay, ok := startDelay(r)
		if !ok {
			continue
		}
		measured++
		if delay <= OnTimeGrace {
			onTime++
		}
	}
	return Rate(float64(onTime), float64(measured))
}

func startDelay(r models.Run) (time.Duration, bool) {
	if r.ScheduledStartTime == nil || r.ActualStartTime == nil {
		return 0, false
	}
	scheduled, err := time.Parse(clockLayout, *r.ScheduledStartTime)
	if err != nil {
		return 0, false
	}
	actual, err := time.Parse(clockLayout, *r.ActualStartTime)
	if err != nil {
		return 0, false
	}
	return actual.Sub(scheduled), true
}

func buildPerformance(f *Filtered) *PerformanceReport {
	full := PerformanceTables{
		Routes:      Rank(f, DimensionRoute),
		Vehicles:    Rank(f, DimensionVehicle),
		Drivers:     Rank(f, DimensionDriver),
		Supervisors: Rank(f, DimensionSupervisor),
	}
	return &PerformanceReport{
		Type: VariantPerformance,
		Summary: PerformanceSummary{
			Routes:      len(full.Routes),
			Vehicles:    len(full.Vehicles),
			Drivers:     len(full.Drivers),
			Supervisors: len(full.Supervisors),
		},
		Performance: full,
		TopPerformers: PerformanceTables{
			Routes:      Top(full.Routes, DefaultTopN),
			Vehicles:    Top(full.Vehicles, DefaultTopN),
			Drivers:     Top(full.Drivers, DefaultTopN),
			Supervisors: Top(full.Supervisors, DefaultTopN),
		},
	}
}

func buildMaintenance(f *Filtered, now time.Time) *MaintenanceReport {
	schedule := maintenance.Schedule(f.Vehicles, f.Tickets, now)
	return &MaintenanceReport{
		Type: VariantMaintenance,
		Summary: MaintenanceSummary{
			TotalVehicles: len(f.Vehicles),
			StatusCounts:  maintenance.CountStatuses(schedule),
			TicketCounts:  maintenance.CountTickets(f.Tickets),
		},
		Schedule: schedule,
		Breakdown: MaintenanceBreakdown{
			ByType:     SortedCounts(CountBy(f.Tickets, func(t models.MaintenanceTicket) string { return t.Type })),
			ByPriority: SortedCounts(CountBy(f.Tickets, func(t models.MaintenanceTicket) string { return string(t.Priority) })),
		},
	}
}

func buildUser(f *Filtered) *UserReport {
	activity := riderActivity(f)

	top := make([]RiderActivity, len(activity))
	copy(top, activity)
	sort.SliceStable(top, func(i, j int) bool { return top[i].Spend > top[j].Spend })
	if len(top) > DefaultTopN {
		top = top[:DefaultTopN]
	}

	return &UserReport{
		Type: VariantUser,
		Summary: UserSummary{
			Total:    len(f.Riders),
			Active:   CountWhere(f.Riders, isActiveRider),
			ByRole:   SortedCounts(CountBy(f.Riders, func(r models.Rider) string { return string(r.Role) })),
			ByStatus: SortedCounts(CountBy(f.Riders, func(r models.Rider) string { return r.Status })),
		},
		Breakdown:     UserBreakdown{ByRole: activityByRole(f.Riders, activity)},
		TopPerformers: UserTop{Riders: top},
		Activity:      activity,
	}
}

// riderActivity returns one row per rider in input order
func riderActivity(f *Filtered) []RiderActivity {
	reservations := CountBy(f.Reservations, func(r models.Reservation) string { return r.RiderID })
	attendance := CountBy(f.Attendance, func(a models.AttendanceRecord) string { return a.RiderID })
	attended := CountBy(keep(f.Attendance, isPresent), func(a models.AttendanceRecord) string { return a.RiderID })
	payments := CountBy(f.Payments, func(p models.Payment) string { return p.RiderID })
	spend := make(map[string]float64)
	for _, p := range f.Payments {
		if p.IsCompleted() {
			spend[p.RiderID] += p.Amount
		}
	}

	out := make([]RiderActivity, 0, len(f.Riders))
	for _, r := range f.Riders {
		out = append(out, RiderActivity{
			RiderID:           r.ID,
			Name:              r.Name,
			Role:              string(r.Role),
			Reservations:      reservations[r.ID],
			AttendanceRecords: attendance[r.ID],
			Attended:          attended[r.ID],
			AttendanceRate:    Round2(Rate(float64(attended[r.ID]), float64(attendance[r.ID]))),
			Payments:          payments[r.ID],
			Spend:             Round2(spend[r.ID]),
		})
	}
	return out
}

func activityByRole(riders []models.Rider, activity []RiderActivity) []RoleActivity {
	rows := make(map[string]*RoleActivity)
	spend := make(map[string]float64)
	for i, r := range riders {
		role := string(r.Role)
		row, ok := rows[role]
		if !ok {
			row = &RoleActivity{Role: role}
			rows[role] = row
		}
		row.Riders++
		if isActiveRider(r) {
			row.Active++
		}
		row.Reservations += activity[i].Reservations
		spend[role] += activity[i].Spend
	}

	out := make([]RoleActivity, 0, len(rows))
	for _, role := range sortedKeys(rows) {
		row := *rows[role]
		row.Spend = Round2(spend[role])
		out = append(out, row)
	}
	return out
}

func isActiveRider(r models.Rider) bool { return r.Status == models.RiderStatusActive }

func isCompletedRun(r models.Run) bool { return r.Status == models.RunStatusCompleted }

func isPresent(a models.AttendanceRecord) bool { return a.Status == models.AttendancePresent }

func paymentIn(status models.PaymentStatus) func(models.Payment) bool {
	return func(p models.Payment) bool { return p.Status == status }
}
