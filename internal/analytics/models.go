package analytics

import (
	"strings"

	"github.com/richxcame/transit-ops/internal/maintenance"
)

// Variant names a report shape
type Variant string

const (
	VariantOverview    Variant = "overview"
	VariantFinancial   Variant = "financial"
	VariantOperational Variant = "operational"
	VariantPerformance Variant = "performance"
	VariantMaintenance Variant = "maintenance"
	VariantUser        Variant = "user"
)

// Variants lists every report variant
var Variants = []Variant{
	VariantOverview, VariantFinancial, VariantOperational,
	VariantPerformance, VariantMaintenance, VariantUser,
}

// ParseVariant resolves a variant name. Unknown or empty names fall back
// to the overview report.
func ParseVariant(s string) Variant {
	v := Variant(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Variants {
		if v == known {
			return v
		}
	}
	return VariantOverview
}

// Overview

type OverviewReport struct {
	Type    Variant         `json:"type"`
	Summary OverviewSummary `json:"summary"`
	Trends  []MonthlyTrend  `json:"trends"`
}

type OverviewSummary struct {
	Riders       RiderSummary       `json:"riders"`
	Vehicles     VehicleSummary     `json:"vehicles"`
	Routes       RouteSummary       `json:"routes"`
	Trips        TripSummary        `json:"trips"`
	Financial    RevenueSummary     `json:"financial"`
	Reservations ReservationSummary `json:"reservations"`
	Attendance   AttendanceSummary  `json:"attendance"`
}

type RiderSummary struct {
	Total  int        `json:"total"`
	Active int        `json:"active"`
	ByRole []KeyCount `json:"byRole"`
}

type VehicleSummary struct {
	Total         int `json:"total"`
	Active        int `json:"active"`
	Maintenance   int `json:"maintenance"`
	Retired       int `json:"retired"`
	TotalCapacity int `json:"totalCapacity"`
}

type RouteSummary struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
}

type TripSummary struct {
	Total          int     `json:"total"`
	Scheduled      int     `json:"scheduled"`
	Active         int     `json:"active"`
	Completed      int     `json:"completed"`
	Cancelled      int     `json:"cancelled"`
	CompletionRate float64 `json:"completionRate"`
	Passengers     int     `json:"passengers"`
}

type RevenueSummary struct {
	TotalRevenue       float64 `json:"totalRevenue"`
	PendingRevenue     float64 `json:"pendingRevenue"`
	Transactions       int     `json:"transactions"`
	AverageTransaction float64 `json:"averageTransaction"`
}

type ReservationSummary struct {
	Total            int     `json:"total"`
	Confirmed        int     `json:"confirmed"`
	Pending          int     `json:"pending"`
	Cancelled        int     `json:"cancelled"`
	ConfirmationRate float64 `json:"confirmationRate"`
}

type AttendanceSummary struct {
	Total          int     `json:"total"`
	Present        int     `json:"present"`
	Absent         int     `json:"absent"`
	AttendanceRate float64 `json:"attendanceRate"`
}

// Financial

type FinancialReport struct {
	Type      Variant            `json:"type"`
	Summary   FinancialSummary   `json:"summary"`
	Breakdown FinancialBreakdown `json:"breakdown"`
	Trends    []MonthlyTrend     `json:"trends"`
}

type FinancialSummary struct {
	TotalRevenue          float64 `json:"totalRevenue"`
	PendingRevenue        float64 `json:"pendingRevenue"`
	RefundedAmount        float64 `json:"refundedAmount"`
	FailedAmount          float64 `json:"failedAmount"`
	Transactions          int     `json:"transactions"`
	CompletedTransactions int     `json:"completedTransactions"`
	AverageTransaction    float64 `json:"averageTransaction"`
	TripRevenue           float64 `json:"tripRevenue"`
	SubscriptionRevenue   float64 `json:"subscriptionRevenue"`
	OperationalCost       float64 `json:"operationalCost"`
	NetRevenue            float64 `json:"netRevenue"`
}

type FinancialBreakdown struct {
	ByMethod []KeyAmount    `json:"byMethod"`
	ByStatus []KeyAmount    `json:"byStatus"`
	ByRoute  []RouteRevenue `json:"byRoute"`
}

type RouteRevenue struct {
	RouteID      string  `json:"routeId"`
	Name         string  `json:"name"`
	Transactions int     `json:"transactions"`
	Revenue      float64 `json:"revenue"`
}

// Operational

type OperationalReport struct {
	Type      Variant              `json:"type"`
	Summary   OperationalSummary   `json:"summary"`
	Breakdown OperationalBreakdown `json:"breakdown"`
	Trends    []MonthlyTrend       `json:"trends"`
}

type OperationalSummary struct {
	Trips             int     `json:"trips"`
	CompletedTrips    int     `json:"completedTrips"`
	TotalPassengers   int     `json:"totalPassengers"`
	AveragePassengers float64 `json:"averagePassengers"`
	FleetUtilization  float64 `json:"fleetUtilization"`
	OnTimeRate        float64 `json:"onTimeRate"`
	ActiveVehicles    int     `json:"activeVehicles"`
	ActiveRoutes      int     `json:"activeRoutes"`
}

type OperationalBreakdown struct {
	ByRoute   []EntityPerformance `json:"byRoute"`
	ByVehicle []EntityPerformance `json:"byVehicle"`
}

// Performance

type PerformanceReport struct {
	Type          Variant            `json:"type"`
	Summary       PerformanceSummary `json:"summary"`
	Performance   PerformanceTables  `json:"performance"`
	TopPerformers PerformanceTables  `json:"topPerformers"`
}

type PerformanceSummary struct {
	Routes      int `json:"routes"`
	Vehicles    int `json:"vehicles"`
	Drivers     int `json:"drivers"`
	Supervisors int `json:"supervisors"`
}

type PerformanceTables struct {
	Routes      []EntityPerformance `json:"routes"`
	Vehicles    []EntityPerformance `json:"vehicles"`
	Drivers     []EntityPerformance `json:"drivers"`
	Supervisors []EntityPerformance `json:"supervisors"`
}

// Maintenance

type MaintenanceReport struct {
	Type      Variant                     `json:"type"`
	Summary   MaintenanceSummary          `json:"summary"`
	Schedule  []maintenance.ScheduleEntry `json:"schedule"`
	Breakdown MaintenanceBreakdown        `json:"breakdown"`
}

type MaintenanceSummary struct {
	TotalVehicles int `json:"totalVehicles"`
	maintenance.StatusCounts
	maintenance.TicketCounts
}

type MaintenanceBreakdown struct {
	ByType     []KeyCount `json:"byType"`
	ByPriority []KeyCount `json:"byPriority"`
}

// User

type UserReport struct {
	Type          Variant         `json:"type"`
	Summary       UserSummary     `json:"summary"`
	Breakdown     UserBreakdown   `json:"breakdown"`
	TopPerformers UserTop         `json:"topPerformers"`
	Activity      []RiderActivity `json:"activity"`
}

type UserSummary struct {
	Total    int        `json:"total"`
	Active   int        `json:"active"`
	ByRole   []KeyCount `json:"byRole"`
	ByStatus []KeyCount `json:"byStatus"`
}

type UserBreakdown struct {
	ByRole []RoleActivity `json:"byRole"`
}

type RoleActivity struct {
	Role         string  `json:"role"`
	Riders       int     `json:"riders"`
	Active       int     `json:"active"`
	Reservations int     `json:"reservations"`
	Spend        float64 `json:"spend"`
}

type UserTop struct {
	Riders []RiderActivity `json:"riders"`
}

type RiderActivity struct {
	RiderID           string  `json:"riderId"`
	Name              string  `json:"name"`
	Role              string  `json:"role"`
	Reservations      int     `json:"reservations"`
	AttendanceRecords int     `json:"attendanceRecords"`
	Attended          int     `json:"attended"`
	AttendanceRate    float64 `json:"attendanceRate"`
	Payments          int     `json:"payments"`
	Spend             float64 `json:"spend"`
}

// TrendsResponse is returned by the standalone trends endpoint
type TrendsResponse struct {
	Mode   TrendMode      `json:"mode"`
	Trends []MonthlyTrend `json:"trends"`
}

// LeaderboardResponse is returned by the standalone leaderboard endpoint
type LeaderboardResponse struct {
	Dimension Dimension           `json:"dimension"`
	Total     int                 `json:"total"`
	Entries   []EntityPerformance `json:"entries"`
}
