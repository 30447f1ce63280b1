package maintenance

import (
	"math"
	"sort"
	"time"

	"github.com/richxcame/transit-ops/pkg/models"
)

// ScheduleEntry is the maintenance outlook for one vehicle
type ScheduleEntry struct {
	VehicleID                string                `json:"vehicleId"`
	VehicleNumber            string                `json:"vehicleNumber"`
	VehicleStatus            models.VehicleStatus  `json:"vehicleStatus"`
	LastMaintenance          *string               `json:"lastMaintenance"`
	NextMaintenance          *string               `json:"nextMaintenance"`
	DaysSinceLastMaintenance *int                  `json:"daysSinceLastMaintenance"`
	DaysUntilNextMaintenance *int                  `json:"daysUntilNextMaintenance"`
	MaintenanceStatus        Status                `json:"maintenanceStatus"`
	Priority                 models.TicketPriority `json:"priority"`
	TotalTickets             int                   `json:"totalTickets"`
	PendingTickets           int                   `json:"pendingTickets"`
	LastCompletedDate        *string               `json:"lastCompletedDate"`
	TotalActualCost          float64               `json:"totalActualCost"`
}

// Entry classifies one vehicle. tickets may contain other vehicles'
// tickets; only the vehicle's own are counted.
func Entry(v models.Vehicle, tickets []models.MaintenanceTicket, now time.Time) ScheduleEntry {
	days := DaysSince(now, v.LastMaintenance)
	status, priority := Classify(days)

	entry := ScheduleEntry{
		VehicleID:                v.ID,
		VehicleNumber:            v.Number,
		VehicleStatus:            v.Status,
		LastMaintenance:          v.LastMaintenance,
		NextMaintenance:          v.NextMaintenance,
		DaysSinceLastMaintenance: days,
		DaysUntilNextMaintenance: DaysUntil(now, v.NextMaintenance),
		MaintenanceStatus:        status,
		Priority:                 priority,
	}

	var cost float64
	for _, t := range tickets {
		if t.VehicleID != v.ID {
			continue
		}
		entry.TotalTickets++
		if t.IsPending() {
			entry.PendingTickets++
		}
		if t.ActualCost != nil {
			cost += *t.ActualCost
		}
		if t.Status == models.TicketStatusCompleted && t.CompletedDate != nil {
			if entry.LastCompletedDate == nil || *t.CompletedDate > *entry.LastCompletedDate {
				d := *t.CompletedDate
				entry.LastCompletedDate = &d
			}
		}
	}
	entry.TotalActualCost = roundCents(cost)
	return entry
}

// Schedule classifies every vehicle and orders the result by priority,
// then by status, most urgent first. Equal entries keep fleet order.
func Schedule(vehicles []models.Vehicle, tickets []models.MaintenanceTicket, now time.Time) []ScheduleEntry {
	entries := make([]ScheduleEntry, 0, len(vehicles))
	for _, v := range vehicles {
		entries = append(entries, Entry(v, tickets, now))
	}

	sort.SliceStable(entries, func(i, j int) bool {
		pi, pj := priorityRank[entries[i].Priority], priorityRank[entries[j].Priority]
		if pi != pj {
			return pi > pj
		}
		return statusRank[entries[i].MaintenanceStatus] > statusRank[entries[j].MaintenanceStatus]
	})
	return entries
}

// StatusCounts tallies schedule entries per maintenance status
type StatusCounts struct {
	Overdue     int `json:"overdue"`
	DueSoon     int `json:"dueSoon"`
	Approaching int `json:"approaching"`
	UpToDate    int `json:"upToDate"`
}

// CountStatuses tallies entries by maintenance status
func CountStatuses(entries []ScheduleEntry) StatusCounts {
	var c StatusCounts
	for _, e := range entries {
		switch e.MaintenanceStatus {
		case StatusOverdue:
			c.Overdue++
		case StatusDueSoon:
			c.DueSoon++
		case StatusApproaching:
			c.Approaching++
		default:
			c.UpToDate++
		}
	}
	return c
}

// TicketCounts tallies tickets by lifecycle status and sums their costs
type TicketCounts struct {
	Open          int     `json:"openTickets"`
	Scheduled     int     `json:"scheduledTickets"`
	InProgress    int     `json:"inProgressTickets"`
	Completed     int     `json:"completedTickets"`
	EstimatedCost float64 `json:"estimatedCost"`
	ActualCost    float64 `json:"actualCost"`
}

// CountTickets tallies tickets by status
func CountTickets(tickets []models.MaintenanceTicket) TicketCounts {
	var c TicketCounts
	var estimated, actual float64
	for _, t := range tickets {
		switch t.Status {
		case models.TicketStatusOpen:
			c.Open++
		case models.TicketStatusScheduled:
			c.Scheduled++
		case models.TicketStatusInProgress:
			c.InProgress++
		case models.TicketStatusCompleted:
			c.Completed++
		}
		estimated += t.EstimatedCost
		if t.ActualCost != nil {
			actual += *t.ActualCost
		}
	}
	c.EstimatedCost = roundCents(estimated)
	c.ActualCost = roundCents(actual)
	return c
}

func roundCents(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
