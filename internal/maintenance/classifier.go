package maintenance

import (
	"math"
	"time"

	"github.com/richxcame/transit-ops/pkg/models"
	"github.com/richxcame/transit-ops/pkg/validation"
)

// Status describes how recently a vehicle was serviced
type Status string

const (
	StatusOverdue     Status = "overdue"
	StatusDueSoon     Status = "due_soon"
	StatusApproaching Status = "approaching"
	StatusUpToDate    Status = "up_to_date"
)

// Day thresholds, exclusive
const (
	OverdueAfterDays     = 90
	DueSoonAfterDays     = 60
	ApproachingAfterDays = 30
)

var (
	priorityRank = map[models.TicketPriority]int{
		models.PriorityCritical: 4,
		models.PriorityHigh:     3,
		models.PriorityMedium:   2,
		models.PriorityLow:      1,
	}
	statusRank = map[Status]int{
		StatusOverdue:     4,
		StatusDueSoon:     3,
		StatusApproaching: 2,
		StatusUpToDate:    1,
	}
)

// Classify maps days since the last service to a status and priority.
// A nil input means no recorded service and is treated as up to date.
func Classify(days *int) (Status, models.TicketPriority) {
	if days == nil {
		return StatusUpToDate, models.PriorityLow
	}
	switch d := *days; {
	case d > OverdueAfterDays:
		return StatusOverdue, models.PriorityCritical
	case d > DueSoonAfterDays:
		return StatusDueSoon, models.PriorityHigh
	case d > ApproachingAfterDays:
		return StatusApproaching, models.PriorityMedium
	default:
		return StatusUpToDate, models.PriorityLow
	}
}

// DaysSince returns the whole days elapsed from date to now, rounded down.
// It returns nil when date is absent or unparseable.
func DaysSince(now time.Time, date *string) *int {
	t, ok := parseDate(date)
	if !ok {
		return nil
	}
	days := int(math.Floor(now.Sub(t).Hours() / 24))
	return &days
}

// DaysUntil returns the calendar days from today to date; negative once
// the date has passed. It returns nil when date is absent or unparseable.
func DaysUntil(now time.Time, date *string) *int {
	t, ok := parseDate(date)
	if !ok {
		return nil
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	target := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	days := int(math.Round(target.Sub(today).Hours() / 24))
	return &days
}

// parseDate accepts a calendar date or an RFC 3339 timestamp
func parseDate(date *string) (time.Time, bool) {
	if date == nil || *date == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, *date); err == nil {
		return t, true
	}
	if t, err := time.Parse(validation.ISODateLayout, *date); err == nil {
		return t, true
	}
	return time.Time{}, false
}
