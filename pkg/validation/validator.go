package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/richxcame/transit-ops/pkg/common"
	"github.com/richxcame/transit-ops/pkg/models"
)

// ISODateLayout is the calendar-date layout used by every date filter and field
const ISODateLayout = "2006-01-02"

// Validate is the global validator instance
var Validate *validator.Validate

func init() {
	Validate = validator.New()

	// Report fields by their JSON names so messages match the payload
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = Validate.RegisterValidation("iso_date", validateISODate)
	_ = Validate.RegisterValidation("ticket_status", validateTicketStatus)
	_ = Validate.RegisterValidation("ticket_priority", validateTicketPriority)
}

// ValidateStruct validates a struct and returns a 400 AppError describing
// every failing field.
func ValidateStruct(s interface{}) error {
	err := Validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		messages = append(messages, fieldMessage(fe))
	}
	sort.Strings(messages)
	return common.NewValidationError(strings.Join(messages, "; "))
}

// IsISODate reports whether s is a valid YYYY-MM-DD calendar date
func IsISODate(s string) bool {
	if len(s) != len(ISODateLayout) {
		return false
	}
	_, err := time.Parse(ISODateLayout, s)
	return err == nil
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "iso_date":
		return field + " must be a YYYY-MM-DD date"
	case "ticket_status":
		return field + " must be one of open, scheduled, in_progress, completed"
	case "ticket_priority":
		return field + " must be one of low, medium, high, critical"
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func validateISODate(fl validator.FieldLevel) bool {
	return IsISODate(fl.Field().String())
}

func validateTicketStatus(fl validator.FieldLevel) bool {
	switch models.TicketStatus(fl.Field().String()) {
	case models.TicketStatusOpen, models.TicketStatusScheduled, models.TicketStatusInProgress, models.TicketStatusCompleted:
		return true
	}
	return false
}

func validateTicketPriority(fl validator.FieldLevel) bool {
	switch models.TicketPriority(fl.Field().String()) {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityCritical:
		return true
	}
	return false
}
