package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"opatam/internal/availability/interval"
	"opatam/pkg/logger"
	"opatam/pkg/model"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type ScheduleValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewScheduleValidator(log *logger.Logger) *ScheduleValidator {
	v := validator.New()

	if err := v.RegisterValidation("hhmm", validateHHMM); err != nil {
		log.Fatal("Failed to register 'hhmm' validator", "error", err)
	}
	v.RegisterStructValidation(validateDaySchedule, model.WeeklyDaySchedule{})
	v.RegisterStructValidation(validateWeek, model.WeeklySchedule{})
	v.RegisterStructValidation(validateBlockedPeriod, model.BlockedPeriod{})

	log.Info("Schedule validator initialized successfully")

	return &ScheduleValidator{
		validate: v,
		logger:   log,
	}
}

func validateHHMM(fl validator.FieldLevel) bool {
	_, err := interval.ParseTimeOfDay(fl.Field().String())
	return err == nil
}

// validateDaySchedule requires open days to carry sorted, disjoint, non-empty
// ranges and closed days to carry none.
func validateDaySchedule(sl validator.StructLevel) {
	day := sl.Current().Interface().(model.WeeklyDaySchedule)

	if !day.IsOpen {
		if len(day.Ranges) > 0 {
			sl.ReportError(day.Ranges, "ranges", "Ranges", "closed_day_ranges", "")
		}
		return
	}
	if len(day.Ranges) == 0 {
		sl.ReportError(day.Ranges, "ranges", "Ranges", "open_day_ranges", "")
		return
	}

	parsed := make([]interval.TimeRange, 0, len(day.Ranges))
	for _, r := range day.Ranges {
		tr, err := interval.ParseRange(r.Start, r.End)
		if err != nil {
			sl.ReportError(day.Ranges, "ranges", "Ranges", "weekly_ranges", "")
			return
		}
		parsed = append(parsed, tr)
	}
	if !interval.SortedDisjoint(parsed) {
		sl.ReportError(day.Ranges, "ranges", "Ranges", "weekly_ranges", "")
	}
}

func validateWeek(sl validator.StructLevel) {
	week := sl.Current().Interface().(model.WeeklySchedule)

	var seen [model.DaysPerWeek]bool
	for _, d := range week.Days {
		if d.DayOfWeek < 0 || d.DayOfWeek >= model.DaysPerWeek {
			continue
		}
		if seen[d.DayOfWeek] {
			sl.ReportError(week.Days, "days", "Days", "unique_days", "")
			return
		}
		seen[d.DayOfWeek] = true
	}
}

func validateBlockedPeriod(sl validator.StructLevel) {
	b := sl.Current().Interface().(model.BlockedPeriod)

	if b.StartDate != "" && b.EndDate != "" && b.EndDate < b.StartDate {
		sl.ReportError(b.EndDate, "end_date", "EndDate", "date_order", "")
	}

	if b.AllDay {
		if b.StartTime != nil || b.EndTime != nil {
			sl.ReportError(b.StartTime, "start_time", "StartTime", "all_day_times", "")
		}
		return
	}
	if b.StartTime == nil || b.EndTime == nil {
		sl.ReportError(b.StartTime, "start_time", "StartTime", "partial_times", "")
		return
	}
	if _, err := interval.ParseRange(*b.StartTime, *b.EndTime); err != nil {
		sl.ReportError(b.EndTime, "end_time", "EndTime", "time_order", "")
	}
}

func (v *ScheduleValidator) ValidateWeek(week *model.WeeklySchedule) error {
	return v.check(week)
}

func (v *ScheduleValidator) ValidateBlockedPeriod(b *model.BlockedPeriod) error {
	return v.check(b)
}

func (v *ScheduleValidator) check(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *ScheduleValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "len":
			message = fmt.Sprintf("%s must contain exactly %s entries", err.Field(), err.Param())
		case "datetime":
			message = fmt.Sprintf("%s must be a YYYY-MM-DD date", err.Field())
		case "hhmm":
			message = fmt.Sprintf("%s must be in HH:MM 24-hour format", err.Field())
		case "weekly_ranges":
			message = "ranges must be valid, ascending and non-overlapping"
		case "open_day_ranges":
			message = "an open day needs at least one range"
		case "closed_day_ranges":
			message = "a closed day cannot have ranges"
		case "unique_days":
			message = "every day_of_week must appear exactly once"
		case "date_order":
			message = "end_date cannot be before start_date"
		case "all_day_times":
			message = "an all-day period cannot have start_time or end_time"
		case "partial_times":
			message = "a partial-day period needs both start_time and end_time"
		case "time_order":
			message = "end_time must be after start_time"
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
