package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

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

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()

	v.RegisterStructValidation(validateBooking, model.Booking{})

	log.Info("Booking validator initialized successfully")

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

// validateBooking keeps both instants on whole minutes, which the slot grid
// and the conflict check rely on.
func validateBooking(sl validator.StructLevel) {
	b := sl.Current().Interface().(model.Booking)

	if b.Datetime.Second() != 0 || b.Datetime.Nanosecond() != 0 {
		sl.ReportError(b.Datetime, "datetime", "Datetime", "whole_minute", "")
	}
	if b.EndDatetime.Second() != 0 || b.EndDatetime.Nanosecond() != 0 {
		sl.ReportError(b.EndDatetime, "end_datetime", "EndDatetime", "whole_minute", "")
	}
}

func (v *BookingValidator) Validate(b *model.Booking) error {
	return v.check(b)
}

func (v *BookingValidator) ValidateStatusUpdate(u *model.BookingStatusUpdate) error {
	return v.check(u)
}

func (v *BookingValidator) check(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
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
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "e164":
			message = fmt.Sprintf("%s must be a phone number in E.164 format", err.Field())
		case "gtfield":
			message = fmt.Sprintf("%s must be after %s", err.Field(), err.Param())
		case "whole_minute":
			message = fmt.Sprintf("%s must fall on a whole minute", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
