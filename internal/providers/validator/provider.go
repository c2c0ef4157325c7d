package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"opatam/pkg/logger"
	"opatam/pkg/model"
	"opatam/pkg/sanitizer"
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

type ProviderValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewProviderValidator(log *logger.Logger) *ProviderValidator {
	v := validator.New()

	v.RegisterStructValidation(validateProvider, model.Provider{})

	log.Info("Provider validator initialized successfully")

	return &ProviderValidator{
		validate: v,
		logger:   log,
	}
}

// validateProvider checks member references across the document.
func validateProvider(sl validator.StructLevel) {
	p := sl.Current().Interface().(model.Provider)

	if p.DefaultMemberID != "" {
		if _, ok := p.Member(p.DefaultMemberID); !ok {
			sl.ReportError(p.DefaultMemberID, "default_member_id", "DefaultMemberID", "known_member", "")
		}
	}

	names := make(map[string]bool, len(p.Services))
	for _, svc := range p.Services {
		name := sanitizer.NormalizeNameForComparison(svc.Name)
		if names[name] {
			sl.ReportError(svc.Name, "name", "Name", "unique_service_name", svc.Name)
		}
		names[name] = true

		for _, id := range svc.MemberIDs {
			if _, ok := p.Member(id); !ok {
				sl.ReportError(svc.MemberIDs, "member_ids", "MemberIDs", "known_member", id)
			}
		}
	}

	if p.Published {
		if len(p.ActiveMemberIDs()) == 0 {
			sl.ReportError(p.Members, "members", "Members", "active_member", "")
		}
		if _, ok := p.FirstActiveService(); !ok {
			sl.ReportError(p.Services, "services", "Services", "active_service", "")
		}
	}
}

func (v *ProviderValidator) Validate(p *model.Provider) error {
	if err := v.validate.Struct(p); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *ProviderValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
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
		case "unique":
			message = fmt.Sprintf("%s must not contain duplicate ids", err.Field())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid object id", err.Field())
		case "datetime":
			message = fmt.Sprintf("%s must be a YYYY-MM-DD date", err.Field())
		case "timezone":
			message = fmt.Sprintf("%s must be an IANA time zone such as Europe/Paris", err.Field())
		case "known_member":
			if err.Param() != "" {
				message = fmt.Sprintf("%s references unknown member %q", err.Field(), err.Param())
			} else {
				message = fmt.Sprintf("%s references an unknown member", err.Field())
			}
		case "unique_service_name":
			message = fmt.Sprintf("service name %q is used twice", err.Param())
		case "active_member":
			message = "a published provider needs at least one active member"
		case "active_service":
			message = "a published provider needs at least one active service"
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
