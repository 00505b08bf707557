package validator

import (
	"errors"
	"fmt"
	"strings"

	locationsvalidator "mesa/internal/locations/validator"
	"mesa/pkg/logger"
	"mesa/pkg/model"

	"github.com/go-playground/validator/v10"
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

type ReservationValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewReservationValidator(log *logger.Logger) *ReservationValidator {
	v := validator.New()

	// Hour and date labels mean the same thing here as in the locations
	// service; the tag implementations are shared.
	if err := v.RegisterValidation("valid_hour", locationsvalidator.ValidateHourLabel); err != nil {
		log.Fatal("Failed to register 'valid_hour' validator", "error", err)
	}
	if err := v.RegisterValidation("valid_iso_date", locationsvalidator.ValidateISODate); err != nil {
		log.Fatal("Failed to register 'valid_iso_date' validator", "error", err)
	}

	log.Info("Reservation validator initialized successfully")

	return &ReservationValidator{
		validate: v,
		logger:   log,
	}
}

func (v *ReservationValidator) Validate(res *model.Reservation) error {
	if err := v.validate.Struct(res); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if res.EndHour != "" && res.EndHour <= res.StartHour {
		return ValidationErrors{
			ValidationError{
				Field:   "EndHour",
				Message: "end hour must be after the start hour",
			},
		}
	}

	return nil
}

func (v *ReservationValidator) ValidateUpdate(updates *model.ReservationUpdate) error {
	if err := v.validate.Struct(updates); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *ReservationValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
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
		case "valid_hour":
			message = fmt.Sprintf("%s must be an HH:mm label on the half-hour grid", err.Field())
		case "valid_iso_date":
			message = fmt.Sprintf("%s must be a YYYY-MM-DD date", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "e164":
			message = fmt.Sprintf("%s must be in E.164 format (e.g., +14155552671)", err.Field())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
