package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

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

type LocationValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewLocationValidator(log *logger.Logger) *LocationValidator {
	v := validator.New()

	if err := v.RegisterValidation("valid_hour", ValidateHourLabel); err != nil {
		log.Fatal("Failed to register 'valid_hour' validator", "error", err)
	}
	if err := v.RegisterValidation("valid_iso_date", ValidateISODate); err != nil {
		log.Fatal("Failed to register 'valid_iso_date' validator", "error", err)
	}
	if err := v.RegisterValidation("valid_weekday", validateWeekdayKey); err != nil {
		log.Fatal("Failed to register 'valid_weekday' validator", "error", err)
	}

	log.Info("Location validator initialized successfully")

	return &LocationValidator{
		validate: v,
		logger:   log,
	}
}

// ValidateHourLabel accepts "HH:mm" 24-hour labels on the half-hour grid.
// Shared with the reservations validator so both services agree on what an
// hour label is.
func ValidateHourLabel(fl validator.FieldLevel) bool {
	label := strings.TrimSpace(fl.Field().String())
	if label == "" {
		return true
	}
	if _, err := time.Parse("15:04", label); err != nil {
		return false
	}
	return strings.HasSuffix(label, ":00") || strings.HasSuffix(label, ":30")
}

// ValidateISODate accepts "YYYY-MM-DD" calendar dates.
func ValidateISODate(fl validator.FieldLevel) bool {
	date := strings.TrimSpace(fl.Field().String())
	if date == "" {
		return true
	}
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}

func validateWeekdayKey(fl validator.FieldLevel) bool {
	key := fl.Field().String()
	return len(key) == 1 && key[0] >= '0' && key[0] <= '6'
}

func (v *LocationValidator) Validate(loc *model.Location) error {
	if err := v.validate.Struct(loc); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	for day, hours := range loc.Schedule.WeeklyDates {
		if hours.Closing <= hours.Opening {
			return ValidationErrors{
				ValidationError{
					Field:   "WeeklyDates",
					Message: fmt.Sprintf("closing must be after opening for weekday %s", day),
				},
			}
		}
	}

	for date, block := range loc.Schedule.BlockDates {
		for _, r := range block.Hours {
			if r.To <= r.From {
				return ValidationErrors{
					ValidationError{
						Field:   "BlockDates",
						Message: fmt.Sprintf("blocked range for %s must end after it starts", date),
					},
				}
			}
		}
	}

	return nil
}

func (v *LocationValidator) ValidateUpdate(updates *model.LocationUpdate) error {
	if err := v.validate.Struct(updates); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *LocationValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
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
		case "valid_weekday":
			message = "weekday keys must be \"0\" (Sunday) through \"6\" (Saturday)"
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "e164":
			message = fmt.Sprintf("%s must be in E.164 format (e.g., +14155552671)", err.Field())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "timezone":
			message = fmt.Sprintf("%s must be a valid IANA time zone", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
