package validator

import (
	"errors"
	"fmt"
	"portfolio/pkg/logger"
	"portfolio/pkg/model"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MsgMissingFields = "Missing email or context"
	MsgInvalidEmail  = "Invalid email format"
)

var (
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
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

// Message returns the first error message, which is what clients display.
func (v ValidationErrors) Message() string {
	if len(v) == 0 {
		return "Invalid request"
	}
	return v[0].Message
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()

	if err := v.RegisterValidation("booking_email", validateBookingEmail); err != nil {
		log.Fatal("Failed to register 'booking_email' validator",
			"error", err,
		)
	}

	log.Debug("Booking validator initialized successfully")

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

func validateBookingEmail(fl validator.FieldLevel) bool {
	return emailRegex.MatchString(fl.Field().String())
}

// ValidateRequest checks a create payload. A missing email or context is
// reported before any format problem so the client sees one clear message.
func (v *BookingValidator) ValidateRequest(req *model.BookingRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *BookingValidator) ValidateApproval(details *model.ApprovalDetails) error {
	if err := v.validate.Struct(details); err != nil {
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
	var missing ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			if err.StructField() == "Email" || err.StructField() == "Context" {
				message = MsgMissingFields
			} else {
				message = fmt.Sprintf("%s is required", err.Field())
			}
		case "booking_email":
			message = MsgInvalidEmail
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "url":
			message = fmt.Sprintf("%s must be a valid URL", err.Field())
		case "datetime":
			message = fmt.Sprintf("%s must match the format %s", err.Field(), err.Param())
		case "len", "alpha":
			message = fmt.Sprintf("%s must be a 3-letter currency code", err.Field())
		}

		validationError := ValidationError{
			Field:   err.Field(),
			Message: message,
		}
		if err.Tag() == "required" {
			missing = append(missing, validationError)
			continue
		}
		validationErrors = append(validationErrors, validationError)
	}

	return append(missing, validationErrors...)
}
