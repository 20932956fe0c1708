package validator

import (
	"errors"
	"fmt"
	"portfolio/pkg/logger"
	"portfolio/pkg/model"

	"github.com/go-playground/validator/v10"
)

const (
	MsgMissingEvent = "Missing event field"
	MsgInvalidEvent = "Invalid event type"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type AnalyticsValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewAnalyticsValidator(log *logger.Logger) *AnalyticsValidator {
	return &AnalyticsValidator{
		validate: validator.New(),
		logger:   log,
	}
}

// ValidateTrack returns the first problem with req as a ValidationError.
func (v *AnalyticsValidator) ValidateTrack(req *model.TrackRequest) error {
	err := v.validate.Struct(req)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	first := validationErrs[0]
	message := first.Error()
	switch {
	case first.Field() == "Event" && first.Tag() == "required":
		message = MsgMissingEvent
	case first.Field() == "Event":
		message = MsgInvalidEvent
	case first.Tag() == "max":
		message = fmt.Sprintf("%s must be at most %s characters", first.Field(), first.Param())
	}
	return ValidationError{Field: first.Field(), Message: message}
}
