package httputil

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/attendly/attendance-backend/pkg/errors"
)

var validate = validator.New()

// Validate validates a struct using validator tags and converts
// failures to a Validation AppError with per-field details.
func Validate(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return apperrors.BadRequest("invalid request payload")
		}

		details := make(map[string]string)
		for _, fieldErr := range validationErrors {
			details[strings.ToLower(fieldErr.Field())] = validationMessage(fieldErr)
		}
		return apperrors.Validation(details)
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
