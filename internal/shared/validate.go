package shared

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate runs struct-tag validation on a request DTO and flattens the
// result into a single ValidationError.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		return &ValidationError{
			Field:  strings.ToLower(first.Field()),
			Reason: "failed rule " + first.Tag(),
		}
	}
	return &ValidationError{Reason: err.Error()}
}
