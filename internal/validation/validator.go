package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/conduit-article-api/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground/validator, translating its output into
// the models.ValidationError shape. Validation never aborts on the first
// failure: the result names every offending field.
type Validator struct {
	v *validator.Validate
}

// New creates a new validator instance
func New() *Validator {
	return &Validator{v: validator.New()}
}

// Struct validates a tagged struct, returning nil or a
// *models.ValidationError listing all invalid fields.
func (va *Validator) Struct(s interface{}) error {
	err := va.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// Non-validation failure (e.g. a non-struct argument)
		return fmt.Errorf("validation could not run: %w", err)
	}

	out := &models.ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, models.FieldError{
			Field:   strings.ToLower(fe.Field()),
			Message: message(fe),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "can't be blank"
	case "max":
		return fmt.Sprintf("is too long (maximum is %s characters)", fe.Param())
	default:
		return fmt.Sprintf("is invalid (%s)", fe.Tag())
	}
}
