package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Constraint codes. Clients match on these rather than on messages.
const (
	CodeNotBlank = "c1051bb4-d103-4f74-8988-acbcafc7fdc3"
	CodeNotNull  = "ad32d13f-c3d4-423b-909a-857b961eb720"
	CodeTooLong  = "d94b19cc-114f-4f44-9cc4-4138e80a87b9"
	CodeInvalid  = "ba785a8c-82cb-4283-967c-3cf342181b40"
)

// Violation is one failed constraint on one property.
type Violation struct {
	PropertyPath string `json:"propertyPath"`
	Message      string `json:"message"`
	Code         string `json:"code"`
}

// ValidationError is returned when an entity fails its constraints.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	lines := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		lines[i] = v.PropertyPath + ": " + v.Message
	}
	return strings.Join(lines, "\n")
}

// newValidator returns a validator reporting JSON field names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateEntity runs struct validation and converts failures into a
// *ValidationError. Other errors are returned unchanged.
func validateEntity(v *validator.Validate, entity any) error {
	err := v.Struct(entity)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	violations := make([]Violation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, toViolation(fe))
	}
	return &ValidationError{Violations: violations}
}

func toViolation(fe validator.FieldError) Violation {
	v := Violation{PropertyPath: fe.Field()}

	switch fe.Tag() {
	case "required":
		// Nullable fields (pointers) only reject null; strings reject "".
		if fe.Type().Kind() == reflect.Ptr {
			v.Message = "This value should not be null."
			v.Code = CodeNotNull
		} else {
			v.Message = "This value should not be blank."
			v.Code = CodeNotBlank
		}
	case "max":
		unit := "characters"
		if fe.Param() == "1" {
			unit = "character"
		}
		v.Message = "This value is too long. It should have " + fe.Param() + " " + unit + " or less."
		v.Code = CodeTooLong
	default:
		v.Message = "This value is not valid."
		v.Code = CodeInvalid
	}

	return v
}
